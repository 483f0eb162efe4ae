package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"taskmate/internal/models"
)

const taskColumns = `
    id, user_id, task_name, description,
    to_char(task_date, 'YYYY-MM-DD'), to_char(task_time, 'HH24:MI:SS'),
    status, alert_count,
    first_alert_sent_at, second_alert_sent_at, third_alert_sent_at,
    completed_at, created_at`

func scanTask(row pgx.Row) (models.Task, error) {
	var t models.Task
	err := row.Scan(
		&t.ID, &t.UserID, &t.TaskName, &t.Description,
		&t.TaskDate, &t.TaskTime,
		&t.Status, &t.AlertCount,
		&t.FirstAlertSentAt, &t.SecondAlertSentAt, &t.ThirdAlertSentAt,
		&t.CompletedAt, &t.CreatedAt,
	)
	return t, err
}

func (d *DB) CreateTask(ctx context.Context, userID int64, in models.TaskCreate) (int64, error) {
	var id int64
	query := `
        INSERT INTO tasks (user_id, task_name, description, task_date, task_time)
        VALUES ($1, $2, $3, $4::date, $5::time)
        RETURNING id`
	err := d.Pool.QueryRow(ctx, query,
		userID, in.TaskName, in.Description, in.TaskDate, in.TaskTime).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create task: %w", err)
	}
	return id, nil
}

// GetTasksByUserID lists a user's tasks, optionally filtered by date.
func (d *DB) GetTasksByUserID(ctx context.Context, userID int64, date string) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`
	args := []interface{}{userID}
	if date != "" {
		query += ` AND task_date = $2::date ORDER BY task_time ASC`
		args = append(args, date)
	} else {
		query += ` ORDER BY task_date DESC, task_time ASC`
	}

	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks for user %d: %w", userID, err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (d *DB) GetTask(ctx context.Context, taskID, userID int64) (models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`
	t, err := scanTask(d.Pool.QueryRow(ctx, query, taskID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, ErrNotFound
		}
		return models.Task{}, fmt.Errorf("failed to get task %d: %w", taskID, err)
	}
	return t, nil
}

// UpdateTask edits content and schedule fields of an owned task.
// Escalation fields are untouched: a rescheduled task resumes its
// escalation where it left off.
func (d *DB) UpdateTask(ctx context.Context, taskID, userID int64, in models.TaskUpdate) error {
	query := `
        UPDATE tasks
        SET task_name   = COALESCE($3, task_name),
            description = COALESCE($4, description),
            task_date   = COALESCE($5::date, task_date),
            task_time   = COALESCE($6::time, task_time)
        WHERE id = $1 AND user_id = $2`
	tag, err := d.Pool.Exec(ctx, query,
		taskID, userID, in.TaskName, in.Description, in.TaskDate, in.TaskTime)
	if err != nil {
		return fmt.Errorf("failed to update task %d: %w", taskID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DB) DeleteTask(ctx context.Context, taskID, userID int64) error {
	tag, err := d.Pool.Exec(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`, taskID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task %d: %w", taskID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteTask moves a pending task to its terminal status in a single
// conditional update: late if the full escalation ran, done otherwise.
// The status derivation and the pending check happen in one statement,
// so a racing stage-3 advance cannot produce an inconsistent
// alert_count/status pair.
func (d *DB) CompleteTask(ctx context.Context, taskID, userID int64, now time.Time) (string, error) {
	var status string
	query := `
        UPDATE tasks
        SET status = CASE WHEN alert_count >= 3 THEN 'late' ELSE 'done' END,
            completed_at = $3
        WHERE id = $1 AND user_id = $2 AND status = 'pending'
        RETURNING status`
	err := d.Pool.QueryRow(ctx, query, taskID, userID, now).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to complete task %d: %w", taskID, err)
	}
	return status, nil
}

// StageEligible selects pending tasks due for the given alert stage,
// joined with their owner's contact details. now is compared as a wall
// clock value against the stored date+time, matching how tasks are
// scheduled.
func (d *DB) StageEligible(ctx context.Context, stage int, now time.Time, dwell time.Duration) ([]models.AlertCandidate, error) {
	var prevCol, cond string
	var arg interface{}
	switch stage {
	case 1:
		prevCol = "NULL::timestamptz"
		cond = "t.task_date + t.task_time <= $2::timestamp"
		arg = now.Format("2006-01-02 15:04:05")
	case 2:
		prevCol = "t.first_alert_sent_at"
		cond = "t.first_alert_sent_at IS NOT NULL AND t.first_alert_sent_at <= $2"
		arg = now.Add(-dwell)
	case 3:
		prevCol = "t.second_alert_sent_at"
		cond = "t.second_alert_sent_at IS NOT NULL AND t.second_alert_sent_at <= $2"
		arg = now.Add(-dwell)
	default:
		return nil, fmt.Errorf("invalid alert stage %d", stage)
	}

	query := fmt.Sprintf(`
        SELECT t.id, t.task_name, t.task_date + t.task_time, t.alert_count, %s,
               u.id, u.name, u.phone, u.telegram_chat_id
        FROM tasks t
        JOIN users u ON u.id = t.user_id
        WHERE t.status = 'pending' AND t.alert_count = $1 AND %s
        ORDER BY t.id`, prevCol, cond)

	rows, err := d.Pool.Query(ctx, query, stage-1, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to select stage %d candidates: %w", stage, err)
	}
	defer rows.Close()

	var candidates []models.AlertCandidate
	for rows.Next() {
		var c models.AlertCandidate
		err := rows.Scan(
			&c.TaskID, &c.TaskName, &c.DueAt, &c.AlertCount, &c.LastAlertAt,
			&c.User.UserID, &c.User.Name, &c.User.Phone, &c.User.TelegramChatID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stage %d candidate: %w", stage, err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// AdvanceStage records a delivered alert. The WHERE clause restates the
// stage's eligibility predicate, so the update only applies if the row
// is still in the state the caller selected it in; the return value
// reports whether it did.
func (d *DB) AdvanceStage(ctx context.Context, taskID int64, stage int, now time.Time) (bool, error) {
	var query string
	args := []interface{}{taskID, now}
	switch stage {
	case 1:
		// The due recheck covers a reschedule racing the send: a task
		// pushed to the future between select and write keeps its clean
		// escalation state.
		query = `
            UPDATE tasks SET alert_count = 1, first_alert_sent_at = $2
            WHERE id = $1 AND status = 'pending' AND alert_count = 0
              AND task_date + task_time <= $3::timestamp`
		args = append(args, now.Format("2006-01-02 15:04:05"))
	case 2:
		query = `
            UPDATE tasks SET alert_count = 2, second_alert_sent_at = $2
            WHERE id = $1 AND status = 'pending' AND alert_count = 1
              AND first_alert_sent_at IS NOT NULL`
	case 3:
		query = `
            UPDATE tasks SET alert_count = 3, third_alert_sent_at = $2
            WHERE id = $1 AND status = 'pending' AND alert_count = 2
              AND second_alert_sent_at IS NOT NULL`
	default:
		return false, fmt.Errorf("invalid alert stage %d", stage)
	}

	tag, err := d.Pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to advance task %d to stage %d: %w", taskID, stage, err)
	}
	return tag.RowsAffected() == 1, nil
}

// UsersAllDone selects users who scheduled at least one task for the
// given date and have no pending task left on it.
func (d *DB) UsersAllDone(ctx context.Context, date string) ([]models.Contact, error) {
	query := `
        SELECT u.id, u.name, u.phone, u.telegram_chat_id
        FROM users u
        WHERE EXISTS (
            SELECT 1 FROM tasks t
            WHERE t.user_id = u.id AND t.task_date = $1::date
        )
        AND NOT EXISTS (
            SELECT 1 FROM tasks t
            WHERE t.user_id = u.id AND t.task_date = $1::date AND t.status = 'pending'
        )`
	rows, err := d.Pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to select users done for %s: %w", date, err)
	}
	defer rows.Close()

	var users []models.Contact
	for rows.Next() {
		var u models.Contact
		if err := rows.Scan(&u.UserID, &u.Name, &u.Phone, &u.TelegramChatID); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
