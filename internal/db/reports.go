package db

import (
	"context"
	"fmt"

	"taskmate/internal/models"
)

func (d *DB) GetDailyReport(ctx context.Context, userID int64, date string) (models.DailyReport, error) {
	r := models.DailyReport{Date: date}
	query := `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status = 'done'),
               COUNT(*) FILTER (WHERE status = 'late'),
               COUNT(*) FILTER (WHERE status = 'pending')
        FROM tasks
        WHERE user_id = $1 AND task_date = $2::date`
	err := d.Pool.QueryRow(ctx, query, userID, date).Scan(
		&r.TotalTasks, &r.CompletedTasks, &r.LateTasks, &r.PendingTasks,
	)
	if err != nil {
		return models.DailyReport{}, fmt.Errorf("failed to get daily report: %w", err)
	}
	r.Rating = models.Rating(r.TotalTasks, r.CompletedTasks, r.LateTasks)
	return r, nil
}

// GetWeeklyStats returns per-day totals for the 7 days ending today.
func (d *DB) GetWeeklyStats(ctx context.Context, userID int64, today string) ([]models.DayStats, error) {
	query := `
        SELECT to_char(task_date, 'YYYY-MM-DD'),
               COUNT(*),
               COUNT(*) FILTER (WHERE status = 'done'),
               COUNT(*) FILTER (WHERE status = 'late')
        FROM tasks
        WHERE user_id = $1 AND task_date >= $2::date - 7
        GROUP BY task_date
        ORDER BY task_date DESC`
	rows, err := d.Pool.Query(ctx, query, userID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to get weekly stats: %w", err)
	}
	defer rows.Close()

	var stats []models.DayStats
	for rows.Next() {
		var s models.DayStats
		if err := rows.Scan(&s.TaskDate, &s.TotalTasks, &s.CompletedTasks, &s.LateTasks); err != nil {
			return nil, fmt.Errorf("failed to scan day stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (d *DB) GetOverallStats(ctx context.Context, userID int64) (models.OverallStats, error) {
	var s models.OverallStats
	query := `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status = 'done'),
               COUNT(*) FILTER (WHERE status = 'late'),
               COUNT(DISTINCT task_date)
        FROM tasks
        WHERE user_id = $1`
	err := d.Pool.QueryRow(ctx, query, userID).Scan(
		&s.TotalTasks, &s.TotalCompleted, &s.TotalLate, &s.ActiveDays,
	)
	if err != nil {
		return models.OverallStats{}, fmt.Errorf("failed to get overall stats: %w", err)
	}
	return s, nil
}
