package models

import (
	"fmt"
	"time"
)

// Task lifecycle statuses. A task leaves pending exactly once, at the
// moment its owner marks it done.
const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusLate    = "late"
)

// MaxAlerts is the number of escalation stages. A completion after the
// final stage has fired counts as late.
const MaxAlerts = 3

// Task is a scheduled user task together with its escalation state.
type Task struct {
	ID                int64      `json:"id"`
	UserID            int64      `json:"user_id"`
	TaskName          string     `json:"task_name"`
	Description       string     `json:"description"`
	TaskDate          string     `json:"task_date"` // YYYY-MM-DD
	TaskTime          string     `json:"task_time"` // HH:MM:SS
	Status            string     `json:"status"`
	AlertCount        int        `json:"alert_count"`
	FirstAlertSentAt  *time.Time `json:"first_alert_sent_at,omitempty"`
	SecondAlertSentAt *time.Time `json:"second_alert_sent_at,omitempty"`
	ThirdAlertSentAt  *time.Time `json:"third_alert_sent_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`

	// IsOverdue is computed per response and never persisted. The stored
	// status only moves to late at completion time.
	IsOverdue bool `json:"is_overdue"`
}

// TaskCreate is the input structure for scheduling a new task.
type TaskCreate struct {
	TaskName    string `json:"task_name" binding:"required"`
	Description string `json:"description"`
	TaskDate    string `json:"task_date" binding:"required"`
	TaskTime    string `json:"task_time" binding:"required"`
}

// TaskUpdate is the input structure for editing task fields. Status is
// deliberately absent: the only way out of pending is the completion
// endpoint.
type TaskUpdate struct {
	TaskName    *string `json:"task_name"`
	Description *string `json:"description"`
	TaskDate    *string `json:"task_date"`
	TaskTime    *string `json:"task_time"`
}

// FinalStatus derives the terminal status for a completion happening
// while the task carries the given alert counter.
func FinalStatus(alertCount int) string {
	if alertCount >= MaxAlerts {
		return StatusLate
	}
	return StatusDone
}

// DueAt combines the task's date and time into an instant in loc.
func (t Task) DueAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04:05", t.TaskDate+" "+t.TaskTime, loc)
}

// Overdue reports whether a pending task should be displayed as overdue:
// its due instant plus the grace window has passed. Advisory only.
func (t Task) Overdue(now time.Time, grace time.Duration) bool {
	if t.Status != StatusPending {
		return false
	}
	due, err := t.DueAt(now.Location())
	if err != nil {
		return false
	}
	return now.After(due.Add(grace))
}

// NormalizeClock validates a time-of-day string and normalizes it to
// HH:MM:SS. Only zero-padded "15:04" and "15:04:05" forms are accepted;
// time.Parse alone is too lenient and would take one-digit hours.
func NormalizeClock(s string) (string, error) {
	var layout string
	switch len(s) {
	case len("15:04"):
		layout = "15:04"
	case len("15:04:05"):
		layout = "15:04:05"
	default:
		return "", fmt.Errorf("invalid time of day %q, expected HH:MM or HH:MM:SS", s)
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return "", err
	}
	return t.Format("15:04:05"), nil
}

// NormalizeDate validates a YYYY-MM-DD date string.
func NormalizeDate(s string) (string, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02"), nil
}
