package models

import "time"

// User is an account that owns tasks and receives alerts.
type User struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	TelegramChatID *int64    `json:"telegram_chat_id,omitempty"`
	PasswordHash   string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// Contact is the slice of a user the dispatcher needs to address a
// message.
type Contact struct {
	UserID         int64
	Name           string
	Phone          string
	TelegramChatID *int64
}

// AlertCandidate is a pending task joined with its owner's contact
// details, as selected by a stage eligibility query.
type AlertCandidate struct {
	TaskID     int64
	TaskName   string
	DueAt      time.Time
	AlertCount int
	// LastAlertAt is the recorded timestamp of the previous stage,
	// nil for stage 1 candidates.
	LastAlertAt *time.Time
	User        Contact
}
