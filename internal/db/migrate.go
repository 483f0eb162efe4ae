package db

import (
	"context"
	"fmt"
)

// Migrate creates the schema if it does not exist yet. Statements are
// idempotent so running them on every start is safe.
//
// The UNIQUE key on end_of_day_reminders (user_id, reminder_date) is
// load-bearing: the ledger claim relies on it for at-most-once
// end-of-day delivery.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			phone TEXT NOT NULL,
			password TEXT NOT NULL,
			telegram_chat_id BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			task_name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			task_date DATE NOT NULL,
			task_time TIME NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending', 'done', 'late')),
			alert_count SMALLINT NOT NULL DEFAULT 0,
			first_alert_sent_at TIMESTAMPTZ,
			second_alert_sent_at TIMESTAMPTZ,
			third_alert_sent_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user_date ON tasks (user_id, task_date)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_alert ON tasks (status, alert_count)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks (task_date, task_time)`,
		`CREATE TABLE IF NOT EXISTS end_of_day_reminders (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			reminder_date DATE NOT NULL,
			sent_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (user_id, reminder_date)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := d.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
