package db

import (
	"context"
	"fmt"
)

// TryClaim inserts the (user, date) ledger row and reports whether this
// call created it. The UNIQUE constraint makes the claim atomic under
// concurrent callers: exactly one of them gets true. A row is never
// updated or deleted here; existence alone means "already notified".
func (d *DB) TryClaim(ctx context.Context, userID int64, date string) (bool, error) {
	query := `
        INSERT INTO end_of_day_reminders (user_id, reminder_date)
        VALUES ($1, $2::date)
        ON CONFLICT (user_id, reminder_date) DO NOTHING`
	tag, err := d.Pool.Exec(ctx, query, userID, date)
	if err != nil {
		return false, fmt.Errorf("failed to claim reminder for user %d on %s: %w", userID, date, err)
	}
	return tag.RowsAffected() == 1, nil
}
