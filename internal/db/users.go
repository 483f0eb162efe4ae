package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"taskmate/internal/models"
)

func (d *DB) CreateUser(ctx context.Context, name, email, phone, passwordHash string) (int64, error) {
	var id int64
	query := `
        INSERT INTO users (name, email, phone, password)
        VALUES ($1, $2, $3, $4)
        RETURNING id`
	err := d.Pool.QueryRow(ctx, query, name, email, phone, passwordHash).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

func (d *DB) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	query := `
        SELECT id, name, email, phone, password, telegram_chat_id, created_at
        FROM users
        WHERE email = $1`
	err := d.Pool.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.TelegramChatID, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

func (d *DB) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	query := `
        SELECT id, name, email, phone, password, telegram_chat_id, created_at
        FROM users
        WHERE id = $1`
	err := d.Pool.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.TelegramChatID, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return u, nil
}

// SetTelegramChatID registers (or clears) the user's Telegram chat for
// alert delivery.
func (d *DB) SetTelegramChatID(ctx context.Context, userID int64, chatID *int64) error {
	tag, err := d.Pool.Exec(ctx,
		`UPDATE users SET telegram_chat_id = $2 WHERE id = $1`, userID, chatID)
	if err != nil {
		return fmt.Errorf("failed to set telegram chat id for user %d: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
