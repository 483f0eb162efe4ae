package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestUserJSON(t *testing.T) {
	chatID := int64(987654321)
	u := User{
		ID:             7,
		Name:           "Alice",
		Email:          "alice@example.com",
		Phone:          "+84900000001",
		TelegramChatID: &chatID,
		PasswordHash:   "$2a$10$secrethash",
		CreatedAt:      time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("failed to marshal user: %v", err)
	}
	body := string(data)

	if strings.Contains(body, "secrethash") || strings.Contains(body, "password") {
		t.Errorf("password hash leaked into JSON: %s", body)
	}
	if !strings.Contains(body, `"telegram_chat_id":987654321`) {
		t.Errorf("telegram_chat_id missing from JSON: %s", body)
	}

	u.TelegramChatID = nil
	data, err = json.Marshal(u)
	if err != nil {
		t.Fatalf("failed to marshal user: %v", err)
	}
	if strings.Contains(string(data), "telegram_chat_id") {
		t.Errorf("unset telegram_chat_id should be omitted: %s", data)
	}
}
