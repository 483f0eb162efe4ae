package providers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"

	"taskmate/internal/models"
)

// sendTelegram sends a message via the go-telegram/bot library.
func (d *Dispatcher) sendTelegram(ctx context.Context, to models.Contact, text string) error {
	if to.TelegramChatID == nil {
		return fmt.Errorf("telegram chat_id not set for user_id=%d", to.UserID)
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limit exceeded: %w", err)
	}

	b, err := bot.New(d.cfg.Telegram.BotToken)
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}

	params := &bot.SendMessageParams{
		ChatID: *to.TelegramChatID,
		Text:   text,
	}
	if _, err := b.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send Telegram message to chat_id %d: %w", *to.TelegramChatID, err)
	}
	return nil
}
