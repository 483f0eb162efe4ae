package providers

import (
	"context"
	"fmt"

	"taskmate/internal/models"
)

func (d *Dispatcher) sendSMS(ctx context.Context, to models.Contact, text string) error {
	if to.Phone == "" {
		return fmt.Errorf("phone number not set for user_id=%d", to.UserID)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.smsClient.Send(to.Phone, text)
}
