package providers

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"taskmate/internal/config"
	"taskmate/internal/logging"
	"taskmate/internal/models"
	"taskmate/pkg/sms"
)

type sendFunc func(ctx context.Context, to models.Contact, text string) error

// Dispatcher translates (contact, message text) into a gateway call and
// normalizes the outcome to an error value. It never panics into the
// caller's control flow.
//
// Channel selection follows the user's registration: Telegram when the
// user stored a chat id and a bot token is configured, SMS otherwise.
type Dispatcher struct {
	cfg       config.Config
	logger    *logging.Logger
	smsClient *sms.Client
	limiter   *rate.Limiter
	funcs     map[string]sendFunc
}

func New(cfg config.Config, logger *logging.Logger) (*Dispatcher, error) {
	smsClient, err := sms.NewClient(
		cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.FromNumber,
		cfg.Scheduler.SendTimeout,
	)
	if err != nil {
		return nil, fmt.Errorf("sms gateway init failed: %w", err)
	}

	d := &Dispatcher{
		cfg:       cfg,
		logger:    logger,
		smsClient: smsClient,
		limiter:   rate.NewLimiter(rate.Limit(cfg.Telegram.RatePerSecond), cfg.Telegram.RatePerSecond),
	}
	d.funcs = map[string]sendFunc{
		"sms":      d.sendSMS,
		"telegram": d.sendTelegram,
	}
	return d, nil
}

// Send delivers one message over the contact's channel. A nil return
// means the gateway accepted the message; anything else is a transient
// delivery failure the caller may retry on its next tick.
func (d *Dispatcher) Send(ctx context.Context, to models.Contact, text string) error {
	channel := "sms"
	if to.TelegramChatID != nil && d.cfg.Telegram.BotToken != "" {
		channel = "telegram"
	}
	if err := d.funcs[channel](ctx, to, text); err != nil {
		return fmt.Errorf("%s delivery to user %d failed: %w", channel, to.UserID, err)
	}
	d.logger.Debugf("Delivered %s message to user %d", channel, to.UserID)
	return nil
}
