package notifier

import (
	"context"
	"errors"
	"fmt"

	"dash-monitor/internal/interfaces"

	"github.com/go-telegram/bot"
	"github.com/rs/zerolog"
)

var (
	// ErrChannelUnavailable covers transport failures talking to the Bot API.
	ErrChannelUnavailable = errors.New("notification channel unavailable")
	// ErrRateLimited means Telegram asked us to back off; the alert is not
	// re-sent (the transaction is already marked seen).
	ErrRateLimited = errors.New("notifier rate limited")
	// ErrSubscriberUnreachable means the subscriber blocked the bot or the
	// chat no longer exists.
	ErrSubscriberUnreachable = errors.New("subscriber unreachable")
)

// TelegramNotifier delivers alerts over the Telegram Bot API. The
// subscriber identifier is the chat id.
type TelegramNotifier struct {
	bot    *bot.Bot
	logger *zerolog.Logger
}

var _ interfaces.Notifier = (*TelegramNotifier)(nil)

func NewTelegramNotifier(token string, logger *zerolog.Logger) (*TelegramNotifier, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: b, logger: logger}, nil
}

func (t *TelegramNotifier) Send(ctx context.Context, subscriber, message string) error {
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: subscriber,
		Text:   message,
	})
	if err == nil {
		t.logger.Debug().
			Str("subscriber", subscriber).
			Msg("Alert delivered")
		return nil
	}

	switch {
	case bot.IsTooManyRequestsError(err):
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case errors.Is(err, bot.ErrorForbidden), errors.Is(err, bot.ErrorBadRequest):
		return fmt.Errorf("%w: %v", ErrSubscriberUnreachable, err)
	default:
		return fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}
}
