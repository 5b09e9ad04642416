package emitters

import (
	"context"

	"dash-monitor/internal/interfaces"
	"dash-monitor/internal/models"

	"github.com/rs/zerolog"
)

// LogEmitter logs alert events and forwards to an optional wrapped
// emitter. Used on its own when no Kafka broker is configured.
type LogEmitter struct {
	WrappedEmitter interfaces.EventEmitter
	Logger         *zerolog.Logger
}

var _ interfaces.EventEmitter = (*LogEmitter)(nil)

func (l *LogEmitter) EmitEvent(ctx context.Context, event models.AlertEvent) error {
	l.Logger.Info().
		Str("subscriber", event.Subscriber).
		Str("address", event.Address).
		Str("txHash", event.TxID).
		Int64("sequence", event.Sequence).
		Str("amount", event.Amount).
		Str("provider", event.Provider).
		Bool("pending", event.Pending).
		Msg("Alert event")

	if l.WrappedEmitter != nil {
		return l.WrappedEmitter.EmitEvent(ctx, event)
	}
	return nil
}
