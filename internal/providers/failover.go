package providers

import (
	"context"
	"fmt"

	"dash-monitor/internal/interfaces"
	"dash-monitor/internal/models"

	"github.com/rs/zerolog"
)

// Failover tries each configured provider in order and returns the first
// successful page. Dedup downstream is keyed by transaction id, so cycles
// served by different providers cannot double-alert.
type Failover struct {
	providers []interfaces.Provider
	logger    *zerolog.Logger
}

var _ interfaces.Provider = (*Failover)(nil)

func NewFailover(logger *zerolog.Logger, providers ...interfaces.Provider) *Failover {
	return &Failover{providers: providers, logger: logger}
}

func (f *Failover) Name() string {
	return "failover"
}

func (f *Failover) Fetch(ctx context.Context, address string) ([]models.Transaction, error) {
	var lastErr error
	for _, p := range f.providers {
		txs, err := p.Fetch(ctx, address)
		if err == nil {
			return txs, nil
		}
		lastErr = err
		f.logger.Warn().
			Err(err).
			Str("provider", p.Name()).
			Str("address", address).
			Msg("Provider failed, trying next")
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no providers configured", ErrProviderUnavailable)
	}
	return nil, lastErr
}
