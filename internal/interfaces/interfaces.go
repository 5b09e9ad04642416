package interfaces

import (
	"context"

	"dash-monitor/internal/models"

	"github.com/shopspring/decimal"
)

// Provider fetches and normalizes recent transaction history for one
// address. Results are newest-first, page-limited, and re-fetched on every
// call. Transport errors, timeouts and malformed responses surface as
// providers.ErrProviderUnavailable.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, address string) ([]models.Transaction, error)
}

// PriceOracle returns the current DASH/USD rate. Best effort: any failure
// is an error and the caller degrades gracefully.
type PriceOracle interface {
	CurrentRate(ctx context.Context) (decimal.Decimal, error)
}

// Notifier delivers a formatted alert to a subscriber over an external
// channel. Failure is non-fatal to the caller.
type Notifier interface {
	Send(ctx context.Context, subscriber, message string) error
}

// EventEmitter publishes alert events for downstream consumers.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event models.AlertEvent) error
}

// Store is the durable union of the watchlist and the dedup ledger.
type Store interface {
	// Watchlist. Addresses keep insertion order per subscriber.
	AddAddress(ctx context.Context, scope models.Scope) error
	RemoveAddress(ctx context.Context, scope models.Scope) error
	Addresses(ctx context.Context, subscriber string) ([]string, error)
	Pairs(ctx context.Context) ([]models.Scope, error)

	// Dedup ledger, keyed by scope.
	SeenRecords(ctx context.Context, scope models.Scope) ([]models.SeenRecord, error)
	AppendSeen(ctx context.Context, scope models.Scope, rec models.SeenRecord) error
	TrimSeen(ctx context.Context, scope models.Scope, keep int) error
	DeleteScope(ctx context.Context, scope models.Scope) error

	Close() error
}
