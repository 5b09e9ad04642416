package dedup

import (
	"context"
	"fmt"

	"dash-monitor/internal/interfaces"
	"dash-monitor/internal/models"

	"github.com/rs/zerolog"
)

// RetentionLimit is the number of seen records kept per scope. Only
// already-alerted history is ever evicted.
const RetentionLimit = 50

// EmitFunc delivers one newly sequenced transaction. Delivery failures are
// the callback's problem: the engine persists the seen record regardless,
// preventing duplicate attempts on later cycles at the cost of a possibly
// missed alert on a flaky channel.
type EmitFunc func(tx models.Transaction, sequence int64)

// Engine assigns per-scope sequence numbers to newly observed transactions
// and records them durably, one at a time, before moving on. A crash
// between emit and persist can duplicate at most the single in-flight
// transaction, never a whole page.
type Engine struct {
	store  interfaces.Store
	logger *zerolog.Logger
}

func NewEngine(store interfaces.Store, logger *zerolog.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

// ProcessScope runs one dedup pass for a scope over a newest-first
// candidate page. It returns the number of transactions emitted. An error
// means persistence failed mid-scope; unpersisted candidates were not
// marked seen and will be re-examined next cycle.
func (e *Engine) ProcessScope(ctx context.Context, scope models.Scope, candidates []models.Transaction, emit EmitFunc) (int, error) {
	records, err := e.store.SeenRecords(ctx, scope)
	if err != nil {
		return 0, fmt.Errorf("loading seen records for %s: %w", scope, err)
	}

	seen := make(map[string]struct{}, len(records))
	var nextSeq int64 = 1
	for _, rec := range records {
		seen[rec.TxID] = struct{}{}
		if rec.Sequence >= nextSeq {
			nextSeq = rec.Sequence + 1
		}
	}

	emitted := 0

	// Providers return newest-first; walk oldest-first so sequence numbers
	// follow ledger-confirmation order.
	for i := len(candidates) - 1; i >= 0; i-- {
		tx := candidates[i]

		if tx.Amount.Sign() <= 0 {
			continue
		}
		if _, ok := seen[tx.ID]; ok {
			continue
		}

		seq := nextSeq
		nextSeq++

		emit(tx, seq)
		emitted++

		rec := models.SeenRecord{TxID: tx.ID, Sequence: seq}
		if err := e.persistWithRetry(ctx, scope, rec); err != nil {
			// The alert for this transaction is already out; aborting here
			// keeps it first in line to be re-persisted next cycle rather
			// than advancing past it and losing the dedup state.
			return emitted, fmt.Errorf("persisting seen record %s seq %d for %s: %w", tx.ID, seq, scope, err)
		}
		seen[tx.ID] = struct{}{}
	}

	if err := e.store.TrimSeen(ctx, scope, RetentionLimit); err != nil {
		return emitted, fmt.Errorf("trimming seen records for %s: %w", scope, err)
	}

	return emitted, nil
}

func (e *Engine) persistWithRetry(ctx context.Context, scope models.Scope, rec models.SeenRecord) error {
	err := e.store.AppendSeen(ctx, scope, rec)
	if err == nil {
		return nil
	}

	e.logger.Warn().
		Err(err).
		Str("scope", scope.String()).
		Str("txid", rec.TxID).
		Msg("Seen record persist failed, retrying once")

	return e.store.AppendSeen(ctx, scope, rec)
}
