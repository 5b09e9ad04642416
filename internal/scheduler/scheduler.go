package scheduler

import (
	"context"
	"time"

	"dash-monitor/internal/alert"
	"dash-monitor/internal/dedup"
	"dash-monitor/internal/interfaces"
	"dash-monitor/internal/models"
	"dash-monitor/internal/watchlist"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Scheduler drives the poll cycle: price once per cycle, then every
// (subscriber, address) pair through fetch -> dedup -> format -> notify ->
// persist. Pair failures are contained at the pair boundary; a watchlist
// read failure backs the whole loop off.
type Scheduler struct {
	watchlist   *watchlist.Service
	provider    interfaces.Provider
	oracle      interfaces.PriceOracle
	notifier    interfaces.Notifier
	emitter     interfaces.EventEmitter
	engine      *dedup.Engine
	interval    time.Duration
	backoff     time.Duration
	concurrency int
	logger      *zerolog.Logger
	onCycleDone func(time.Time)
}

type Options struct {
	Interval    time.Duration
	Backoff     time.Duration
	Concurrency int
	// OnCycleDone is invoked after every completed cycle, e.g. to feed the
	// readiness probe. Optional.
	OnCycleDone func(time.Time)
}

func New(
	wl *watchlist.Service,
	provider interfaces.Provider,
	oracle interfaces.PriceOracle,
	notifier interfaces.Notifier,
	emitter interfaces.EventEmitter,
	engine *dedup.Engine,
	logger *zerolog.Logger,
	opts Options,
) *Scheduler {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Scheduler{
		watchlist:   wl,
		provider:    provider,
		oracle:      oracle,
		notifier:    notifier,
		emitter:     emitter,
		engine:      engine,
		interval:    opts.Interval,
		backoff:     opts.Backoff,
		concurrency: opts.Concurrency,
		logger:      logger,
		onCycleDone: opts.OnCycleDone,
	}
}

// Run loops until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Int("concurrency", s.concurrency).
		Msg("Starting poll scheduler")

	for {
		sleep := s.interval
		if err := s.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				s.logger.Info().Msg("Scheduler shutting down")
				return
			}
			s.logger.Error().
				Err(err).
				Dur("backoff", s.backoff).
				Msg("Cycle failed, backing off")
			sleep = s.backoff
		}

		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Scheduler shutting down")
			return
		case <-time.After(sleep):
		}
	}
}

// RunCycle executes one full pass over all pairs. Exported so tests can
// step cycles deterministically without real time delays.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	pairs, err := s.watchlist.Snapshot(ctx)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		if s.onCycleDone != nil {
			s.onCycleDone(time.Now())
		}
		return nil
	}

	// One price lookup per cycle, shared by all pairs. Failure degrades to
	// alerts without a fiat value.
	var rate *decimal.Decimal
	if r, err := s.oracle.CurrentRate(ctx); err != nil {
		s.logger.Warn().
			Err(err).
			Msg("Price lookup failed, alerts will omit fiat value")
	} else {
		rate = &r
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, pair := range pairs {
		pair := pair
		g.Go(func() error {
			// pair failures are logged, never propagated: one address must
			// not stop monitoring of the others
			s.processPair(gctx, pair, rate)
			return nil
		})
	}
	_ = g.Wait()

	if s.onCycleDone != nil {
		s.onCycleDone(time.Now())
	}
	return nil
}

func (s *Scheduler) processPair(ctx context.Context, scope models.Scope, rate *decimal.Decimal) {
	txs, err := s.provider.Fetch(ctx, scope.Address)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("scope", scope.String()).
			Msg("Provider fetch failed, skipping pair this cycle")
		return
	}

	// Once an alert is sent its seen record must reach the store even if
	// shutdown was requested mid-pair.
	persistCtx := context.WithoutCancel(ctx)

	emitted, err := s.engine.ProcessScope(persistCtx, scope, txs, func(tx models.Transaction, seq int64) {
		s.deliver(persistCtx, scope, tx, seq, rate)
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("scope", scope.String()).
			Msg("Dedup pass aborted")
		return
	}

	if emitted > 0 {
		s.logger.Info().
			Str("scope", scope.String()).
			Int("alerts", emitted).
			Msg("Pair processed")
	}
}

func (s *Scheduler) deliver(ctx context.Context, scope models.Scope, tx models.Transaction, seq int64, rate *decimal.Decimal) {
	message := alert.Format(tx, scope.Address, seq, rate)

	if err := s.notifier.Send(ctx, scope.Subscriber, message); err != nil {
		// The transaction still gets marked seen: a missed alert beats a
		// duplicate flood on a flaky channel.
		s.logger.Error().
			Err(err).
			Str("scope", scope.String()).
			Str("txid", tx.ID).
			Msg("Notification failed")
	}

	if s.emitter != nil {
		event := models.AlertEvent{
			Subscriber: scope.Subscriber,
			Address:    scope.Address,
			TxID:       tx.ID,
			Sequence:   seq,
			Amount:     tx.Amount.StringFixed(8),
			Timestamp:  tx.Timestamp,
			Pending:    tx.Pending,
			Provider:   tx.Provider,
		}
		if err := s.emitter.EmitEvent(ctx, event); err != nil {
			s.logger.Error().
				Err(err).
				Str("txid", tx.ID).
				Msg("Event emission failed")
		}
	}
}
