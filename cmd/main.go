package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"dash-monitor/internal/config"
	"dash-monitor/internal/database"
	"dash-monitor/internal/dedup"
	"dash-monitor/internal/emitters"
	"dash-monitor/internal/health"
	"dash-monitor/internal/interfaces"
	"dash-monitor/internal/logger"
	"dash-monitor/internal/notifier"
	"dash-monitor/internal/price"
	"dash-monitor/internal/providers"
	"dash-monitor/internal/scheduler"
	"dash-monitor/internal/watchlist"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			logger.GetLogger().Error().Interface("panic", r).Msg("Application panicked, recovering")
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger().Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.LogLevel)
	log := logger.GetLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store := openStore(cfg)
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close store")
		}
	}()

	wl := watchlist.NewService(store, log)
	engine := dedup.NewEngine(store, log)

	blockCypher := providers.NewBlockCypherProvider(
		providers.NewClient(cfg.Providers.BlockCypherEndpoint, cfg.Providers.ApiKey,
			cfg.Providers.RateLimit, cfg.MaxRetries, cfg.RetryDelay, cfg.HTTP.Timeout, log),
		cfg.Providers.PageSize,
	)
	insight := providers.NewInsightProvider(
		providers.NewClient(cfg.Providers.InsightEndpoint, "",
			cfg.Providers.RateLimit, cfg.MaxRetries, cfg.RetryDelay, cfg.HTTP.Timeout, log),
		cfg.Providers.PageSize,
	)
	provider := providers.NewFailover(log, blockCypher, insight)

	oracle := price.NewCoinGeckoOracle(cfg.Price.Endpoint, cfg.HTTP.Timeout, log)

	tg, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Telegram notifier")
	}

	var emitter interfaces.EventEmitter = &emitters.LogEmitter{Logger: log}
	if cfg.Kafka.BrokerAddress != "" {
		kafkaEmitter := emitters.NewKafkaEmitter(cfg.Kafka.BrokerAddress, cfg.Kafka.Topic, log)
		defer func() {
			if err := kafkaEmitter.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close Kafka emitter")
			}
		}()
		emitter = &emitters.LogEmitter{WrappedEmitter: kafkaEmitter, Logger: log}
	}

	tracker := health.NewTracker(3 * cfg.Poll.Interval)
	go func() {
		if err := http.ListenAndServe(cfg.HealthAddr, tracker.Handler()); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("Health server stopped")
		}
	}()

	sched := scheduler.New(wl, provider, oracle, tg, emitter, engine, log, scheduler.Options{
		Interval:    cfg.Poll.Interval,
		Backoff:     cfg.Poll.ErrorBackoff,
		Concurrency: cfg.Poll.Concurrency,
		OnCycleDone: tracker.CycleCompleted,
	})

	sched.Run(ctx)
}

func openStore(cfg *config.Config) interfaces.Store {
	log := logger.GetLogger()

	switch cfg.Store.Backend {
	case "postgres":
		db, err := database.Open(cfg.Store.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open database")
		}
		if err := database.RunMigrations(db, cfg.Store.Database); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
		return database.NewPostgresStore(db)
	case "bolt":
		store, err := database.NewBoltStore(cfg.Store.BoltPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open bolt store")
		}
		return store
	case "memory":
		log.Warn().Msg("Using in-memory store, state will not survive restart")
		return database.NewMemoryStore()
	default:
		log.Fatal().Str("backend", cfg.Store.Backend).Msg("Unknown store backend")
		return nil
	}
}
