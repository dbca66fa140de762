// Package main is the entry point for the mastery engine worker.
//
// The worker hosts the engine's event-driven core and its periodic duties:
//   - wiring the store, event bus, services and handlers together
//   - the nightly agenda sweep that queues due spaced-repetition reviews
//
// Interactive traffic (answers, sessions, tutor queries) reaches the same
// services through the platform backend embedding this module; the worker
// exists for the time-driven part.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/aprende-hub/mastery-engine/config"
	"github.com/aprende-hub/mastery-engine/internal/application/eventhandler"
	"github.com/aprende-hub/mastery-engine/internal/application/service"
	"github.com/aprende-hub/mastery-engine/internal/infrastructure/messaging"
	"github.com/aprende-hub/mastery-engine/internal/infrastructure/persistence"
	"github.com/aprende-hub/mastery-engine/internal/infrastructure/persistence/postgres"
	"github.com/aprende-hub/mastery-engine/internal/infrastructure/persistence/redis"
	"github.com/aprende-hub/mastery-engine/internal/infrastructure/scheduler"
	"github.com/aprende-hub/mastery-engine/internal/infrastructure/scheduler/jobs"
	"github.com/aprende-hub/mastery-engine/internal/infrastructure/telemetry"
	"github.com/aprende-hub/mastery-engine/pkg/logger"
	"github.com/aprende-hub/mastery-engine/pkg/timeutil"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	slog.SetDefault(log)
	log.Info("starting mastery engine worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"store", cfg.Store.Backend,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. PERSISTENCE
	// ─────────────────────────────────────────────────────────────────────────
	store, closeStore, err := setupStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to set up store: %w", err)
	}
	defer closeStore()
	log.Info("store ready", "backend", cfg.Store.Backend)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultConfig()
	busConfig.Logger = log
	bus := messaging.NewInMemoryEventBus(busConfig)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. TELEMETRY
	// ─────────────────────────────────────────────────────────────────────────
	var tracker telemetry.Tracker = telemetry.NopTracker{}
	if cfg.Observability.TelemetryEnabled {
		tracker = telemetry.NewSlogTracker(log)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. SERVICES
	// ─────────────────────────────────────────────────────────────────────────
	// The worker only drives the time-based flows; the interactive services
	// are constructed by the backend that embeds this module.
	reviews := service.NewReviewScheduler(store, bus, log)
	progression := service.NewProgressionEngine(store, bus, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	unregister := eventhandler.RegisterAll(bus, eventhandler.Dependencies{
		Progression: progression,
		Tracker:     tracker,
		Logger:      log,
	})
	defer unregister()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. NIGHTLY AGENDA SWEEP
	// ─────────────────────────────────────────────────────────────────────────
	sink := agendaLogSink{logger: log}
	sweepJob := jobs.NewSweepDueReviewsJob(reviews, sink, log)

	schedCfg := scheduler.DefaultConfig()
	schedCfg.Logger = log
	sched := scheduler.New(schedCfg)
	if err := sched.Register(sweepJob, scheduler.NewDailySchedule(0, 5, timeutil.PlatformTZ)); err != nil {
		return fmt.Errorf("failed to register sweep job: %w", err)
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	// Catch up on anything that came due while the worker was down.
	if _, err := sched.RunNow(ctx, sweepJob.Name()); err != nil {
		log.Error("startup sweep failed", "error", err)
	}

	log.Info("mastery engine worker is running")

	// ─────────────────────────────────────────────────────────────────────────
	// 9. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
		log.Info("context cancelled, shutting down")
	}

	stopDone := make(chan struct{})
	go func() {
		defer close(stopDone)
		if err := sched.Stop(); err != nil {
			log.Warn("scheduler stop", "error", err)
		}
	}()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	select {
	case <-stopDone:
	case <-shutdownCtx.Done():
		log.Warn("scheduler did not stop in time")
	}

	if m := bus.Metrics(); m != nil {
		snap := m.Snapshot()
		log.Info("event bus totals",
			"published", snap.TotalPublished,
			"handler_execs", snap.TotalHandlerExecs,
			"handler_failures", snap.HandlerFailures,
		)
	}

	log.Info("mastery engine worker stopped")
	return nil
}

// agendaLogSink is the worker's default agenda sink. The platform calendar
// integration replaces it where the module is embedded.
type agendaLogSink struct {
	logger *slog.Logger
}

func (s agendaLogSink) AddAgendaEvent(ctx context.Context, event service.AgendaEvent) error {
	s.logger.Info("agenda event",
		"id", event.ID,
		"student_id", event.StudentID,
		"subject", event.Subject,
		"topic", event.Topic,
		"date", timeutil.DateKey(event.Date),
		"title", event.Title,
	)
	return nil
}

// setupStore builds the configured persistence backend.
func setupStore(ctx context.Context, cfg *config.Config) (persistence.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		return persistence.NewMemoryStore(), func() {}, nil

	case config.StoreRedis:
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		store, err := redis.NewStore(redisCfg)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	case config.StorePostgres:
		if cfg.Postgres.URL != "" {
			store, err := postgres.NewStoreFromURL(ctx, cfg.Postgres.URL)
			if err != nil {
				return nil, nil, err
			}
			return store, store.Close, nil
		}

		pgCfg := postgres.DefaultConfig()
		pgCfg.Host = cfg.Postgres.Host
		pgCfg.Port = cfg.Postgres.Port
		pgCfg.Database = cfg.Postgres.Database
		pgCfg.User = cfg.Postgres.User
		pgCfg.Password = cfg.Postgres.Password
		pgCfg.SSLMode = cfg.Postgres.SSLMode
		pgCfg.MaxConns = cfg.Postgres.MaxConns
		pgCfg.MinConns = cfg.Postgres.MinConns

		store, err := postgres.NewStore(ctx, pgCfg)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend: %q", cfg.Store.Backend)
	}
}

// setupLogger builds the process logger from observability settings.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := cfg.Observability.LogLevel
	if cfg.App.Debug {
		level = "debug"
	}
	return logger.New(logger.Options{
		Level: level,
		JSON:  cfg.Observability.LogJSON,
	})
}
