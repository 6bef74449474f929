package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	alarmservice "newsroom/contexts/news-engagement/alarm-service"
	alarmpostgres "newsroom/contexts/news-engagement/alarm-service/adapters/postgres"
	alarmworkers "newsroom/contexts/news-engagement/alarm-service/application/workers"
	pollengine "newsroom/contexts/news-engagement/poll-engine"
	pollpostgres "newsroom/contexts/news-engagement/poll-engine/adapters/postgres"
	pollworkers "newsroom/contexts/news-engagement/poll-engine/application/workers"
	"newsroom/internal/platform/config"
	"newsroom/internal/platform/db"
	"newsroom/internal/platform/httpserver"
	"newsroom/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres *db.Postgres

	transitioner pollworkers.StateTransitioner
	statistics   pollworkers.StatisticsJob
	outboxRelay  pollworkers.OutboxRelay
	retention    alarmworkers.RetentionJob
	consumer     alarmworkers.PollPublishedConsumer

	transitionInterval time.Duration
	statisticsInterval time.Duration
	retentionInterval  time.Duration
	relayInterval      time.Duration

	logger *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	pollRepo := pollpostgres.NewRepository(pg.DB, logger)
	pollModule := pollengine.NewModule(pollengine.Dependencies{
		Polls:  pollRepo,
		Votes:  pollRepo,
		Stats:  pollRepo,
		Users:  pollRepo,
		Outbox: pollRepo,
		Clock:  pollpostgres.SystemClock{},
		IDGen:  pollpostgres.UUIDGenerator{},
		Logger: logger,
	})

	alarmRepo := alarmpostgres.NewRepository(pg.DB, logger)
	alarmModule := alarmservice.NewModule(alarmservice.Dependencies{
		Alarms:          alarmRepo,
		UserAlarms:      alarmRepo,
		Users:           alarmRepo,
		Bookmarks:       alarmRepo,
		Dedup:           alarmRepo,
		Clock:           alarmpostgres.SystemClock{},
		IDGen:           alarmpostgres.UUIDGenerator{},
		PageSize:        cfg.AlarmPageSize,
		RetentionWindow: cfg.AlarmRetentionWindow,
		Logger:          logger,
	})

	server := httpserver.New(pollModule, alarmModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(logger)

	pollRepo := pollpostgres.NewRepository(pg.DB, logger)
	pollModule := pollengine.NewModule(pollengine.Dependencies{
		Polls:  pollRepo,
		Votes:  pollRepo,
		Stats:  pollRepo,
		Users:  pollRepo,
		Outbox: pollRepo,
		Clock:  pollpostgres.SystemClock{},
		IDGen:  pollpostgres.UUIDGenerator{},
		Logger: logger,
	})

	alarmRepo := alarmpostgres.NewRepository(pg.DB, logger)
	alarmModule := alarmservice.NewModule(alarmservice.Dependencies{
		Alarms:           alarmRepo,
		UserAlarms:       alarmRepo,
		Users:            alarmRepo,
		Bookmarks:        alarmRepo,
		Dedup:            alarmRepo,
		Subscriber:       bus,
		Clock:            alarmpostgres.SystemClock{},
		IDGen:            alarmpostgres.UUIDGenerator{},
		PageSize:         cfg.AlarmPageSize,
		RetentionWindow:  cfg.AlarmRetentionWindow,
		ConsumerDisabled: !cfg.EnablePollPublishedConsumer,
		Logger:           logger,
	})

	return &WorkerApp{
		postgres:     pg,
		transitioner: pollModule.StateTransitioner,
		statistics:   pollModule.StatisticsJob,
		outboxRelay: pollworkers.OutboxRelay{
			Outbox:    pollRepo,
			Publisher: bus,
			Clock:     pollpostgres.SystemClock{},
			BatchSize: 100,
			Logger:    logger,
		},
		retention:          alarmModule.RetentionJob,
		consumer:           alarmModule.PollPublishedConsumer,
		transitionInterval: cfg.StateTransitionInterval,
		statisticsInterval: cfg.StatisticsInterval,
		retentionInterval:  cfg.RetentionInterval,
		relayInterval:      cfg.OutboxRelayInterval,
		logger:             logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

// Run drives every scheduled job off its own ticker. Job failures are logged
// and retried on the next tick; only consumer startup is fatal.
func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.consumer.Start(ctx); err != nil {
		return err
	}

	transitionTicker := time.NewTicker(w.transitionInterval)
	defer transitionTicker.Stop()
	statisticsTicker := time.NewTicker(w.statisticsInterval)
	defer statisticsTicker.Stop()
	retentionTicker := time.NewTicker(w.retentionInterval)
	defer retentionTicker.Stop()
	relayTicker := time.NewTicker(w.relayInterval)
	defer relayTicker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"transition_interval", w.transitionInterval.String(),
		"statistics_interval", w.statisticsInterval.String(),
		"retention_interval", w.retentionInterval.String(),
		"relay_interval", w.relayInterval.String(),
	)

	// One pass at startup so a long transition interval does not delay
	// recovery after a restart.
	w.runJob(ctx, "state_transition", w.transitioner.RunOnce)
	w.runJob(ctx, "statistics", w.statistics.RunOnce)
	w.runJob(ctx, "alarm_retention", w.retention.RunOnce)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-transitionTicker.C:
			w.runJob(ctx, "state_transition", w.transitioner.RunOnce)
		case <-statisticsTicker.C:
			w.runJob(ctx, "statistics", w.statistics.RunOnce)
		case <-retentionTicker.C:
			w.runJob(ctx, "alarm_retention", w.retention.RunOnce)
		case <-relayTicker.C:
			w.runJob(ctx, "outbox_relay", w.outboxRelay.RunOnce)
		}
	}
}

func (w *WorkerApp) runJob(ctx context.Context, name string, job func(context.Context) error) {
	if err := job(ctx); err != nil {
		w.logger.Error("worker job failed",
			"event", "bootstrap_worker_job_failed",
			"module", "internal/app/bootstrap",
			"layer", "platform",
			"job", name,
			"error", err.Error(),
		)
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
