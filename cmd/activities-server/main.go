// cmd/activities-server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mergington-activities/internal/activities"
	"mergington-activities/internal/api"
	awsclients "mergington-activities/internal/common/aws"
	"mergington-activities/internal/common/config"
	"mergington-activities/internal/common/database"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/common/metrics"
	"mergington-activities/internal/common/observability"
	"mergington-activities/internal/events"
	"mergington-activities/pkg/catalog"
)

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}
	_ = bootLog.Sync()

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting activities server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs, err := observability.New(cfg.Observability.ServiceName, cfg.Observability.TraceSampleRate)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer obs.Shutdown(context.Background())

	ctx := context.Background()

	// --- Registry ---
	registry, err := buildRegistry(cfg.Registry)
	if err != nil {
		zapLog.Fatal("registry init failed", zap.Error(err))
	}
	for name, activity := range registry.List() {
		metrics.RosterSize.WithLabelValues(name).Set(float64(len(activity.Participants)))
	}
	zapLog.Info("Registry loaded",
		zap.Int("activities", len(registry.Names())),
		zap.String("catalog", cfg.Registry.CatalogPath),
		zap.Bool("enforceCapacity", cfg.Registry.EnforceCapacity),
	)

	var (
		sinks   []events.Sink
		history api.HistoryStore
		checks  = map[string]api.ReadinessCheck{}
	)

	// --- Redis with retry ---
	if cfg.Database.Redis.Enabled {
		redis := database.NewRedis(cfg.Database.Redis)
		err = database.RetryWithBackoff(ctx, redis.Ping, 10, 2*time.Second, log, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		sinks = append(sinks, events.NewRedisPublisher(redis.Client, cfg.Events.RedisChannel))
		checks["redis"] = redis.Ping
		zapLog.Info("Redis connected successfully", zap.String("channel", cfg.Events.RedisChannel))
	}

	// --- PostgreSQL with retry ---
	if cfg.Database.Postgres.Enabled {
		var pg *database.PostgresClient
		err = database.RetryWithBackoff(ctx, func(ctx context.Context) error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := pg.Ping(ctx); err != nil {
				_ = pg.Close()
				return err
			}
			return nil
		}, 15, 2*time.Second, log, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		audit, err := events.NewAuditLog(pg.DB, cfg.Events.AuditTable)
		if err != nil {
			zapLog.Fatal("audit log init failed", zap.Error(err))
		}
		if err := audit.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("audit schema failed", zap.Error(err))
		}
		sinks = append(sinks, audit)
		history = audit
		checks["postgres"] = pg.Ping
		zapLog.Info("PostgreSQL connected successfully", zap.String("auditTable", cfg.Events.AuditTable))
	}

	// --- AWS clients ---
	if cfg.Events.SNSTopicARN != "" || cfg.Events.MailEnabled {
		awsCfg, err := awsclients.LoadConfig(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config load failed", zap.Error(err))
		}
		if cfg.Events.SNSTopicARN != "" {
			sinks = append(sinks, events.NewSNSPublisher(awsclients.NewSNSClient(awsCfg), cfg.Events.SNSTopicARN))
		}
		if cfg.Events.MailEnabled {
			sinks = append(sinks, events.NewMailer(awsclients.NewSESClient(awsCfg), cfg.Integrations.AWS.SES.FromEmail))
		}
		zapLog.Info("AWS clients initialized", zap.String("region", cfg.Integrations.AWS.Region))
	}

	dispatcher := events.NewDispatcher(config.GetDuration(cfg.Events.Timeout), log, sinks...)
	zapLog.Info("Event sinks configured", zap.Strings("sinks", dispatcher.Sinks()))

	server := api.NewServer(api.Options{
		Registry:      registry,
		Dispatcher:    dispatcher,
		History:       history,
		Observability: obs,
		Logger:        log,
		Checks:        checks,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Routes(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zapLog.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-serverErr:
		zapLog.Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Activities server stopped gracefully")
}

// buildRegistry seeds from the catalog file when one is configured.
func buildRegistry(cfg config.RegistryConfig) (*activities.Registry, error) {
	opts := activities.Options{EnforceCapacity: cfg.EnforceCapacity}
	if cfg.CatalogPath == "" {
		return activities.New(activities.DefaultSeed(), opts)
	}

	cat, err := catalog.LoadValidated(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	return activities.New(cat.ToActivities(), opts)
}
