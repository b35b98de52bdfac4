package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/bizledger/internal/adapter/http"
	"github.com/iho/bizledger/internal/adapter/http/handler"
	postgresRepo "github.com/iho/bizledger/internal/adapter/repository/postgres"
	"github.com/iho/bizledger/internal/infrastructure/config"
	"github.com/iho/bizledger/internal/infrastructure/eventpublisher"
	"github.com/iho/bizledger/internal/infrastructure/logger"
	"github.com/iho/bizledger/internal/infrastructure/metrics"
	"github.com/iho/bizledger/internal/infrastructure/postgres"
	"github.com/iho/bizledger/internal/infrastructure/redis"
)

const poolStatsInterval = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}

	log.Info().Msg("server stopped")
}

// run serves the ops endpoints and relays the outbox until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	checks := []handler.Check{handler.PostgresCheck(pool)}

	if cfg.ReportCacheEnabled {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL, log)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		checks = append(checks, handler.RedisCheck(redisClient))
	}

	m := metrics.New()

	relay := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: postgresRepo.NewOutboxRepository(pool),
		Publisher:  eventpublisher.NewLogPublisher(log),
		Metrics:    m,
		Logger:     log,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
	})

	server := newHTTPServer(cfg, httpAdapter.NewRouter(httpAdapter.RouterConfig{
		HealthHandler: handler.NewHealthHandler(checks...),
		Metrics:       m,
		Gatherer:      prometheus.DefaultGatherer,
		Logger:        log,
	}))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("starting ops server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go func() {
		if err := relay.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("outbox relay stopped")
		}
	}()

	go trackPoolStats(ctx, pool, m, poolStatsInterval)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("ops server failed: %w", err)
	}

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}

// trackPoolStats mirrors the pool size into the connections gauge.
func trackPoolStats(ctx context.Context, pool *pgxpool.Pool, m *metrics.Metrics, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		m.DBConnections.Set(float64(pool.Stat().TotalConns()))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
