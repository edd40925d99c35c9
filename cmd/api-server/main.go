package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/careslot/clinic-booking/internal/api"
	"github.com/careslot/clinic-booking/internal/booking"
	"github.com/careslot/clinic-booking/internal/config"
	"github.com/careslot/clinic-booking/internal/db"
	"github.com/careslot/clinic-booking/internal/notify"
	"github.com/careslot/clinic-booking/internal/observability/metrics"
	redisclient "github.com/careslot/clinic-booking/internal/redis"
	"github.com/careslot/clinic-booking/internal/schedule"
	"github.com/careslot/clinic-booking/internal/settings"
)

const version = "1.0.0"

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "api-server").Logger()
	logger.Info().Msg("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}

	logger.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("configuration loaded")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection error")
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing redis")
			}
		}()
		logger.Info().Msg("connected to Redis")
	} else {
		logger.Info().Msg("redis not configured, schedule cache disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	bookingMetrics := metrics.NewBookingMetrics(registry)

	ledger := booking.NewPgLedger(pgPool)
	settingsStore := settings.NewCached(settings.NewPgStore(pgPool))

	scorer := booking.NewScorer(ledger, settingsStore)
	penalties := booking.NewPenaltyManager(ledger, settingsStore, logger)
	engine := booking.NewPolicyEngine(ledger, scorer, penalties, settingsStore)

	var cache *schedule.Cache
	if rdb != nil {
		cache = schedule.NewCache(rdb, cfg.ScheduleCacheTTL)
	}
	schedules := schedule.NewService(ledger, cache, bookingMetrics)

	sender := notify.NewLogSender(logger)
	bookings := booking.NewService(ledger, engine, scorer, penalties, sender, cache, bookingMetrics, logger)

	router := api.NewRouter(api.RouterConfig{
		Bookings:  bookings,
		Schedules: schedules,
		PgPool:    pgPool,
		Redis:     rdb,
		Registry:  registry,
		Logger:    logger,
		Env:       cfg.Env,
		Version:   version,
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	logger.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
