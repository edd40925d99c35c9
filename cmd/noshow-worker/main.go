// The noshow-worker periodically marks past-dated appointments that were
// never attended (still booked or confirmed after their date) as no_show,
// which frees their slots and feeds the penalty escalation.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/careslot/clinic-booking/internal/booking"
	"github.com/careslot/clinic-booking/internal/config"
	"github.com/careslot/clinic-booking/internal/db"
	"github.com/careslot/clinic-booking/internal/settings"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "noshow-worker").Logger()
	logger.Info().Msg("noshow-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}

	logger.Info().Str("env", cfg.Env).Dur("interval", cfg.SweepInterval).Msg("running no-show sweeper")

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

	ledger := booking.NewPgLedger(pgPool)
	store := settings.NewCached(settings.NewPgStore(pgPool))
	penalties := booking.NewPenaltyManager(ledger, store, logger)

	runOnce(rootCtx, ledger, penalties, logger)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutdown signal received, stopping no-show sweeper")
			return
		case <-ticker.C:
			runOnce(rootCtx, ledger, penalties, logger)
		}
	}
}

func runOnce(ctx context.Context, ledger booking.Ledger, penalties *booking.PenaltyManager, logger zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	overdue, err := ledger.FindOverdue(runCtx, booking.Today())
	if err != nil {
		logger.Error().Err(err).Msg("find overdue appointments")
		return
	}

	swept := 0
	for _, appt := range overdue {
		_, err := ledger.Release(runCtx, appt.ID, booking.StatusNoShow)
		if err != nil {
			if errors.Is(err, booking.ErrAppointmentNotFound) || errors.Is(err, booking.ErrInvalidTransition) {
				continue
			}
			logger.Error().Err(err).Str("appointment_id", appt.ID.String()).Msg("mark no_show")
			continue
		}
		swept++

		// Best effort; a failed penalty write never blocks the sweep.
		if _, err := penalties.ApplyPenalty(runCtx, appt.ClientID, booking.PenaltyNoShow,
			"missed appointment on "+appt.Date.String()); err != nil {
			logger.Error().Err(err).Str("client_id", appt.ClientID.String()).Msg("apply no-show penalty")
		}
	}

	logger.Info().Int("candidates", len(overdue)).Int("swept", swept).Dur("took", time.Since(start)).Msg("sweep complete")
}
