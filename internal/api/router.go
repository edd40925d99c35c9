package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/careslot/clinic-booking/internal/booking"
	"github.com/careslot/clinic-booking/internal/schedule"
)

type RouterConfig struct {
	Bookings  *booking.Service
	Schedules *schedule.Service
	Sessions  SessionProvider
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Registry  *prometheus.Registry
	Logger    zerolog.Logger
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	if cfg.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	}

	sessions := cfg.Sessions
	if sessions == nil {
		sessions = HeaderSessionProvider{}
	}

	h := NewHandlers(cfg.Bookings, cfg.Schedules, sessions)

	r.Post("/appointments", h.CreateAppointment)
	r.Get("/appointments/{id}", h.GetAppointment)
	r.Delete("/appointments/{id}", h.CancelAppointment)
	r.Post("/appointments/{id}/status", h.UpdateStatus)
	r.Get("/schedule", h.GetSchedule)
	r.Get("/clients/{id}/reliability", h.GetReliability)

	return r
}
