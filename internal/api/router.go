package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/provider"
)

type RouterConfig struct {
	Service   *appointment.Service
	Providers provider.Directory
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/providers", func(r chi.Router) {
		r.Get("/", listProvidersHandler(cfg.Providers))
		r.Post("/", createProviderHandler(cfg.Providers))
		r.Get("/{id}", getProviderHandler(cfg.Providers))
		r.Put("/{id}/schedule", updateScheduleHandler(cfg.Providers))
		r.Get("/{id}/slots", slotsHandler(cfg.Service))
		r.Get("/{id}/availability", availabilityHandler(cfg.Service))
		r.Get("/{id}/appointments", providerAppointmentsHandler(cfg.Service))
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", createAppointmentHandler(cfg.Service))
		r.Get("/{id}", getAppointmentHandler(cfg.Service))
		r.Patch("/{id}", editAppointmentHandler(cfg.Service))
		r.Delete("/{id}", removeAppointmentHandler(cfg.Service))
		r.Post("/{id}/reschedule", rescheduleAppointmentHandler(cfg.Service))
		r.Post("/{id}/confirm", setStatusHandler(cfg.Service, appointment.StatusConfirmed))
		r.Post("/{id}/cancel", setStatusHandler(cfg.Service, appointment.StatusCancelled))
		r.Post("/{id}/duplicate", duplicateAppointmentHandler(cfg.Service))
	})

	r.Post("/recurring/occurrences", recurringOccurrencesHandler())

	return r
}
