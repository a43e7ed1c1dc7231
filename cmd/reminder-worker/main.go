package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/lock"
	"github.com/hackgods/clinic-scheduling/internal/logging"
	"github.com/hackgods/clinic-scheduling/internal/provider"
)

// logNotifier writes reminders to the log. The SMS gateway hooks in here.
type logNotifier struct{}

func (logNotifier) NotifyReminder(ctx context.Context, appt appointment.Appointment) error {
	zerolog.Ctx(ctx).Info().
		Str("appointment_id", appt.ID.String()).
		Str("patient", appt.PatientName).
		Str("phone", appt.PatientPhone).
		Str("date", appt.Date.String()).
		Str("start_time", appt.StartTime.String()).
		Msg("appointment reminder")
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	logging.Init("reminder-worker", cfg.Env)

	if cfg.StoreBackend != config.BackendPostgres {
		log.Fatal().Str("store", cfg.StoreBackend).Msg("reminder-worker needs STORE_BACKEND=postgres")
	}

	log.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.WorkerInterval).
		Dur("window", cfg.ReminderWindow).
		Msg("reminder-worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgPool, err := db.Open(log.Logger.WithContext(rootCtx), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	// Reminders never take a slot, so the in-process locker is enough here.
	svc := appointment.NewService(appointment.NewPgStore(pgPool), provider.NewPgDirectory(pgPool), lock.NewLocal(), cfg)

	// Run once at startup
	runOnce(rootCtx, svc, cfg.ReminderWindow)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping reminder worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, cfg.ReminderWindow)
		}
	}
}

func runOnce(ctx context.Context, svc *appointment.Service, window time.Duration) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	sent, err := svc.SendDueReminders(runCtx, window, logNotifier{})
	if err != nil {
		log.Error().Err(err).Msg("reminder run error")
		return
	}
	log.Info().Int("sent", sent).Dur("took", time.Since(start)).Msg("reminder run complete")
}
