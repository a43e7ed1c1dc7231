package main

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/db"
	"github.com/hackgods/clinic-scheduling/internal/logging"
	"github.com/hackgods/clinic-scheduling/internal/provider"
	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var weekdaySets = [][]time.Weekday{
	{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
	{time.Monday, time.Wednesday, time.Friday},
	{time.Tuesday, time.Thursday, time.Saturday},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	logging.Init("seed", cfg.Env)
	if cfg.StoreBackend != config.BackendPostgres {
		log.Fatal().Msg("seed needs STORE_BACKEND=postgres")
	}

	log.Info().Msg("seed starting")

	// Seeding always needs the tables, whatever DB_AUTO_MIGRATE says.
	cfg.AutoMigrate = true
	pool, err := db.Open(log.Logger.WithContext(context.Background()), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres setup error")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	dir := provider.NewPgDirectory(pool)
	store := appointment.NewPgStore(pool)

	providers, err := seedProviders(context.Background(), dir, getInt("SEED_PROVIDERS", 20))
	if err != nil {
		log.Fatal().Err(err).Msg("seed providers")
	}

	today := schedule.DateOf(time.Now().In(cfg.Location))
	days := getInt("SEED_DAYS", 14)
	fill := float64(getInt("SEED_FILL_PERCENT", 40)) / 100
	if err := seedAppointments(context.Background(), store, providers, today, days, fill); err != nil {
		log.Fatal().Err(err).Msg("seed appointments")
	}

	log.Info().Msg("seed complete")
}

func seedProviders(ctx context.Context, dir provider.Directory, count int) ([]provider.Provider, error) {
	log.Info().Int("count", count).Msg("seeding providers")

	out := make([]provider.Provider, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		start := schedule.Clock(gofakeit.Number(7, 10), 0)
		cfg, err := schedule.FromVisitsPerHour(
			id,
			start,
			start.Add(60*gofakeit.Number(4, 10)),
			[]int{1, 2, 3, 4}[gofakeit.Number(0, 3)],
			weekdaySets[gofakeit.Number(0, len(weekdaySets)-1)]...,
		)
		if err != nil {
			return nil, err
		}

		p := provider.Provider{
			ID:        id,
			Name:      "Dr. " + gofakeit.Name(),
			Specialty: specialties[gofakeit.Number(0, len(specialties)-1)],
			Schedule:  cfg,
		}
		if err := dir.Save(ctx, p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	log.Info().Msg("providers seeded")
	return out, nil
}

func seedAppointments(ctx context.Context, store appointment.Store, providers []provider.Provider, from schedule.Date, days int, fill float64) error {
	booked := 0
	for _, p := range providers {
		slots, err := schedule.BuildRange(p.Schedule, from, from.AddDays(days-1))
		if err != nil {
			return err
		}

		for _, s := range slots {
			if gofakeit.Float64Range(0, 1) >= fill {
				continue
			}
			_, err := store.Insert(ctx, appointment.Appointment{
				ProviderID:      p.ID,
				PatientName:     gofakeit.Name(),
				PatientPhone:    gofakeit.Phone(),
				Date:            s.Date,
				StartTime:       s.Start,
				DurationMinutes: p.Schedule.VisitDurationMinutes,
				Status:          appointment.StatusAwaiting,
				SendReminder:    gofakeit.Bool(),
			})
			if errors.Is(err, appointment.ErrConflict) {
				continue
			}
			if err != nil {
				return err
			}
			booked++
		}

		log.Info().Str("provider", p.Name).Int("slots", len(slots)).Msg("provider appointments seeded")
	}

	log.Info().Int("booked", booked).Msg("appointments seeded")
	return nil
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
