package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

// PgDirectory keeps providers and their schedules in the providers table.
// Active weekdays are stored as a bitmask, bit 0 = Sunday.
type PgDirectory struct {
	pool *pgxpool.Pool
}

func NewPgDirectory(pool *pgxpool.Pool) *PgDirectory {
	return &PgDirectory{pool: pool}
}

const providerColumns = `id, name, specialty, daily_start_minute, daily_end_minute, visit_duration_minutes, weekday_mask`

func scanProvider(row pgx.Row) (*Provider, error) {
	var (
		p                    Provider
		start, end, duration int
		mask                 int
	)

	err := row.Scan(&p.ID, &p.Name, &p.Specialty, &start, &end, &duration, &mask)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, err
	}

	p.Schedule = schedule.Config{
		ProviderID:           p.ID,
		DailyStart:           schedule.TimeOfDay(start),
		DailyEnd:             schedule.TimeOfDay(end),
		VisitDurationMinutes: duration,
		ActiveWeekdays:       schedule.WeekdaysFromMask(mask),
	}
	return &p, nil
}

func (r *PgDirectory) List(ctx context.Context) ([]Provider, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+providerColumns+` FROM providers ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	defer rows.Close()

	result := []Provider{}
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgDirectory) Get(ctx context.Context, id uuid.UUID) (*Provider, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+providerColumns+` FROM providers WHERE id = $1`, id)
	return scanProvider(row)
}

func (r *PgDirectory) Save(ctx context.Context, p Provider) error {
	if err := p.Validate(); err != nil {
		return err
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO providers (id, name, specialty, daily_start_minute, daily_end_minute, visit_duration_minutes, weekday_mask)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    specialty = EXCLUDED.specialty,
		    daily_start_minute = EXCLUDED.daily_start_minute,
		    daily_end_minute = EXCLUDED.daily_end_minute,
		    visit_duration_minutes = EXCLUDED.visit_duration_minutes,
		    weekday_mask = EXCLUDED.weekday_mask
	`, p.ID, p.Name, p.Specialty, int(p.Schedule.DailyStart), int(p.Schedule.DailyEnd),
		p.Schedule.VisitDurationMinutes, p.Schedule.WeekdayMask())
	if err != nil {
		return fmt.Errorf("save provider: %w", err)
	}
	return nil
}

func (r *PgDirectory) UpdateSchedule(ctx context.Context, id uuid.UUID, cfg schedule.Config) (*Provider, error) {
	cfg.ProviderID = id
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE providers
		SET daily_start_minute = $2,
		    daily_end_minute = $3,
		    visit_duration_minutes = $4,
		    weekday_mask = $5
		WHERE id = $1
		RETURNING `+providerColumns,
		id, int(cfg.DailyStart), int(cfg.DailyEnd), cfg.VisitDurationMinutes, cfg.WeekdayMask())
	return scanProvider(row)
}

func (r *PgDirectory) ScheduleFor(ctx context.Context, id uuid.UUID) (schedule.Config, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return schedule.Config{}, err
	}
	return p.Schedule, nil
}
