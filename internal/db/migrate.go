package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Dates are stored as DATE and times of day as minutes since midnight in the
// clinic's wall clock. Occupancy is enforced by the store under an advisory
// lock rather than a unique index: a duplicate shares its source's slot until
// one of them is moved.
const schema = `
CREATE TABLE IF NOT EXISTS providers (
	id                     UUID PRIMARY KEY,
	name                   TEXT NOT NULL,
	specialty              TEXT NOT NULL DEFAULT '',
	daily_start_minute     INT NOT NULL CHECK (daily_start_minute BETWEEN 0 AND 1440),
	daily_end_minute       INT NOT NULL CHECK (daily_end_minute BETWEEN 0 AND 1440),
	visit_duration_minutes INT NOT NULL CHECK (visit_duration_minutes > 0),
	weekday_mask           INT NOT NULL DEFAULT 127,
	CHECK (daily_start_minute < daily_end_minute)
);

CREATE TABLE IF NOT EXISTS appointments (
	id               UUID PRIMARY KEY,
	provider_id      UUID NOT NULL REFERENCES providers(id),
	patient_name     TEXT NOT NULL,
	patient_phone    TEXT NOT NULL DEFAULT '',
	date             DATE NOT NULL,
	start_minute     INT NOT NULL CHECK (start_minute BETWEEN 0 AND 1439),
	end_minute       INT NOT NULL CHECK (end_minute <= 1440),
	duration_minutes INT NOT NULL CHECK (duration_minutes > 0),
	status           TEXT NOT NULL CHECK (status IN ('awaiting', 'confirmed', 'cancelled')),
	observation      TEXT,
	return_in_days   INT,
	send_reminder    BOOLEAN NOT NULL DEFAULT FALSE,
	reminder_sent_at TIMESTAMPTZ,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS appointments_slot_idx
	ON appointments (provider_id, date, start_minute)
	WHERE status <> 'cancelled';

CREATE INDEX IF NOT EXISTS appointments_reminder_idx
	ON appointments (date, start_minute)
	WHERE send_reminder AND reminder_sent_at IS NULL AND status <> 'cancelled';

CREATE TABLE IF NOT EXISTS event_logs (
	id             BIGSERIAL PRIMARY KEY,
	event_type     TEXT NOT NULL,
	appointment_id UUID,
	payload        JSONB,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
