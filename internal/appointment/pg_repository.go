package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

// PgStore keeps appointments in Postgres. The occupancy check and the write
// share one transaction that holds an advisory lock on the slot key, so two
// api-server processes cannot both pass the check.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const appointmentColumns = `id, provider_id, patient_name, patient_phone, date, start_minute, end_minute,
	duration_minutes, status, observation, return_in_days, send_reminder, reminder_sent_at, created_at, updated_at`

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a          Appointment
		date       time.Time
		start, end int
		status     string
	)

	err := row.Scan(
		&a.ID,
		&a.ProviderID,
		&a.PatientName,
		&a.PatientPhone,
		&date,
		&start,
		&end,
		&a.DurationMinutes,
		&status,
		&a.Observation,
		&a.ReturnInDays,
		&a.SendReminder,
		&a.ReminderSentAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Date = schedule.DateOf(date)
	a.StartTime = schedule.TimeOfDay(start)
	a.EndTime = schedule.TimeOfDay(end)
	a.Status = Status(status)
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	result := []Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// lockSlot serialises writers on key until tx ends.
func lockSlot(ctx context.Context, tx pgx.Tx, key SlotKey) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key.String()); err != nil {
		return fmt.Errorf("lock slot %s: %w", key, err)
	}
	return nil
}

func occupied(ctx context.Context, q pgx.Tx, key SlotKey, exclude uuid.UUID) (bool, error) {
	var taken bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE provider_id = $1
			  AND date = $2
			  AND start_minute = $3
			  AND status <> 'cancelled'
			  AND id <> $4
		)
	`, key.ProviderID, key.Date.Midnight(), int(key.Start), exclude).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check slot occupancy: %w", err)
	}
	return taken, nil
}

func (r *PgStore) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Interface methods

func (r *PgStore) Insert(ctx context.Context, appt Appointment) (*Appointment, error) {
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	if appt.Status == "" {
		appt.Status = StatusAwaiting
	}

	var created *Appointment
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if appt.Status.Active() {
			if err := lockSlot(ctx, tx, appt.Slot()); err != nil {
				return err
			}
			taken, err := occupied(ctx, tx, appt.Slot(), uuid.Nil)
			if err != nil {
				return err
			}
			if taken {
				return ErrConflict
			}
		}

		row := tx.QueryRow(ctx, `
			INSERT INTO appointments (id, provider_id, patient_name, patient_phone, date, start_minute, end_minute,
				duration_minutes, status, observation, return_in_days, send_reminder, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())
			RETURNING `+appointmentColumns,
			appt.ID, appt.ProviderID, appt.PatientName, appt.PatientPhone, appt.Date.Midnight(),
			int(appt.StartTime), int(appt.StartTime.Add(appt.DurationMinutes)), appt.DurationMinutes,
			string(appt.Status), appt.Observation, appt.ReturnInDays, appt.SendReminder)

		a, err := scanAppointment(row)
		if err != nil {
			return fmt.Errorf("insert appointment: %w", err)
		}
		created = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *PgStore) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

func (r *PgStore) Update(ctx context.Context, appt Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET patient_name = $2,
		    patient_phone = $3,
		    duration_minutes = $4,
		    end_minute = start_minute + $4,
		    observation = $5,
		    return_in_days = $6,
		    send_reminder = $7,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns,
		appt.ID, appt.PatientName, appt.PatientPhone, appt.DurationMinutes,
		appt.Observation, appt.ReturnInDays, appt.SendReminder)
	return scanAppointment(row)
}

func (r *PgStore) Move(ctx context.Context, id uuid.UUID, date schedule.Date, start schedule.TimeOfDay, durationMinutes int) (*Appointment, error) {
	var moved *Appointment
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		cur, err := scanAppointment(tx.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}

		dest := SlotKey{ProviderID: cur.ProviderID, Date: date, Start: start}
		if cur.Status.Active() {
			if err := lockSlot(ctx, tx, dest); err != nil {
				return err
			}
			taken, err := occupied(ctx, tx, dest, id)
			if err != nil {
				return err
			}
			if taken {
				return ErrConflict
			}
		}

		moved, err = scanAppointment(tx.QueryRow(ctx, `
			UPDATE appointments
			SET date = $2,
			    start_minute = $3,
			    duration_minutes = $4,
			    end_minute = $3 + $4,
			    reminder_sent_at = NULL,
			    updated_at = now()
			WHERE id = $1
			RETURNING `+appointmentColumns, id, date.Midnight(), int(start), durationMinutes))
		if err != nil {
			return fmt.Errorf("move appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

func (r *PgStore) SetStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	var updated *Appointment
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var current string
		err := tx.QueryRow(ctx, `SELECT status FROM appointments WHERE id = $1 FOR UPDATE`, id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAppointmentNotFound
		}
		if err != nil {
			return fmt.Errorf("load status: %w", err)
		}
		if Status(current) != from {
			return fmt.Errorf("%w: status is %s, not %s", ErrInvalidStatusTransition, current, from)
		}

		updated, err = scanAppointment(tx.QueryRow(ctx, `
			UPDATE appointments
			SET status = $2,
			    updated_at = now()
			WHERE id = $1 AND status = $3
			RETURNING `+appointmentColumns, id, string(to), string(from)))
		if err != nil {
			return fmt.Errorf("set status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *PgStore) Duplicate(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var dup *Appointment
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		src, err := scanAppointment(tx.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
		if err != nil {
			return err
		}

		if err := lockSlot(ctx, tx, src.Slot()); err != nil {
			return err
		}
		taken, err := occupied(ctx, tx, src.Slot(), src.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrConflict
		}

		dup, err = scanAppointment(tx.QueryRow(ctx, `
			INSERT INTO appointments (id, provider_id, patient_name, patient_phone, date, start_minute, end_minute,
				duration_minutes, status, observation, return_in_days, send_reminder, created_at, updated_at)
			SELECT $2, provider_id, patient_name, patient_phone, date, start_minute, end_minute,
				duration_minutes, 'awaiting', observation, return_in_days, send_reminder, now(), now()
			FROM appointments
			WHERE id = $1
			RETURNING `+appointmentColumns, src.ID, uuid.New()))
		if err != nil {
			return fmt.Errorf("duplicate appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dup, nil
}

func (r *PgStore) Remove(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgStore) Query(ctx context.Context, providerID uuid.UUID, from, to schedule.Date) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE provider_id = $1
		  AND date BETWEEN $2 AND $3
		ORDER BY date, start_minute, created_at, id
	`, providerID, from.Midnight(), to.Midnight())
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	return collectAppointments(rows)
}

func (r *PgStore) Occupant(ctx context.Context, key SlotKey) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE provider_id = $1
		  AND date = $2
		  AND start_minute = $3
		  AND status <> 'cancelled'
		ORDER BY created_at, id::text
		LIMIT 1
	`, key.ProviderID, key.Date.Midnight(), int(key.Start))
	return scanAppointment(row)
}

func (r *PgStore) ListReminderDue(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status <> 'cancelled'
		  AND send_reminder
		  AND reminder_sent_at IS NULL
		  AND date + make_interval(mins => start_minute) >= $1::timestamp
		  AND date + make_interval(mins => start_minute) < $2::timestamp
		ORDER BY date, start_minute
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list reminders due: %w", err)
	}
	return collectAppointments(rows)
}

func (r *PgStore) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE appointments SET reminder_sent_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgStore) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
