package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrConflict            = errors.New("slot already has an active appointment")
)

// Store is the mutable appointment collection. Implementations enforce at
// most one active appointment per (provider, date, start) on Insert and Move;
// the first writer wins.
type Store interface {
	Insert(ctx context.Context, appt Appointment) (*Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// Update writes the appointment's own fields. Date and start are not
	// touched; use Move for that.
	Update(ctx context.Context, appt Appointment) (*Appointment, error)

	// Move places the appointment on a new slot with the given duration.
	Move(ctx context.Context, id uuid.UUID, date schedule.Date, start schedule.TimeOfDay, durationMinutes int) (*Appointment, error)

	// SetStatus writes to only while the stored status is still from, and
	// returns ErrInvalidStatusTransition otherwise.
	SetStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// Duplicate copies id into a new awaiting appointment on the same slot.
	// The copy is checked against every other appointment but its source.
	Duplicate(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Remove(ctx context.Context, id uuid.UUID) error

	// Query returns the provider's appointments with from <= date <= to,
	// ordered by (date, start).
	Query(ctx context.Context, providerID uuid.UUID, from, to schedule.Date) ([]Appointment, error)

	// Occupant returns the earliest-created active appointment on key.
	Occupant(ctx context.Context, key SlotKey) (*Appointment, error)

	// Reminder worker
	ListReminderDue(ctx context.Context, from, to time.Time) ([]Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error

	InsertEvent(ctx context.Context, ev EventLog) error
}
