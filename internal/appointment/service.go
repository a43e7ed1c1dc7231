package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/lock"
	"github.com/hackgods/clinic-scheduling/internal/metrics"
	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

const (
	EventAppointmentCreated     = "APPOINTMENT_CREATED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
	EventAppointmentUpdated     = "APPOINTMENT_UPDATED"
	EventAppointmentStatus      = "APPOINTMENT_STATUS_CHANGED"
	EventAppointmentDuplicated  = "APPOINTMENT_DUPLICATED"
	EventAppointmentRemoved     = "APPOINTMENT_REMOVED"
	EventReminderSent           = "APPOINTMENT_REMINDER_SENT"
)

var (
	ErrOutsideSchedule         = errors.New("slot is outside the provider's schedule")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInvalidRange            = errors.New("invalid date range")
)

// MaxRangeDays bounds the span of a Query or Grid request.
const MaxRangeDays = 92

// ScheduleSource resolves a provider's current schedule configuration.
type ScheduleSource interface {
	ScheduleFor(ctx context.Context, providerID uuid.UUID) (schedule.Config, error)
}

// Notifier delivers an appointment reminder to the patient.
type Notifier interface {
	NotifyReminder(ctx context.Context, appt Appointment) error
}

// BookOptions carries the admin override for off-hours bookings.
type BookOptions struct {
	AllowOffHours bool
}

// Booking is the result of a write that places an appointment on the grid.
// OutsideSchedule is set when an override placed it off the grid; the UI
// shows it as a warning.
type Booking struct {
	Appointment     *Appointment `json:"appointment"`
	OutsideSchedule bool         `json:"outside_schedule"`
}

type Availability struct {
	Free       bool       `json:"free"`
	InSchedule bool       `json:"in_schedule"`
	OccupiedBy *uuid.UUID `json:"occupied_by,omitempty"`
}

type GridSlot struct {
	schedule.Slot
	Appointment *Appointment `json:"appointment,omitempty"`
	Current     bool         `json:"current"`
}

// Grid is a provider's slot grid with occupancy. OffSchedule holds active
// appointments that do not sit on a slot: off-hours overrides, or bookings
// kept after the schedule changed.
type Grid struct {
	Slots       []GridSlot    `json:"slots"`
	OffSchedule []Appointment `json:"off_schedule"`
}

// Service is the booking engine: it combines the slot grid with the store
// and drives book, reschedule, cancel and duplicate.
type Service struct {
	store     Store
	schedules ScheduleSource
	locker    lock.Locker
	cfg       config.Config
	now       func() time.Time
}

func NewService(store Store, schedules ScheduleSource, locker lock.Locker, cfg config.Config) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{
		store:     store,
		schedules: schedules,
		locker:    locker,
		cfg:       cfg,
		now:       time.Now,
	}
}

// WithClock replaces the current-time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Now returns the current clinic wall-clock time as a civil instant.
func (s *Service) Now() time.Time {
	return schedule.Civil(s.now().In(s.cfg.Location))
}

func (s *Service) withProviderLock(ctx context.Context, providerID uuid.UUID, fn func(ctx context.Context) error) error {
	return s.locker.WithLock(ctx, lock.ProviderKey(providerID.String()), fn)
}

func (s *Service) inSchedule(ctx context.Context, providerID uuid.UUID, date schedule.Date, start schedule.TimeOfDay) (schedule.Config, bool, error) {
	cfg, err := s.schedules.ScheduleFor(ctx, providerID)
	if err != nil {
		return schedule.Config{}, false, fmt.Errorf("load schedule: %w", err)
	}
	ok, err := schedule.HasSlot(cfg, date, start)
	if err != nil {
		return cfg, false, err
	}
	return cfg, ok, nil
}

// IsFree reports whether the slot is on the provider's grid and unoccupied.
func (s *Service) IsFree(ctx context.Context, providerID uuid.UUID, date schedule.Date, start schedule.TimeOfDay) (Availability, error) {
	_, inGrid, err := s.inSchedule(ctx, providerID, date, start)
	if err != nil {
		return Availability{}, err
	}

	av := Availability{InSchedule: inGrid}
	occ, err := s.store.Occupant(ctx, SlotKey{ProviderID: providerID, Date: date, Start: start})
	switch {
	case errors.Is(err, ErrAppointmentNotFound):
	case err != nil:
		return Availability{}, fmt.Errorf("check occupancy: %w", err)
	default:
		av.OccupiedBy = &occ.ID
	}

	av.Free = av.InSchedule && av.OccupiedBy == nil
	return av, nil
}

// Book creates an awaiting appointment from a draft. Duration defaults to the
// provider's visit duration; a longer duration only checks the start slot.
func (s *Service) Book(ctx context.Context, d Draft, opts BookOptions) (*Booking, error) {
	if d.ProviderID == nil {
		metrics.BookingsTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: provider_id is required", ErrInvalidDraft)
	}
	cfg, err := s.schedules.ScheduleFor(ctx, *d.ProviderID)
	if err != nil {
		metrics.BookingsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load schedule: %w", err)
	}

	appt, err := d.WithDefaultDuration(cfg.VisitDurationMinutes).Build()
	if err != nil {
		metrics.BookingsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	inGrid, err := schedule.HasSlot(cfg, appt.Date, appt.StartTime)
	if err != nil {
		metrics.BookingsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if !inGrid && !opts.AllowOffHours {
		metrics.BookingsTotal.WithLabelValues("outside_schedule").Inc()
		return nil, ErrOutsideSchedule
	}

	var created *Appointment
	err = s.withProviderLock(ctx, appt.ProviderID, func(lockCtx context.Context) error {
		a, err := s.store.Insert(lockCtx, appt)
		if err != nil {
			return err
		}
		created = a
		s.logEvent(lockCtx, a.ID, EventAppointmentCreated, map[string]any{
			"provider_id":      a.ProviderID.String(),
			"date":             a.Date.String(),
			"start_time":       a.StartTime.String(),
			"outside_schedule": !inGrid,
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			metrics.BookingsTotal.WithLabelValues("conflict").Inc()
			return nil, err
		}
		metrics.BookingsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("book appointment: %w", err)
	}

	metrics.BookingsTotal.WithLabelValues("created").Inc()
	event := zerolog.Ctx(ctx).Info()
	if !inGrid {
		event = zerolog.Ctx(ctx).Warn()
	}
	event.Str("appointment_id", created.ID.String()).
		Str("provider_id", created.ProviderID.String()).
		Str("slot", created.Slot().String()).
		Bool("outside_schedule", !inGrid).
		Msg("appointment booked")

	return &Booking{Appointment: created, OutsideSchedule: !inGrid}, nil
}

// Reschedule moves an appointment to a new slot of the same provider. The
// two-step select/confirm flow lives in the UI; this is the confirmed write.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, date schedule.Date, start schedule.TimeOfDay, opts BookOptions) (*Booking, error) {
	appt, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	return s.reschedule(ctx, appt, date, start, appt.DurationMinutes, opts)
}

func (s *Service) reschedule(ctx context.Context, appt *Appointment, date schedule.Date, start schedule.TimeOfDay, duration int, opts BookOptions) (*Booking, error) {
	id := appt.ID
	if !appt.Status.Active() {
		metrics.ReschedulesTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: cancelled appointments cannot be rescheduled", ErrInvalidStatusTransition)
	}
	if start < 0 || start.Add(duration) > endOfDay {
		metrics.ReschedulesTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: appointment must end on the same day", ErrInvalidDraft)
	}

	_, inGrid, err := s.inSchedule(ctx, appt.ProviderID, date, start)
	if err != nil {
		return nil, err
	}
	if !inGrid && !opts.AllowOffHours {
		metrics.ReschedulesTotal.WithLabelValues("outside_schedule").Inc()
		return nil, ErrOutsideSchedule
	}

	var moved *Appointment
	err = s.withProviderLock(ctx, appt.ProviderID, func(lockCtx context.Context) error {
		m, err := s.store.Move(lockCtx, id, date, start, duration)
		if err != nil {
			return err
		}
		moved = m
		s.logEvent(lockCtx, id, EventAppointmentRescheduled, map[string]any{
			"from_date":  appt.Date.String(),
			"from_start": appt.StartTime.String(),
			"to_date":    date.String(),
			"to_start":   start.String(),
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			metrics.ReschedulesTotal.WithLabelValues("conflict").Inc()
			return nil, err
		}
		metrics.ReschedulesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("reschedule appointment: %w", err)
	}

	metrics.ReschedulesTotal.WithLabelValues("moved").Inc()
	zerolog.Ctx(ctx).Info().
		Str("appointment_id", id.String()).
		Str("slot", moved.Slot().String()).
		Msg("appointment rescheduled")

	return &Booking{Appointment: moved, OutsideSchedule: !inGrid}, nil
}

// SetStatus applies a status transition under the provider lock. Cancelling
// frees the slot.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	appt, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	var (
		from    Status
		updated *Appointment
	)
	err = s.withProviderLock(ctx, appt.ProviderID, func(lockCtx context.Context) error {
		cur, err := s.store.Get(lockCtx, id)
		if err != nil {
			return err
		}
		from = cur.Status
		if !CanTransition(from, to) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, from, to)
		}

		u, err := s.store.SetStatus(lockCtx, id, from, to)
		if err != nil {
			return err
		}
		updated = u
		s.logEvent(lockCtx, id, EventAppointmentStatus, map[string]any{
			"from": string(from),
			"to":   string(to),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("set status: %w", err)
	}

	metrics.StatusChangesTotal.WithLabelValues(string(to)).Inc()
	return updated, nil
}

func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.SetStatus(ctx, id, StatusConfirmed)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.SetStatus(ctx, id, StatusCancelled)
}

// Duplicate copies an appointment onto the same slot with a new id. The copy
// coexists with its source until one of them is moved.
func (s *Service) Duplicate(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	src, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	var dup *Appointment
	err = s.withProviderLock(ctx, src.ProviderID, func(lockCtx context.Context) error {
		d, err := s.store.Duplicate(lockCtx, id)
		if err != nil {
			return err
		}
		dup = d
		s.logEvent(lockCtx, d.ID, EventAppointmentDuplicated, map[string]any{
			"source_id": id.String(),
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			metrics.DuplicatesTotal.WithLabelValues("conflict").Inc()
			return nil, err
		}
		metrics.DuplicatesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("duplicate appointment: %w", err)
	}

	metrics.DuplicatesTotal.WithLabelValues("created").Inc()
	return dup, nil
}

// Edit applies an edit-dialog draft. A changed date or start goes through
// the same occupancy check as Reschedule and carries the new duration with
// it, so the stored end never passes midnight between the two writes.
func (s *Service) Edit(ctx context.Context, id uuid.UUID, d Draft, opts BookOptions) (*Booking, error) {
	appt, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	edited := *appt
	if err := d.Apply(&edited); err != nil {
		return nil, err
	}

	var outside bool
	if d.MovesSlot(*appt) {
		date, start := appt.Date, appt.StartTime
		if d.Date != nil {
			date = *d.Date
		}
		if d.StartTime != nil {
			start = *d.StartTime
		}
		moved, err := s.reschedule(ctx, appt, date, start, edited.DurationMinutes, opts)
		if err != nil {
			return nil, err
		}
		outside = moved.OutsideSchedule
	}

	updated, err := s.store.Update(ctx, edited)
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	s.logEvent(ctx, id, EventAppointmentUpdated, map[string]any{})
	return &Booking{Appointment: updated, OutsideSchedule: outside}, nil
}

// Remove hard-deletes an appointment. Cancel is the normal path; this backs
// the edit dialog's delete action.
func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove appointment: %w", err)
	}
	s.logEvent(ctx, id, EventAppointmentRemoved, map[string]any{})
	zerolog.Ctx(ctx).Info().Str("appointment_id", id.String()).Msg("appointment removed")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

func checkRange(from, to schedule.Date) error {
	if to.Before(from) {
		return fmt.Errorf("%w: %s is before %s", ErrInvalidRange, to, from)
	}
	if from.DaysUntil(to) >= MaxRangeDays {
		return fmt.Errorf("%w: %s to %s spans more than %d days", ErrInvalidRange, from, to, MaxRangeDays)
	}
	return nil
}

// Query lists a provider's appointments in [from, to], ordered by slot.
func (s *Service) Query(ctx context.Context, providerID uuid.UUID, from, to schedule.Date) ([]Appointment, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	list, err := s.store.Query(ctx, providerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query appointments: %w", err)
	}
	return list, nil
}

// Grid builds the provider's slots for [from, to] with their occupants.
func (s *Service) Grid(ctx context.Context, providerID uuid.UUID, from, to schedule.Date) (*Grid, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	cfg, err := s.schedules.ScheduleFor(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	slots, err := schedule.BuildRange(cfg, from, to)
	if err != nil {
		return nil, err
	}
	list, err := s.Query(ctx, providerID, from, to)
	if err != nil {
		return nil, err
	}

	occupants := make(map[SlotKey]*Appointment)
	for i := range list {
		a := &list[i]
		if !a.Status.Active() {
			continue
		}
		if _, seen := occupants[a.Slot()]; !seen {
			occupants[a.Slot()] = a
		}
	}

	now := s.Now()
	grid := &Grid{Slots: make([]GridSlot, 0, len(slots)), OffSchedule: []Appointment{}}
	onGrid := make(map[SlotKey]bool, len(slots))
	for _, sl := range slots {
		key := SlotKey{ProviderID: providerID, Date: sl.Date, Start: sl.Start}
		onGrid[key] = true
		grid.Slots = append(grid.Slots, GridSlot{
			Slot:        sl,
			Appointment: occupants[key],
			Current:     sl.Contains(now),
		})
	}
	for _, a := range list {
		if a.Status.Active() && !onGrid[a.Slot()] {
			grid.OffSchedule = append(grid.OffSchedule, a)
		}
	}
	return grid, nil
}

// SendDueReminders notifies patients whose appointment starts within window
// from now and marks each one so it is not sent twice.
func (s *Service) SendDueReminders(ctx context.Context, window time.Duration, notifier Notifier) (int, error) {
	from := s.Now()
	due, err := s.store.ListReminderDue(ctx, from, from.Add(window))
	if err != nil {
		return 0, fmt.Errorf("find due reminders: %w", err)
	}

	sent := 0
	for _, appt := range due {
		if err := notifier.NotifyReminder(ctx, appt); err != nil {
			metrics.RemindersSentTotal.WithLabelValues("error").Inc()
			zerolog.Ctx(ctx).Error().Err(err).Str("appointment_id", appt.ID.String()).Msg("failed to send reminder")
			continue
		}
		if err := s.store.MarkReminderSent(ctx, appt.ID, s.now()); err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			zerolog.Ctx(ctx).Error().Err(err).Str("appointment_id", appt.ID.String()).Msg("failed to mark reminder sent")
			continue
		}
		metrics.RemindersSentTotal.WithLabelValues("sent").Inc()
		s.logEvent(ctx, appt.ID, EventReminderSent, map[string]any{
			"starts_at": appt.StartsAt(),
		})
		sent++
	}

	return sent, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("event", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.store.InsertEvent(ctx, ev); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).
			Str("event", eventType).
			Str("appointment_id", appointmentID.String()).
			Msg("failed to insert event log")
	}
}
