package appointment

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

// MemoryStore keeps appointments in a map. It is meant to be owned by one
// session or request scope and handed to a Service; it is not a singleton.
type MemoryStore struct {
	mu           sync.RWMutex
	appointments map[uuid.UUID]Appointment
	events       []EventLog
	now          func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		appointments: make(map[uuid.UUID]Appointment),
		now:          time.Now,
	}
}

// occupant must be called with mu held. When a duplicate shares its
// source's slot, the earliest-created one is returned.
func (s *MemoryStore) occupant(key SlotKey, exclude ...uuid.UUID) (Appointment, bool) {
	var (
		found Appointment
		ok    bool
	)
	for _, a := range s.appointments {
		if !a.Status.Active() || a.Slot() != key || slices.Contains(exclude, a.ID) {
			continue
		}
		if !ok || createdBefore(a, found) {
			found, ok = a, true
		}
	}
	return found, ok
}

func createdBefore(a, b Appointment) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

func (s *MemoryStore) Insert(ctx context.Context, appt Appointment) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if appt.Status.Active() {
		if _, taken := s.occupant(appt.Slot()); taken {
			return nil, ErrConflict
		}
	}

	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	if appt.Status == "" {
		appt.Status = StatusAwaiting
	}
	now := s.now()
	appt.EndTime = appt.StartTime.Add(appt.DurationMinutes)
	appt.CreatedAt = now
	appt.UpdatedAt = now

	s.appointments[appt.ID] = appt.clone()
	out := appt.clone()
	return &out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	out := a.clone()
	return &out, nil
}

func (s *MemoryStore) Update(ctx context.Context, appt Appointment) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.appointments[appt.ID]
	if !ok {
		return nil, ErrAppointmentNotFound
	}

	cur.PatientName = appt.PatientName
	cur.PatientPhone = appt.PatientPhone
	cur.DurationMinutes = appt.DurationMinutes
	cur.EndTime = cur.StartTime.Add(appt.DurationMinutes)
	cur.Observation = appt.Observation
	cur.ReturnInDays = appt.ReturnInDays
	cur.SendReminder = appt.SendReminder
	cur.UpdatedAt = s.now()

	s.appointments[cur.ID] = cur.clone()
	out := cur.clone()
	return &out, nil
}

func (s *MemoryStore) Move(ctx context.Context, id uuid.UUID, date schedule.Date, start schedule.TimeOfDay, durationMinutes int) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}

	dest := SlotKey{ProviderID: cur.ProviderID, Date: date, Start: start}
	if cur.Status.Active() {
		if _, taken := s.occupant(dest, id); taken {
			return nil, ErrConflict
		}
	}

	cur.Date = date
	cur.StartTime = start
	cur.DurationMinutes = durationMinutes
	cur.EndTime = start.Add(durationMinutes)
	cur.ReminderSentAt = nil
	cur.UpdatedAt = s.now()

	s.appointments[id] = cur.clone()
	out := cur.clone()
	return &out, nil
}

func (s *MemoryStore) SetStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if cur.Status != from {
		return nil, fmt.Errorf("%w: status is %s, not %s", ErrInvalidStatusTransition, cur.Status, from)
	}
	cur.Status = to
	cur.UpdatedAt = s.now()

	s.appointments[id] = cur.clone()
	out := cur.clone()
	return &out, nil
}

func (s *MemoryStore) Duplicate(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if _, taken := s.occupant(src.Slot(), src.ID); taken {
		return nil, ErrConflict
	}

	now := s.now()
	dup := src.clone()
	dup.ID = uuid.New()
	dup.Status = StatusAwaiting
	dup.ReminderSentAt = nil
	dup.CreatedAt = now
	dup.UpdatedAt = now

	s.appointments[dup.ID] = dup.clone()
	return &dup, nil
}

func (s *MemoryStore) Remove(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	delete(s.appointments, id)
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, providerID uuid.UUID, from, to schedule.Date) ([]Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []Appointment{}
	for _, a := range s.appointments {
		if a.ProviderID != providerID || a.Date.Before(from) || a.Date.After(to) {
			continue
		}
		result = append(result, a.clone())
	}
	sortAppointments(result)
	return result, nil
}

func (s *MemoryStore) Occupant(ctx context.Context, key SlotKey) (*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.occupant(key)
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	out := a.clone()
	return &out, nil
}

func (s *MemoryStore) ListReminderDue(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Appointment
	for _, a := range s.appointments {
		if !a.Status.Active() || !a.SendReminder || a.ReminderSentAt != nil {
			continue
		}
		at := a.StartsAt()
		if at.Before(from) || !at.Before(to) {
			continue
		}
		result = append(result, a.clone())
	}
	sortAppointments(result)
	return result, nil
}

func (s *MemoryStore) MarkReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.appointments[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	cur.ReminderSentAt = &at
	s.appointments[id] = cur
	return nil
}

func (s *MemoryStore) InsertEvent(ctx context.Context, ev EventLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev.ID = int64(len(s.events) + 1)
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.now()
	}
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of the audit log.
func (s *MemoryStore) Events() []EventLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]EventLog(nil), s.events...)
}

func sortAppointments(list []Appointment) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}
