package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

func newAppt(providerID uuid.UUID, date schedule.Date, start schedule.TimeOfDay) Appointment {
	return Appointment{
		ProviderID:      providerID,
		PatientName:     "Patient",
		Date:            date,
		StartTime:       start,
		DurationMinutes: 30,
	}
}

func TestMemoryStore_InsertFirstWriterWins(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	p := uuid.New()

	a, err := s.Insert(ctx, newAppt(p, monday, schedule.Clock(9, 0)))
	require.NoError(t, err)
	assert.Equal(t, StatusAwaiting, a.Status)
	assert.Equal(t, schedule.Clock(9, 30), a.EndTime)

	_, err = s.Insert(ctx, newAppt(p, monday, schedule.Clock(9, 0)))
	assert.ErrorIs(t, err, ErrConflict)

	// Same slot, other provider.
	_, err = s.Insert(ctx, newAppt(uuid.New(), monday, schedule.Clock(9, 0)))
	assert.NoError(t, err)
}

func TestMemoryStore_CancelledDoesNotOccupy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	p := uuid.New()

	a, err := s.Insert(ctx, newAppt(p, monday, schedule.Clock(9, 0)))
	require.NoError(t, err)
	_, err = s.SetStatus(ctx, a.ID, StatusAwaiting, StatusCancelled)
	require.NoError(t, err)

	_, err = s.Occupant(ctx, a.Slot())
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	b, err := s.Insert(ctx, newAppt(p, monday, schedule.Clock(9, 0)))
	require.NoError(t, err)

	occ, err := s.Occupant(ctx, a.Slot())
	require.NoError(t, err)
	assert.Equal(t, b.ID, occ.ID)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	obs := "note"
	in := newAppt(uuid.New(), monday, schedule.Clock(9, 0))
	in.Observation = &obs
	a, err := s.Insert(ctx, in)
	require.NoError(t, err)

	*a.Observation = "changed"
	a.PatientName = "changed"

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "note", *got.Observation)
	assert.Equal(t, "Patient", got.PatientName)
}

func TestMemoryStore_UpdateDoesNotMove(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	a, err := s.Insert(ctx, newAppt(uuid.New(), monday, schedule.Clock(9, 0)))
	require.NoError(t, err)

	edit := *a
	edit.Date = monday.AddDays(1)
	edit.StartTime = schedule.Clock(15, 0)
	edit.DurationMinutes = 60
	got, err := s.Update(ctx, edit)
	require.NoError(t, err)
	assert.Equal(t, monday, got.Date)
	assert.Equal(t, schedule.Clock(9, 0), got.StartTime)
	assert.Equal(t, schedule.Clock(10, 0), got.EndTime)
}

func TestMemoryStore_MoveResetsReminder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	a, err := s.Insert(ctx, newAppt(uuid.New(), monday, schedule.Clock(9, 0)))
	require.NoError(t, err)
	require.NoError(t, s.MarkReminderSent(ctx, a.ID, time.Now()))

	moved, err := s.Move(ctx, a.ID, monday, schedule.Clock(11, 0), 30)
	require.NoError(t, err)
	assert.Nil(t, moved.ReminderSentAt)
	assert.Equal(t, schedule.Clock(11, 30), moved.EndTime)
}

func TestMemoryStore_MoveCarriesDuration(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	a, err := s.Insert(ctx, newAppt(uuid.New(), monday, schedule.Clock(23, 0)))
	require.NoError(t, err)

	moved, err := s.Move(ctx, a.ID, monday, schedule.Clock(9, 0), 120)
	require.NoError(t, err)
	assert.Equal(t, 120, moved.DurationMinutes)
	assert.Equal(t, schedule.Clock(11, 0), moved.EndTime)
}

func TestMemoryStore_SetStatusComparesCurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	a, err := s.Insert(ctx, newAppt(uuid.New(), monday, schedule.Clock(9, 0)))
	require.NoError(t, err)
	_, err = s.SetStatus(ctx, a.ID, StatusAwaiting, StatusCancelled)
	require.NoError(t, err)

	_, err = s.SetStatus(ctx, a.ID, StatusAwaiting, StatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
}

func TestMemoryStore_OccupantIsEarliestCreated(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	src, err := s.Insert(ctx, newAppt(uuid.New(), monday, schedule.Clock(9, 0)))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := s.Duplicate(ctx, src.ID)
		if i == 0 {
			require.NoError(t, err)
		} else {
			require.ErrorIs(t, err, ErrConflict)
		}
	}

	for i := 0; i < 20; i++ {
		occ, err := s.Occupant(ctx, src.Slot())
		require.NoError(t, err)
		assert.Equal(t, src.ID, occ.ID)
	}
}

func TestMemoryStore_QueryOrderedAndInclusive(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	p := uuid.New()

	for _, in := range []Appointment{
		newAppt(p, monday.AddDays(2), schedule.Clock(8, 0)),
		newAppt(p, monday, schedule.Clock(15, 0)),
		newAppt(p, monday, schedule.Clock(9, 0)),
		newAppt(p, monday.AddDays(3), schedule.Clock(9, 0)),
		newAppt(uuid.New(), monday, schedule.Clock(9, 0)),
	} {
		_, err := s.Insert(ctx, in)
		require.NoError(t, err)
	}

	list, err := s.Query(ctx, p, monday, monday.AddDays(2))
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, schedule.Clock(9, 0), list[0].StartTime)
	assert.Equal(t, schedule.Clock(15, 0), list[1].StartTime)
	assert.Equal(t, monday.AddDays(2), list[2].Date)

	empty, err := s.Query(ctx, p, monday.AddDays(10), monday.AddDays(11))
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestMemoryStore_ListReminderDue(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	p := uuid.New()

	due := newAppt(p, monday, schedule.Clock(9, 0))
	due.SendReminder = true
	noFlag := newAppt(p, monday, schedule.Clock(9, 30))
	atEnd := newAppt(p, monday, schedule.Clock(10, 0))
	atEnd.SendReminder = true

	d, err := s.Insert(ctx, due)
	require.NoError(t, err)
	_, err = s.Insert(ctx, noFlag)
	require.NoError(t, err)
	_, err = s.Insert(ctx, atEnd)
	require.NoError(t, err)

	list, err := s.ListReminderDue(ctx, monday.At(schedule.Clock(8, 0)), monday.At(schedule.Clock(10, 0)))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, d.ID, list[0].ID)
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	id := uuid.New()

	_, err := s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	_, err = s.Move(ctx, id, monday, 0, 30)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	_, err = s.SetStatus(ctx, id, StatusAwaiting, StatusConfirmed)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	_, err = s.Duplicate(ctx, id)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.ErrorIs(t, s.MarkReminderSent(ctx, id, time.Now()), ErrAppointmentNotFound)
}
