package provider

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

func testProvider(name string) Provider {
	id := uuid.New()
	return Provider{
		ID:        id,
		Name:      name,
		Specialty: "Cardiology",
		Schedule: schedule.Config{
			ProviderID:           id,
			DailyStart:           schedule.Clock(8, 0),
			DailyEnd:             schedule.Clock(12, 0),
			VisitDurationMinutes: 20,
			ActiveWeekdays:       []time.Weekday{time.Monday, time.Wednesday},
		},
	}
}

func TestMemoryDirectory_SaveGetList(t *testing.T) {
	ctx := context.Background()
	b, a := testProvider("Dr. Bruno"), testProvider("Dr. Ana")

	dir, err := NewMemoryDirectory(b, a)
	require.NoError(t, err)

	got, err := dir.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Ana", got.Name)

	list, err := dir.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)

	_, err = dir.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestMemoryDirectory_SaveRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	dir, err := NewMemoryDirectory()
	require.NoError(t, err)

	p := testProvider("")
	assert.ErrorIs(t, dir.Save(ctx, p), ErrInvalidProvider)

	p = testProvider("Dr. Ana")
	p.Schedule.DailyEnd = p.Schedule.DailyStart
	assert.ErrorIs(t, dir.Save(ctx, p), schedule.ErrInvalidConfig)

	p = testProvider("Dr. Ana")
	p.Schedule.ProviderID = uuid.New()
	assert.ErrorIs(t, dir.Save(ctx, p), ErrInvalidProvider)
}

func TestMemoryDirectory_UpdateSchedule(t *testing.T) {
	ctx := context.Background()
	p := testProvider("Dr. Ana")
	dir, err := NewMemoryDirectory(p)
	require.NoError(t, err)

	cfg := schedule.Config{
		DailyStart:           schedule.Clock(13, 0),
		DailyEnd:             schedule.Clock(18, 0),
		VisitDurationMinutes: 30,
	}
	updated, err := dir.UpdateSchedule(ctx, p.ID, cfg)
	require.NoError(t, err)
	assert.Equal(t, p.ID, updated.Schedule.ProviderID)

	got, err := dir.ScheduleFor(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, schedule.Clock(13, 0), got.DailyStart)
	assert.True(t, got.IsActive(time.Sunday))

	cfg.VisitDurationMinutes = 0
	_, err = dir.UpdateSchedule(ctx, p.ID, cfg)
	assert.ErrorIs(t, err, schedule.ErrInvalidConfig)

	_, err = dir.UpdateSchedule(ctx, uuid.New(), schedule.Config{DailyStart: 0, DailyEnd: 60, VisitDurationMinutes: 30})
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestMemoryDirectory_ScheduleIsCopied(t *testing.T) {
	ctx := context.Background()
	p := testProvider("Dr. Ana")
	dir, err := NewMemoryDirectory(p)
	require.NoError(t, err)

	p.Schedule.ActiveWeekdays[0] = time.Sunday

	got, err := dir.ScheduleFor(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, time.Monday, got.ActiveWeekdays[0])
}
