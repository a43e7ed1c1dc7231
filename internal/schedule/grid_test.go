package schedule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weekdayConfig() Config {
	return Config{
		ProviderID:           uuid.New(),
		DailyStart:           Clock(8, 0),
		DailyEnd:             Clock(20, 0),
		VisitDurationMinutes: 30,
		ActiveWeekdays:       []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
	}
}

func TestBuild_FullDay(t *testing.T) {
	cfg := weekdayConfig()
	monday := NewDate(2024, 12, 16)

	slots, err := Build(cfg, monday)
	require.NoError(t, err)
	require.Len(t, slots, 24)

	assert.Equal(t, "08:00", slots[0].Start.String())
	assert.Equal(t, "08:30", slots[0].End.String())
	assert.Equal(t, "19:30", slots[23].Start.String())
	assert.Equal(t, "20:00", slots[23].End.String())
	assert.Equal(t, time.Monday, slots[0].Weekday)
	assert.Equal(t, cfg.ProviderID, slots[0].ProviderID)
}

func TestBuild_TilesWindowWithoutGaps(t *testing.T) {
	tests := []struct {
		start, end TimeOfDay
		duration   int
	}{
		{Clock(8, 0), Clock(20, 0), 30},
		{Clock(9, 0), Clock(17, 0), 20},
		{Clock(7, 30), Clock(12, 10), 25},
		{Clock(0, 0), Clock(24, 0), 60},
		{Clock(13, 0), Clock(13, 45), 50},
	}

	for _, tt := range tests {
		cfg := Config{DailyStart: tt.start, DailyEnd: tt.end, VisitDurationMinutes: tt.duration}
		slots, err := Build(cfg, NewDate(2024, 3, 5))
		require.NoError(t, err)

		want := tt.end.Minutes(tt.start) / tt.duration
		require.Len(t, slots, want, "window %s-%s every %d", tt.start, tt.end, tt.duration)
		if want == 0 {
			continue
		}
		assert.Equal(t, tt.start, slots[0].Start)
		for i, s := range slots {
			assert.Equal(t, tt.duration, s.End.Minutes(s.Start))
			assert.True(t, s.End <= tt.end)
			if i > 0 {
				assert.Equal(t, slots[i-1].End, s.Start)
			}
		}
	}
}

func TestBuild_InactiveWeekdayIsEmpty(t *testing.T) {
	slots, err := Build(weekdayConfig(), NewDate(2024, 12, 15)) // Sunday
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)
}

func TestBuild_EmptyWeekdaysMeansEveryDay(t *testing.T) {
	cfg := weekdayConfig()
	cfg.ActiveWeekdays = nil
	slots, err := Build(cfg, NewDate(2024, 12, 15))
	require.NoError(t, err)
	assert.Len(t, slots, 24)
}

func TestBuild_Idempotent(t *testing.T) {
	cfg := weekdayConfig()
	d := NewDate(2024, 12, 17)
	a, err := Build(cfg, d)
	require.NoError(t, err)
	b, err := Build(cfg, d)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuild_InvalidConfig(t *testing.T) {
	tests := map[string]Config{
		"start after end":   {DailyStart: Clock(18, 0), DailyEnd: Clock(8, 0), VisitDurationMinutes: 30},
		"start equals end":  {DailyStart: Clock(8, 0), DailyEnd: Clock(8, 0), VisitDurationMinutes: 30},
		"zero duration":     {DailyStart: Clock(8, 0), DailyEnd: Clock(9, 0)},
		"negative duration": {DailyStart: Clock(8, 0), DailyEnd: Clock(9, 0), VisitDurationMinutes: -10},
		"longer than hour":  {DailyStart: Clock(8, 0), DailyEnd: Clock(18, 0), VisitDurationMinutes: 90},
		"bad weekday":       {DailyStart: Clock(8, 0), DailyEnd: Clock(9, 0), VisitDurationMinutes: 15, ActiveWeekdays: []time.Weekday{9}},
	}

	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Build(cfg, NewDate(2024, 12, 16))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestBuildRange(t *testing.T) {
	cfg := weekdayConfig()
	// Fri..Mon: Saturday and Sunday contribute nothing.
	slots, err := BuildRange(cfg, NewDate(2024, 12, 13), NewDate(2024, 12, 16))
	require.NoError(t, err)
	require.Len(t, slots, 48)
	assert.Equal(t, NewDate(2024, 12, 13), slots[0].Date)
	assert.Equal(t, NewDate(2024, 12, 16), slots[47].Date)

	_, err = BuildRange(cfg, NewDate(2024, 12, 16), NewDate(2024, 12, 13))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestHasSlot(t *testing.T) {
	cfg := weekdayConfig()
	monday := NewDate(2024, 12, 16)

	ok, err := HasSlot(cfg, monday, Clock(10, 0))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = HasSlot(cfg, monday, Clock(10, 15))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = HasSlot(cfg, monday, Clock(21, 0))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFromVisitsPerHour(t *testing.T) {
	cfg, err := FromVisitsPerHour(uuid.New(), Clock(8, 0), Clock(12, 0), 3)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.VisitDurationMinutes)
	assert.Equal(t, 3, cfg.VisitsPerHour())

	_, err = FromVisitsPerHour(uuid.New(), Clock(8, 0), Clock(12, 0), 0)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestSlotContains(t *testing.T) {
	slot := Slot{Date: NewDate(2024, 12, 16), Start: Clock(10, 0), End: Clock(10, 30)}

	assert.True(t, slot.Contains(time.Date(2024, 12, 16, 10, 0, 0, 0, time.UTC)))
	assert.True(t, slot.Contains(time.Date(2024, 12, 16, 10, 29, 59, 0, time.UTC)))
	assert.False(t, slot.Contains(time.Date(2024, 12, 16, 10, 30, 0, 0, time.UTC)))
	assert.False(t, slot.Contains(time.Date(2024, 12, 17, 10, 10, 0, 0, time.UTC)))
}

func TestWeekdayMaskRoundTrip(t *testing.T) {
	cfg := weekdayConfig()
	assert.Equal(t, cfg.ActiveWeekdays, WeekdaysFromMask(cfg.WeekdayMask()))
	assert.Equal(t, 0x7f, Config{}.WeekdayMask())
}

func TestClockAndDateJSON(t *testing.T) {
	var payload struct {
		Date  Date      `json:"date"`
		Start TimeOfDay `json:"start"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-02-29","start":"07:45"}`), &payload))
	assert.Equal(t, NewDate(2024, 2, 29), payload.Date)
	assert.Equal(t, Clock(7, 45), payload.Start)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-02-29","start":"07:45"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"start":"7:45"}`), &payload))
	assert.Error(t, json.Unmarshal([]byte(`{"start":"25:00"}`), &payload))
	assert.Error(t, json.Unmarshal([]byte(`{"date":"2024-02-30"}`), &payload))
}
