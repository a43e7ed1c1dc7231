package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerate_MinutesUntil(t *testing.T) {
	start := day(2024, 12, 16).Add(8 * time.Hour)
	end := day(2024, 12, 16).Add(9 * time.Hour)

	got, err := Generate(start, Minutes(15), Until(end))
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, start, got[0])
	assert.Equal(t, start.Add(45*time.Minute), got[3])
}

func TestGenerate_UntilIsExclusive(t *testing.T) {
	start := day(2024, 1, 1)
	got, err := Generate(start, Minutes(30), Until(start.Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{start, start.Add(30 * time.Minute)}, got)
}

func TestGenerate_Count(t *testing.T) {
	start := day(2024, 1, 10)
	got, err := Generate(start, Months(1), Count(3))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(2024, 1, 10), day(2024, 2, 10), day(2024, 3, 10)}, got)
}

func TestGenerate_MonthlyClampsWithoutDrift(t *testing.T) {
	got, err := Generate(day(2024, 1, 31), Months(1), Count(4))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		day(2024, 1, 31),
		day(2024, 2, 29),
		day(2024, 3, 31),
		day(2024, 4, 30),
	}, got)
}

func TestGenerate_YearlyFromLeapDay(t *testing.T) {
	got, err := Generate(day(2024, 2, 29), Years(1), Until(day(2026, 3, 1)))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(2024, 2, 29), day(2025, 2, 28), day(2026, 2, 28)}, got)
}

func TestGenerate_InvalidInputs(t *testing.T) {
	start := day(2024, 1, 1)

	tests := []struct {
		name  string
		step  Step
		bound Bound
		want  error
	}{
		{"zero step", Minutes(0), Until(start.Add(time.Hour)), ErrInvalidStep},
		{"negative step", Minutes(-5), Count(3), ErrInvalidStep},
		{"negative months", Months(-1), Count(3), ErrInvalidStep},
		{"start equals end", Minutes(10), Until(start), ErrEmptyRange},
		{"start after end", Minutes(10), Until(start.Add(-time.Hour)), ErrEmptyRange},
		{"no bound", Minutes(10), Bound{}, ErrUnbounded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Generate(start, tt.step, tt.bound)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Empty(t, got)
		})
	}
}

func TestGenerate_StrictlyIncreasingAndRestartable(t *testing.T) {
	start := day(2023, 11, 30)
	first, err := Generate(start, Months(3), Until(day(2026, 1, 1)))
	require.NoError(t, err)
	second, err := Generate(start, Months(3), Until(day(2026, 1, 1)))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	for i := 1; i < len(first); i++ {
		assert.True(t, first[i].After(first[i-1]), "index %d not increasing", i)
	}
}

func TestAddMonths(t *testing.T) {
	assert.Equal(t, day(2023, 2, 28), AddMonths(day(2023, 1, 31), 1))
	assert.Equal(t, day(2025, 1, 31), AddMonths(day(2024, 1, 31), 12))
	assert.Equal(t, day(2024, 6, 30), AddMonths(day(2023, 12, 31), 6))
	assert.Equal(t, day(2023, 12, 15), AddMonths(day(2024, 1, 15), -1))
}
