package recurring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

func dates(occ []Occurrence) []string {
	out := make([]string, len(occ))
	for i, o := range occ {
		out[i] = o.Date.String()
	}
	return out
}

func TestOccurrences_MonthlyImplicitYear(t *testing.T) {
	p, err := ParsePeriodicity("mensal")
	require.NoError(t, err)

	occ, err := Occurrences(Entry{Amount: 15000, Periodicity: p, StartDate: schedule.NewDate(2024, 1, 10)})
	require.NoError(t, err)
	require.Len(t, occ, 12)

	assert.Equal(t, "2024-01-10", occ[0].Date.String())
	assert.Equal(t, "2024-12-10", occ[11].Date.String())
	for i, o := range occ {
		assert.Equal(t, 10, o.Date.Day)
		assert.Equal(t, int64(15000), o.Amount)
		if i > 0 {
			assert.True(t, o.Date.After(occ[i-1].Date))
		}
	}
}

func TestOccurrences_Cadences(t *testing.T) {
	start := schedule.NewDate(2024, 3, 15)
	tests := []struct {
		periodicity Periodicity
		want        []string
	}{
		{Bimonthly, []string{"2024-03-15", "2024-05-15", "2024-07-15", "2024-09-15", "2024-11-15", "2025-01-15"}},
		{Quarterly, []string{"2024-03-15", "2024-06-15", "2024-09-15", "2024-12-15"}},
		{Semiannual, []string{"2024-03-15", "2024-09-15"}},
		{Annual, []string{"2024-03-15"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.periodicity), func(t *testing.T) {
			occ, err := Occurrences(Entry{Amount: 1, Periodicity: tt.periodicity, StartDate: start})
			require.NoError(t, err)
			assert.Equal(t, tt.want, dates(occ))
		})
	}
}

func TestOccurrences_ClampsToMonthEnd(t *testing.T) {
	end := schedule.NewDate(2024, 6, 1)
	occ, err := Occurrences(Entry{Amount: 1, Periodicity: Monthly, StartDate: schedule.NewDate(2024, 1, 31), EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30", "2024-05-31"}, dates(occ))

	end = schedule.NewDate(2028, 3, 1)
	occ, err = Occurrences(Entry{Amount: 1, Periodicity: Annual, StartDate: schedule.NewDate(2024, 2, 29), EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-02-29", "2025-02-28", "2026-02-28", "2027-02-28", "2028-02-29"}, dates(occ))
}

func TestOccurrences_ExplicitEndIsExclusive(t *testing.T) {
	end := schedule.NewDate(2024, 4, 10)
	occ, err := Occurrences(Entry{Amount: 1, Periodicity: Monthly, StartDate: schedule.NewDate(2024, 1, 10), EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-10", "2024-02-10", "2024-03-10"}, dates(occ))
}

func TestOccurrences_EndEqualsStart(t *testing.T) {
	start := schedule.NewDate(2024, 1, 10)
	occ, err := Occurrences(Entry{Amount: 1, Periodicity: Monthly, StartDate: start, EndDate: &start})
	require.NoError(t, err)
	assert.Empty(t, occ)
}

func TestOccurrences_Invalid(t *testing.T) {
	start := schedule.NewDate(2024, 5, 1)
	before := schedule.NewDate(2024, 4, 1)

	_, err := Occurrences(Entry{Periodicity: Monthly, StartDate: start, EndDate: &before})
	assert.ErrorIs(t, err, ErrInvalidEntry)

	_, err = Occurrences(Entry{Periodicity: "weekly", StartDate: start})
	assert.ErrorIs(t, err, ErrUnknownPeriodicity)

	_, err = Occurrences(Entry{Periodicity: Monthly})
	assert.ErrorIs(t, err, ErrInvalidEntry)
}

func TestOccurrences_DoesNotMutateEntry(t *testing.T) {
	end := schedule.NewDate(2025, 1, 1)
	entry := Entry{Amount: 99, Periodicity: Quarterly, StartDate: schedule.NewDate(2024, 1, 1), EndDate: &end}
	snapshot := entry

	first, err := Occurrences(entry)
	require.NoError(t, err)
	second, err := Occurrences(entry)
	require.NoError(t, err)

	assert.Equal(t, snapshot, entry)
	assert.Equal(t, first, second)
}

func TestParsePeriodicity(t *testing.T) {
	for in, want := range map[string]Periodicity{
		"anual":      Annual,
		"Trimestral": Quarterly,
		" semestral": Semiannual,
		"bimestral":  Bimonthly,
		"monthly":    Monthly,
	} {
		got, err := ParsePeriodicity(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParsePeriodicity("daily")
	assert.ErrorIs(t, err, ErrUnknownPeriodicity)
}

func TestEntryJSON(t *testing.T) {
	var e Entry
	require.NoError(t, json.Unmarshal([]byte(`{"amount":2500,"periodicity":"trimestral","start_date":"2024-01-31"}`), &e))
	assert.Equal(t, Quarterly, e.Periodicity)
	assert.Nil(t, e.EndDate)
	assert.Equal(t, schedule.NewDate(2025, 1, 31), e.Bound())

	assert.Error(t, json.Unmarshal([]byte(`{"periodicity":"weekly"}`), &e))
}
