package interval

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidConfig = errors.New("invalid interval configuration")
	ErrInvalidStep   = fmt.Errorf("%w: step must be positive", ErrInvalidConfig)
	ErrEmptyRange    = fmt.Errorf("%w: start is not before end", ErrInvalidConfig)
	ErrUnbounded     = fmt.Errorf("%w: bound is required", ErrInvalidConfig)
)

// Step is either a fixed number of minutes or a number of calendar months.
// Exactly one of the two fields is expected to be set.
type Step struct {
	minutes int
	months  int
}

func Minutes(n int) Step { return Step{minutes: n} }

func Months(n int) Step { return Step{months: n} }

func Years(n int) Step { return Step{months: 12 * n} }

func (s Step) IsCalendar() bool { return s.months != 0 }

func (s Step) valid() bool {
	if s.minutes != 0 && s.months != 0 {
		return false
	}
	return s.minutes > 0 || s.months > 0
}

// advance returns start moved k steps forward. Calendar steps are always
// computed from start so a clamped day-of-month never drifts.
func (s Step) advance(start time.Time, k int) time.Time {
	if s.months != 0 {
		return AddMonths(start, s.months*k)
	}
	return start.Add(time.Duration(s.minutes*k) * time.Minute)
}

// Bound stops a sequence either before an exclusive end instant or after a
// fixed number of instants.
type Bound struct {
	until time.Time
	count int
}

func Until(t time.Time) Bound { return Bound{until: t} }

func Count(n int) Bound { return Bound{count: n} }

// Generate returns the ordered instants start, start+step, ... until bound
// is reached. It has no hidden state: identical inputs give identical output.
func Generate(start time.Time, step Step, bound Bound) ([]time.Time, error) {
	if !step.valid() {
		return []time.Time{}, ErrInvalidStep
	}

	switch {
	case !bound.until.IsZero():
		if !start.Before(bound.until) {
			return []time.Time{}, ErrEmptyRange
		}
		var out []time.Time
		for k := 0; ; k++ {
			t := step.advance(start, k)
			if !t.Before(bound.until) {
				break
			}
			out = append(out, t)
		}
		return out, nil

	case bound.count > 0:
		out := make([]time.Time, 0, bound.count)
		for k := 0; k < bound.count; k++ {
			out = append(out, step.advance(start, k))
		}
		return out, nil

	case bound.count < 0:
		return []time.Time{}, fmt.Errorf("%w: negative count %d", ErrInvalidConfig, bound.count)
	}

	return []time.Time{}, ErrUnbounded
}

// AddMonths adds n calendar months to t, keeping the time of day and clamping
// the day to the last day of the target month (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := DaysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
