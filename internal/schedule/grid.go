package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/interval"
)

// Slot is a bookable interval derived from a Config. Slots are never stored.
type Slot struct {
	ProviderID uuid.UUID    `json:"provider_id"`
	Date       Date         `json:"date"`
	Start      TimeOfDay    `json:"start"`
	End        TimeOfDay    `json:"end"`
	Weekday    time.Weekday `json:"weekday"`
}

// Contains reports whether the wall-clock instant now falls inside the slot.
func (s Slot) Contains(now time.Time) bool {
	if DateOf(now) != s.Date {
		return false
	}
	t := TimeOfDayOf(now)
	return t >= s.Start && t < s.End
}

// Build returns the ordered slots of cfg on date. A day whose weekday is not
// active has no slots. Slots that would run past DailyEnd are dropped.
func Build(cfg Config, date Date) ([]Slot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	wd := date.Weekday()
	if !cfg.IsActive(wd) {
		return []Slot{}, nil
	}

	dayEnd := date.At(cfg.DailyEnd)
	starts, err := interval.Generate(date.At(cfg.DailyStart), interval.Minutes(cfg.VisitDurationMinutes), interval.Until(dayEnd))
	if err != nil {
		return nil, fmt.Errorf("generate slots for %s: %w", date, err)
	}

	slots := make([]Slot, 0, len(starts))
	for _, st := range starts {
		end := st.Add(time.Duration(cfg.VisitDurationMinutes) * time.Minute)
		if end.After(dayEnd) {
			break
		}
		start := TimeOfDayOf(st)
		slots = append(slots, Slot{
			ProviderID: cfg.ProviderID,
			Date:       date,
			Start:      start,
			End:        start.Add(cfg.VisitDurationMinutes),
			Weekday:    wd,
		})
	}
	return slots, nil
}

// BuildRange concatenates Build for every day in [from, to].
func BuildRange(cfg Config, from, to Date) ([]Slot, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end %s before start %s", ErrInvalidConfig, to, from)
	}
	var out []Slot
	for d := from; !d.After(to); d = d.AddDays(1) {
		slots, err := Build(cfg, d)
		if err != nil {
			return nil, err
		}
		out = append(out, slots...)
	}
	return out, nil
}

// HasSlot reports whether a slot of cfg starts at start on date.
func HasSlot(cfg Config, date Date, start TimeOfDay) (bool, error) {
	slots, err := Build(cfg, date)
	if err != nil {
		return false, err
	}
	for _, s := range slots {
		if s.Start == start {
			return true, nil
		}
	}
	return false, nil
}
