package schedule

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidConfig = errors.New("invalid schedule configuration")

var allWeekdays = []time.Weekday{
	time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
	time.Thursday, time.Friday, time.Saturday,
}

// Config is one provider's bookable window. It is edited by an administrator
// and only read by the booking service; editing it never touches existing
// appointments.
type Config struct {
	ProviderID           uuid.UUID      `json:"provider_id"`
	DailyStart           TimeOfDay      `json:"daily_start"`
	DailyEnd             TimeOfDay      `json:"daily_end"`
	VisitDurationMinutes int            `json:"visit_duration_minutes"`
	ActiveWeekdays       []time.Weekday `json:"active_weekdays,omitempty"` // empty means every day
}

// FromVisitsPerHour builds a config whose visit duration is 60/visitsPerHour minutes.
func FromVisitsPerHour(providerID uuid.UUID, start, end TimeOfDay, visitsPerHour int, weekdays ...time.Weekday) (Config, error) {
	if visitsPerHour <= 0 || visitsPerHour > 60 {
		return Config{}, fmt.Errorf("%w: visits per hour must be between 1 and 60, got %d", ErrInvalidConfig, visitsPerHour)
	}
	cfg := Config{
		ProviderID:           providerID,
		DailyStart:           start,
		DailyEnd:             end,
		VisitDurationMinutes: 60 / visitsPerHour,
		ActiveWeekdays:       weekdays,
	}
	return cfg, cfg.Validate()
}

func (c Config) VisitsPerHour() int {
	if c.VisitDurationMinutes <= 0 {
		return 0
	}
	return 60 / c.VisitDurationMinutes
}

func (c Config) Validate() error {
	if !c.DailyStart.Valid() || !c.DailyEnd.Valid() {
		return fmt.Errorf("%w: daily window %s-%s out of range", ErrInvalidConfig, c.DailyStart, c.DailyEnd)
	}
	if c.DailyStart >= c.DailyEnd {
		return fmt.Errorf("%w: daily start %s must be before daily end %s", ErrInvalidConfig, c.DailyStart, c.DailyEnd)
	}
	if c.VisitDurationMinutes <= 0 {
		return fmt.Errorf("%w: visit duration must be positive, got %d", ErrInvalidConfig, c.VisitDurationMinutes)
	}
	if c.VisitsPerHour() < 1 {
		return fmt.Errorf("%w: visit duration %d exceeds one hour", ErrInvalidConfig, c.VisitDurationMinutes)
	}
	for _, wd := range c.ActiveWeekdays {
		if wd < time.Sunday || wd > time.Saturday {
			return fmt.Errorf("%w: unknown weekday %d", ErrInvalidConfig, wd)
		}
	}
	return nil
}

func (c Config) Weekdays() []time.Weekday {
	if len(c.ActiveWeekdays) == 0 {
		return allWeekdays
	}
	return c.ActiveWeekdays
}

func (c Config) IsActive(wd time.Weekday) bool {
	return slices.Contains(c.Weekdays(), wd)
}

// WeekdayMask encodes the active weekdays as a bitmask (bit 0 = Sunday) for storage.
func (c Config) WeekdayMask() int {
	mask := 0
	for _, wd := range c.Weekdays() {
		mask |= 1 << int(wd)
	}
	return mask
}

// WeekdaysFromMask is the inverse of WeekdayMask.
func WeekdaysFromMask(mask int) []time.Weekday {
	var out []time.Weekday
	for _, wd := range allWeekdays {
		if mask&(1<<int(wd)) != 0 {
			out = append(out, wd)
		}
	}
	return out
}
