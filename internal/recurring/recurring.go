package recurring

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hackgods/clinic-scheduling/internal/interval"
	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

var (
	ErrInvalidEntry       = errors.New("invalid recurring entry")
	ErrUnknownPeriodicity = fmt.Errorf("%w: unknown periodicity", ErrInvalidEntry)
)

type Periodicity string

const (
	Monthly    Periodicity = "monthly"
	Bimonthly  Periodicity = "bimonthly"
	Quarterly  Periodicity = "quarterly"
	Semiannual Periodicity = "semiannual"
	Annual     Periodicity = "annual"
)

// The finance forms historically stored the Portuguese labels.
var aliases = map[string]Periodicity{
	"monthly":    Monthly,
	"mensal":     Monthly,
	"bimonthly":  Bimonthly,
	"bimestral":  Bimonthly,
	"quarterly":  Quarterly,
	"trimestral": Quarterly,
	"semiannual": Semiannual,
	"semestral":  Semiannual,
	"annual":     Annual,
	"anual":      Annual,
}

var months = map[Periodicity]int{
	Monthly:    1,
	Bimonthly:  2,
	Quarterly:  3,
	Semiannual: 6,
	Annual:     12,
}

func ParsePeriodicity(s string) (Periodicity, error) {
	p, ok := aliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownPeriodicity, s)
	}
	return p, nil
}

func (p *Periodicity) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParsePeriodicity(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Step returns the calendar step between two occurrences.
func (p Periodicity) Step() (interval.Step, error) {
	n, ok := months[p]
	if !ok {
		return interval.Step{}, fmt.Errorf("%w %q", ErrUnknownPeriodicity, string(p))
	}
	return interval.Months(n), nil
}

// Entry is a recurring financial entry. Amount is in minor currency units.
type Entry struct {
	Amount      int64          `json:"amount"`
	Periodicity Periodicity    `json:"periodicity"`
	StartDate   schedule.Date  `json:"start_date"`
	EndDate     *schedule.Date `json:"end_date,omitempty"`
}

type Occurrence struct {
	Date   schedule.Date `json:"date"`
	Amount int64         `json:"amount"`
}

// Bound returns the exclusive end date: EndDate, or one year after StartDate.
func (e Entry) Bound() schedule.Date {
	if e.EndDate != nil {
		return *e.EndDate
	}
	return schedule.DateOf(interval.AddMonths(e.StartDate.Midnight(), 12))
}

func (e Entry) Validate() error {
	if e.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidEntry)
	}
	if e.EndDate != nil && e.EndDate.Before(e.StartDate) {
		return fmt.Errorf("%w: end date %s before start date %s", ErrInvalidEntry, *e.EndDate, e.StartDate)
	}
	if _, err := e.Periodicity.Step(); err != nil {
		return err
	}
	return nil
}

// Occurrences lists the dates the entry falls due, each carrying the fixed
// amount. The entry is never modified.
func Occurrences(e Entry) ([]Occurrence, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	step, _ := e.Periodicity.Step()

	bound := e.Bound()
	if bound == e.StartDate {
		return []Occurrence{}, nil
	}

	dates, err := interval.Generate(e.StartDate.Midnight(), step, interval.Until(bound.Midnight()))
	if err != nil {
		return nil, fmt.Errorf("generate occurrences: %w", err)
	}

	out := make([]Occurrence, 0, len(dates))
	for _, d := range dates {
		out = append(out, Occurrence{Date: schedule.DateOf(d), Amount: e.Amount})
	}
	return out, nil
}
