package appointment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

var ErrInvalidDraft = errors.New("invalid appointment")

const endOfDay = schedule.TimeOfDay(24 * 60)

// Draft is an appointment being filled in by a form. Every field is
// optional until Build or Apply validates it.
type Draft struct {
	ProviderID      *uuid.UUID          `json:"provider_id,omitempty"`
	PatientName     *string             `json:"patient_name,omitempty"`
	PatientPhone    *string             `json:"patient_phone,omitempty"`
	Date            *schedule.Date      `json:"date,omitempty"`
	StartTime       *schedule.TimeOfDay `json:"start_time,omitempty"`
	DurationMinutes *int                `json:"duration_minutes,omitempty"`
	Observation     *string             `json:"observation,omitempty"`
	ReturnInDays    *int                `json:"return_in_days,omitempty"`
	SendReminder    *bool               `json:"send_reminder,omitempty"`
}

func (d Draft) WithDefaultDuration(minutes int) Draft {
	if d.DurationMinutes == nil {
		d.DurationMinutes = &minutes
	}
	return d
}

// Validate reports every missing or invalid field at once.
func (d Draft) Validate() error {
	var problems []string

	if d.ProviderID == nil || *d.ProviderID == uuid.Nil {
		problems = append(problems, "provider_id is required")
	}
	if d.PatientName == nil || strings.TrimSpace(*d.PatientName) == "" {
		problems = append(problems, "patient_name is required")
	}
	if d.Date == nil || d.Date.IsZero() {
		problems = append(problems, "date is required")
	}
	if d.StartTime == nil {
		problems = append(problems, "start_time is required")
	}
	problems = append(problems, d.fieldProblems()...)

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDraft, strings.Join(problems, "; "))
	}
	return nil
}

func (d Draft) fieldProblems() []string {
	var problems []string
	if d.StartTime != nil && (*d.StartTime < 0 || *d.StartTime >= endOfDay) {
		problems = append(problems, "start_time out of range")
	}
	if d.DurationMinutes == nil || *d.DurationMinutes <= 0 {
		problems = append(problems, "duration_minutes must be positive")
	} else if d.StartTime != nil && d.StartTime.Add(*d.DurationMinutes) > endOfDay {
		problems = append(problems, "appointment must end on the same day")
	}
	if d.ReturnInDays != nil && *d.ReturnInDays < 0 {
		problems = append(problems, "return_in_days must not be negative")
	}
	return problems
}

// Build turns a complete draft into a new awaiting appointment.
func (d Draft) Build() (Appointment, error) {
	if err := d.Validate(); err != nil {
		return Appointment{}, err
	}

	a := Appointment{
		ProviderID:      *d.ProviderID,
		PatientName:     strings.TrimSpace(*d.PatientName),
		Date:            *d.Date,
		StartTime:       *d.StartTime,
		EndTime:         d.StartTime.Add(*d.DurationMinutes),
		DurationMinutes: *d.DurationMinutes,
		Status:          StatusAwaiting,
		Observation:     d.Observation,
		ReturnInDays:    d.ReturnInDays,
	}
	if d.PatientPhone != nil {
		a.PatientPhone = strings.TrimSpace(*d.PatientPhone)
	}
	if d.SendReminder != nil {
		a.SendReminder = *d.SendReminder
	}
	return a, nil
}

// MovesSlot reports whether the draft changes a's date or start time.
func (d Draft) MovesSlot(a Appointment) bool {
	return (d.Date != nil && *d.Date != a.Date) || (d.StartTime != nil && *d.StartTime != a.StartTime)
}

// Apply copies the set, non-slot fields onto a. The provider cannot change.
func (d Draft) Apply(a *Appointment) error {
	if d.ProviderID != nil && *d.ProviderID != a.ProviderID {
		return fmt.Errorf("%w: provider cannot be changed", ErrInvalidDraft)
	}

	merged := d
	if merged.DurationMinutes == nil {
		merged.DurationMinutes = &a.DurationMinutes
	}
	start := a.StartTime
	if merged.StartTime == nil {
		merged.StartTime = &start
	}
	var problems []string
	if d.PatientName != nil && strings.TrimSpace(*d.PatientName) == "" {
		problems = append(problems, "patient_name is required")
	}
	problems = append(problems, merged.fieldProblems()...)
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDraft, strings.Join(problems, "; "))
	}

	if d.PatientName != nil {
		a.PatientName = strings.TrimSpace(*d.PatientName)
	}
	if d.PatientPhone != nil {
		a.PatientPhone = strings.TrimSpace(*d.PatientPhone)
	}
	if d.DurationMinutes != nil {
		a.DurationMinutes = *d.DurationMinutes
		a.EndTime = a.StartTime.Add(a.DurationMinutes)
	}
	if d.Observation != nil {
		a.Observation = d.Observation
	}
	if d.ReturnInDays != nil {
		a.ReturnInDays = d.ReturnInDays
	}
	if d.SendReminder != nil {
		a.SendReminder = *d.SendReminder
	}
	return nil
}

// DraftFrom returns a fully populated draft describing a, for edit forms.
func DraftFrom(a Appointment) Draft {
	return Draft{
		ProviderID:      ptr(a.ProviderID),
		PatientName:     ptr(a.PatientName),
		PatientPhone:    ptr(a.PatientPhone),
		Date:            ptr(a.Date),
		StartTime:       ptr(a.StartTime),
		DurationMinutes: ptr(a.DurationMinutes),
		Observation:     a.Observation,
		ReturnInDays:    a.ReturnInDays,
		SendReminder:    ptr(a.SendReminder),
	}
}

func ptr[T any](v T) *T { return &v }
