package appointment

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

type Status string

const (
	StatusAwaiting  Status = "awaiting"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusAwaiting, StatusConfirmed, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Active appointments occupy their slot; cancelled ones do not.
func (s Status) Active() bool { return s != StatusCancelled }

type Appointment struct {
	ID              uuid.UUID          `json:"id"`
	ProviderID      uuid.UUID          `json:"provider_id"`
	PatientName     string             `json:"patient_name"`
	PatientPhone    string             `json:"patient_phone"`
	Date            schedule.Date      `json:"date"`
	StartTime       schedule.TimeOfDay `json:"start_time"`
	EndTime         schedule.TimeOfDay `json:"end_time"`
	DurationMinutes int                `json:"duration_minutes"`
	Status          Status             `json:"status"`
	Observation     *string            `json:"observation,omitempty"`
	ReturnInDays    *int               `json:"return_in_days,omitempty"`
	SendReminder    bool               `json:"send_reminder"`
	ReminderSentAt  *time.Time         `json:"reminder_sent_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// SlotKey identifies the slot an appointment occupies.
type SlotKey struct {
	ProviderID uuid.UUID
	Date       schedule.Date
	Start      schedule.TimeOfDay
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.ProviderID, k.Date, k.Start)
}

func (a Appointment) Slot() SlotKey {
	return SlotKey{ProviderID: a.ProviderID, Date: a.Date, Start: a.StartTime}
}

// StartsAt returns the civil start instant (see schedule.Civil).
func (a Appointment) StartsAt() time.Time { return a.Date.At(a.StartTime) }

func (a Appointment) clone() Appointment {
	c := a
	if a.Observation != nil {
		v := *a.Observation
		c.Observation = &v
	}
	if a.ReturnInDays != nil {
		v := *a.ReturnInDays
		c.ReturnInDays = &v
	}
	if a.ReminderSentAt != nil {
		v := *a.ReminderSentAt
		c.ReminderSentAt = &v
	}
	return c
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
