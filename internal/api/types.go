package api

import (
	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/recurring"
	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

// BookRequest is the create and edit body: a draft plus the admin override.
type BookRequest struct {
	appointment.Draft
	AllowOffHours bool `json:"allow_off_hours"`
}

type RescheduleRequest struct {
	Date          *schedule.Date      `json:"date"`
	StartTime     *schedule.TimeOfDay `json:"start_time"`
	AllowOffHours bool                `json:"allow_off_hours"`
}

type AppointmentListResponse struct {
	Appointments []appointment.Appointment `json:"appointments"`
}

type OccurrencesResponse struct {
	Occurrences []recurring.Occurrence `json:"occurrences"`
	Total       int64                  `json:"total"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
