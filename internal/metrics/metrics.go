package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_http_requests_total",
			Help: "HTTP requests handled, by route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clinic_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// result: created, conflict, outside_schedule, invalid, error
	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_bookings_total",
			Help: "Booking attempts by outcome",
		},
		[]string{"result"},
	)

	ReschedulesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_reschedules_total",
			Help: "Reschedule attempts by outcome",
		},
		[]string{"result"},
	)

	StatusChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_appointment_status_changes_total",
			Help: "Appointment status transitions by target status",
		},
		[]string{"status"},
	)

	DuplicatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_appointment_duplicates_total",
			Help: "Duplicate attempts by outcome",
		},
		[]string{"result"},
	)

	RemindersSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinic_reminders_sent_total",
			Help: "Appointment reminders by outcome",
		},
		[]string{"result"},
	)
)
