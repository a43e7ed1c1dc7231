package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/provider"
	"github.com/hackgods/clinic-scheduling/internal/schedule"
)

func listProvidersHandler(dir provider.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := dir.List(r.Context())
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func createProviderHandler(dir provider.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p provider.Provider
		if !decodeJSON(w, r, &p) {
			return
		}
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.Schedule.ProviderID = p.ID

		if err := dir.Save(r.Context(), p); err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func getProviderHandler(dir provider.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlUUID(w, r, "id")
		if !ok {
			return
		}

		p, err := dir.Get(r.Context(), id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// Existing appointments are left as they are; ones that no longer sit on a
// slot show up in the grid's off_schedule list.
func updateScheduleHandler(dir provider.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlUUID(w, r, "id")
		if !ok {
			return
		}

		var cfg schedule.Config
		if !decodeJSON(w, r, &cfg) {
			return
		}

		p, err := dir.UpdateSchedule(r.Context(), id, cfg)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func slotsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlUUID(w, r, "id")
		if !ok {
			return
		}
		from, to, ok := dateRange(w, r, schedule.DateOf(svc.Now()))
		if !ok {
			return
		}

		grid, err := svc.Grid(r.Context(), id, from, to)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, grid)
	}
}

func availabilityHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlUUID(w, r, "id")
		if !ok {
			return
		}

		q := r.URL.Query()
		date, err := schedule.ParseDate(q.Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be a YYYY-MM-DD date")
			return
		}
		start, err := schedule.ParseTimeOfDay(q.Get("start"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", "start must be an HH:MM time")
			return
		}

		av, err := svc.IsFree(r.Context(), id, date, start)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, av)
	}
}

func providerAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlUUID(w, r, "id")
		if !ok {
			return
		}
		from, to, ok := dateRange(w, r, schedule.DateOf(svc.Now()))
		if !ok {
			return
		}

		list, err := svc.Query(r.Context(), id, from, to)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, AppointmentListResponse{Appointments: list})
	}
}
