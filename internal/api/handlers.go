package api

import (
	"net/http"

	"github.com/hackgods/clinic-scheduling/internal/appointment"
	"github.com/hackgods/clinic-scheduling/internal/recurring"
)

func createAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		booking, err := svc.Book(r.Context(), req.Draft, appointment.BookOptions{AllowOffHours: req.AllowOffHours})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, booking)
	}
}

func getAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlUUID(w, r, "id")
		if !ok {
			return
		}

		appt, err := svc.Get(r.Context(), id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, appt)
	}
}

func editAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlUUID(w, r, "id")
		if !ok {
			return
		}

		var req BookRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		booking, err := svc.Edit(r.Context(), id, req.Draft, appointment.BookOptions{AllowOffHours: req.AllowOffHours})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, booking)
	}
}

func removeAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlUUID(w, r, "id")
		if !ok {
			return
		}

		if err := svc.Remove(r.Context(), id); err != nil {
			handleServiceError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func rescheduleAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlUUID(w, r, "id")
		if !ok {
			return
		}

		var req RescheduleRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Date == nil || req.StartTime == nil {
			writeError(w, http.StatusUnprocessableEntity, "validation_failed", "date and start_time are required")
			return
		}

		booking, err := svc.Reschedule(r.Context(), id, *req.Date, *req.StartTime, appointment.BookOptions{AllowOffHours: req.AllowOffHours})
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, booking)
	}
}

func setStatusHandler(svc *appointment.Service, to appointment.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlUUID(w, r, "id")
		if !ok {
			return
		}

		appt, err := svc.SetStatus(r.Context(), id, to)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, appt)
	}
}

func duplicateAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlUUID(w, r, "id")
		if !ok {
			return
		}

		dup, err := svc.Duplicate(r.Context(), id)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, dup)
	}
}

func recurringOccurrencesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var entry recurring.Entry
		if !decodeJSON(w, r, &entry) {
			return
		}

		occ, err := recurring.Occurrences(entry)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}

		resp := OccurrencesResponse{Occurrences: occ}
		for _, o := range occ {
			resp.Total += o.Amount
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
