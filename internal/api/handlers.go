package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/careslot/clinic-booking/internal/booking"
	"github.com/careslot/clinic-booking/internal/schedule"
)

type Handlers struct {
	bookings  *booking.Service
	schedules *schedule.Service
	sessions  SessionProvider
	validate  *validator.Validate
}

func NewHandlers(bookings *booking.Service, schedules *schedule.Service, sessions SessionProvider) *Handlers {
	return &Handlers{
		bookings:  bookings,
		schedules: schedules,
		sessions:  sessions,
		validate:  validator.New(),
	}
}

func (h *Handlers) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	clientID, _ := uuid.Parse(req.ClientID)
	departmentID, _ := uuid.Parse(req.DepartmentID)

	var doctorID *uuid.UUID
	if req.DoctorID != "" {
		id, _ := uuid.Parse(req.DoctorID)
		doctorID = &id
	}

	date, err := booking.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	bookedBy := "patient"
	if sess, ok := h.sessions.FromRequest(r); ok {
		bookedBy = sess.Role
	}

	appt, err := h.bookings.BookAppointment(r.Context(), booking.BookRequest{
		ClientID:     clientID,
		DepartmentID: departmentID,
		DoctorID:     doctorID,
		Date:         date,
		SlotNumber:   req.SlotNumber,
		Notes:        req.Notes,
		BookedBy:     bookedBy,
	})
	if err != nil {
		handleBookingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *Handlers) GetSchedule(w http.ResponseWriter, r *http.Request) {
	departmentID, err := uuid.Parse(r.URL.Query().Get("department_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_department_id", "department_id must be a valid UUID")
		return
	}

	start := booking.Today()
	if raw := r.URL.Query().Get("start_date"); raw != "" {
		start, err = booking.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_date", "start_date must be YYYY-MM-DD")
			return
		}
	}

	view, err := h.schedules.GetSchedule(r.Context(), departmentID, start, schedule.DefaultDays)
	if err != nil {
		handleBookingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return
	}

	appt, err := h.bookings.GetAppointment(r.Context(), id)
	if err != nil {
		handleBookingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *Handlers) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return
	}

	cancelledBy := "patient"
	if sess, ok := h.sessions.FromRequest(r); ok {
		cancelledBy = sess.Role
	}

	appt, err := h.bookings.CancelAppointment(r.Context(), id, cancelledBy)
	if err != nil {
		handleBookingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *Handlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	appt, err := h.bookings.UpdateStatus(r.Context(), id, booking.Status(req.Status))
	if err != nil {
		handleBookingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *Handlers) GetReliability(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_client_id", "id must be a valid UUID")
		return
	}

	score, err := h.bookings.Reliability(r.Context(), id)
	if err != nil {
		handleBookingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ReliabilityResponse{
		ClientID:                score.ClientID,
		Score:                   score.Score,
		Tier:                    string(score.Tier),
		TotalAppointments:       score.TotalAppointments,
		CompletedAppointments:   score.CompletedAppointments,
		NoShows:                 score.NoShows,
		LastMinuteCancellations: score.LastMinuteCancellations,
		CompletionRate:          score.CompletionRate,
	})
}

func handleBookingError(w http.ResponseWriter, err error) {
	var policyErr *booking.PolicyViolation
	var valErr *booking.ValidationError

	switch {
	case errors.As(err, &policyErr):
		writeJSON(w, http.StatusUnprocessableEntity, BookingRejectedResponse{
			Error:        "policy_violation",
			Restrictions: policyErr.Restrictions,
			Warnings:     policyErr.Warnings,
			ClientScore:  policyErr.ClientScore,
		})
	case errors.Is(err, booking.ErrSlotConflict):
		writeError(w, http.StatusConflict, "slot_conflict", "slot was just taken, please pick another")
	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, booking.ErrDepartmentNotFound),
		errors.Is(err, booking.ErrClientNotFound),
		errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.As(err, &valErr):
		writeError(w, http.StatusBadRequest, "invalid_request", valErr.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:           a.ID,
		ClientID:     a.ClientID,
		DepartmentID: a.DepartmentID,
		DoctorID:     a.DoctorID,
		Date:         a.Date.String(),
		SlotNumber:   a.SlotNumber,
		Status:       string(a.Status),
		Notes:        a.Notes,
		BookedBy:     a.BookedBy,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
