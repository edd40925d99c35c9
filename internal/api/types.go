package api

import (
	"time"

	"github.com/google/uuid"
)

type CreateAppointmentRequest struct {
	ClientID     string `json:"client_id" validate:"required,uuid"`
	DepartmentID string `json:"department_id" validate:"required,uuid"`
	DoctorID     string `json:"doctor_id,omitempty" validate:"omitempty,uuid"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	SlotNumber   int    `json:"slot_number" validate:"required,gte=1"`
	Notes        string `json:"notes,omitempty" validate:"max=500"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type AppointmentResponse struct {
	ID           uuid.UUID  `json:"id"`
	ClientID     uuid.UUID  `json:"client_id"`
	DepartmentID uuid.UUID  `json:"department_id"`
	DoctorID     *uuid.UUID `json:"doctor_id,omitempty"`
	Date         string     `json:"date"`
	SlotNumber   int        `json:"slot_number"`
	Status       string     `json:"status"`
	Notes        string     `json:"notes,omitempty"`
	BookedBy     string     `json:"booked_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type BookingRejectedResponse struct {
	Error        string   `json:"error"`
	Restrictions []string `json:"restrictions"`
	Warnings     []string `json:"warnings,omitempty"`
	ClientScore  float64  `json:"client_score"`
}

type ReliabilityResponse struct {
	ClientID                uuid.UUID `json:"client_id"`
	Score                   float64   `json:"score"`
	Tier                    string    `json:"tier"`
	TotalAppointments       int       `json:"total_appointments"`
	CompletedAppointments   int       `json:"completed_appointments"`
	NoShows                 int       `json:"no_shows"`
	LastMinuteCancellations int       `json:"last_minute_cancellations"`
	CompletionRate          float64   `json:"completion_rate"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
