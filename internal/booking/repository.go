package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDepartmentNotFound  = errors.New("department not found")
	ErrClientNotFound      = errors.New("client not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrSlotConflict means a concurrent request won the slot. The unique
	// index on (department_id, slot_date, slot_number) for slot-occupying
	// statuses is the only source of this error.
	ErrSlotConflict = errors.New("slot already booked")

	ErrInvalidTransition = errors.New("invalid status transition")
)

// ReserveParams carries everything needed to insert a booking row.
type ReserveParams struct {
	DepartmentID uuid.UUID
	ClientID     uuid.UUID
	DoctorID     *uuid.UUID
	Date         Date
	SlotNumber   int
	Notes        string
	BookedBy     string
}

// HistoryRow is the slice of an appointment the reliability scorer needs.
type HistoryRow struct {
	Status      Status
	Date        Date
	CancelledAt *time.Time
}

// Ledger contains all DB interactions needed by the scheduling core.
type Ledger interface {
	GetDepartmentByID(ctx context.Context, id uuid.UUID) (*Department, error)
	ListActiveDepartments(ctx context.Context) ([]Department, error)
	GetClientByID(ctx context.Context, id uuid.UUID) (*Client, error)

	// Reserve atomically inserts a booked appointment. Two concurrent calls
	// for the same (department, date, slot) cannot both succeed; the loser
	// gets ErrSlotConflict.
	Reserve(ctx context.Context, p ReserveParams) (*Appointment, error)

	// Release updates the appointment status, guarded by the transition
	// table. Setting an already-terminal appointment to the same terminal
	// status is a no-op, not an error.
	Release(ctx context.Context, id uuid.UUID, newStatus Status) (*Appointment, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// Occupied bookings for the calendar view.
	ListOccupyingForRange(ctx context.Context, departmentID uuid.UUID, from, to Date) ([]Appointment, error)

	// Quota reads; "in flight" excludes cancelled, completed and no_show.
	CountInFlightForClient(ctx context.Context, clientID uuid.UUID) (int, error)
	CountInFlightForClientOnDate(ctx context.Context, clientID uuid.UUID, date Date) (int, error)
	CountInFlightForClientInDepartment(ctx context.Context, clientID, departmentID uuid.UUID) (int, error)

	// HistoryForClient returns appointments created after the cutoff.
	HistoryForClient(ctx context.Context, clientID uuid.UUID, createdAfter time.Time) ([]HistoryRow, error)

	// Past booked/confirmed appointments, for the no-show sweeper.
	FindOverdue(ctx context.Context, before Date) ([]Appointment, error)

	// Penalties.
	InsertPenalty(ctx context.Context, p ClientPenalty) (*ClientPenalty, error)
	ListPenaltiesForClient(ctx context.Context, clientID uuid.UUID) ([]ClientPenalty, error)
	CountPenaltiesOfTypeSince(ctx context.Context, clientID uuid.UUID, t PenaltyType, since Date) (int, error)
}
