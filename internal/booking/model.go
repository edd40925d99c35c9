package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusBooked      Status = "booked"
	StatusConfirmed   Status = "confirmed"
	StatusArrived     Status = "arrived"
	StatusWaiting     Status = "waiting"
	StatusInProgress  Status = "in_progress"
	StatusCompleted   Status = "completed"
	StatusNoShow      Status = "no_show"
	StatusCancelled   Status = "cancelled"
	StatusRescheduled Status = "rescheduled"
)

// legalTransitions is the closed transition table for appointment statuses.
// Terminal statuses have no outgoing edges.
var legalTransitions = map[Status][]Status{
	StatusBooked:      {StatusConfirmed, StatusArrived, StatusWaiting, StatusCancelled, StatusNoShow, StatusRescheduled},
	StatusConfirmed:   {StatusArrived, StatusWaiting, StatusInProgress, StatusCancelled, StatusNoShow, StatusRescheduled},
	StatusArrived:     {StatusWaiting, StatusInProgress, StatusCompleted, StatusCancelled},
	StatusWaiting:     {StatusInProgress, StatusCompleted, StatusCancelled},
	StatusInProgress:  {StatusCompleted},
	StatusCompleted:   nil,
	StatusNoShow:      nil,
	StatusCancelled:   nil,
	StatusRescheduled: nil,
}

func (s Status) Valid() bool {
	_, ok := legalTransitions[s]
	return ok
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SlotOccupying reports whether an appointment in this status keeps its slot
// taken. Only cancellations and no-shows free a slot; a completed visit still
// occupied it.
func (s Status) SlotOccupying() bool {
	return s != StatusCancelled && s != StatusNoShow
}

// InFlight reports whether an appointment in this status still counts toward
// a client's pending-appointment quotas.
func (s Status) InFlight() bool {
	switch s {
	case StatusCancelled, StatusCompleted, StatusNoShow:
		return false
	}
	return true
}

type WorkingHours struct {
	Start string // "HH:MM"
	End   string
}

type Department struct {
	ID           uuid.UUID
	Name         string
	SlotsPerDay  int
	WorkingDays  []string // lowercase weekday names
	WorkingHours WorkingHours
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// WorksOn reports whether weekday (lowercase name) is one of the
// department's working days.
func (d Department) WorksOn(weekday string) bool {
	for _, w := range d.WorkingDays {
		if w == weekday {
			return true
		}
	}
	return false
}

// OpeningTime returns the hour and minute the department opens, or 00:00 if
// the working hours are malformed.
func (d Department) OpeningTime() (hour, min int) {
	var h, m int
	if _, err := fmt.Sscanf(d.WorkingHours.Start, "%d:%d", &h, &m); err != nil {
		return 0, 0
	}
	return h, m
}

type Client struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Appointment struct {
	ID           uuid.UUID
	ClientID     uuid.UUID
	DepartmentID uuid.UUID
	DoctorID     *uuid.UUID
	Date         Date
	SlotNumber   int
	Status       Status
	Notes        string
	BookedBy     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type PenaltyType string

const (
	PenaltyNoShow          PenaltyType = "no_show"
	PenaltyLateCancel      PenaltyType = "late_cancel"
	PenaltyMultipleBooking PenaltyType = "multiple_booking"
	PenaltyAbuseDetected   PenaltyType = "abuse_detected"
)

type ClientPenalty struct {
	ID           uuid.UUID
	ClientID     uuid.UUID
	PenaltyType  PenaltyType
	PenaltyDate  Date
	DurationDays int
	Reason       string
	IsActive     bool
	CreatedAt    time.Time
}

// EndDate is the first date on which the penalty no longer applies.
func (p ClientPenalty) EndDate() Date {
	return p.PenaltyDate.AddDays(p.DurationDays)
}

// ActiveAt is the single source of truth for "currently in effect": the
// stored flag and the date window combined.
func (p ClientPenalty) ActiveAt(today Date) bool {
	return p.IsActive && today.Before(p.EndDate())
}

type Tier string

const (
	TierExcellent  Tier = "EXCELLENT"
	TierGood       Tier = "GOOD"
	TierAverage    Tier = "AVERAGE"
	TierPoor       Tier = "POOR"
	TierRestricted Tier = "RESTRICTED"
)

// ClientReliabilityScore is derived from the trailing six months of a
// client's appointment history. It is never persisted.
type ClientReliabilityScore struct {
	ClientID                uuid.UUID
	Score                   float64
	Tier                    Tier
	TotalAppointments       int
	CompletedAppointments   int
	NoShows                 int
	LastMinuteCancellations int
	CompletionRate          float64
}
