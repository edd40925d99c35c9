package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careslot/clinic-booking/internal/notify"
	"github.com/careslot/clinic-booking/internal/observability/metrics"
)

// ScheduleInvalidator drops cached schedule views touched by a booking
// change. A nil invalidator is allowed.
type ScheduleInvalidator interface {
	Invalidate(ctx context.Context, departmentID uuid.UUID, date Date)
}

type BookRequest struct {
	ClientID     uuid.UUID
	DepartmentID uuid.UUID
	DoctorID     *uuid.UUID
	Date         Date
	SlotNumber   int
	Notes        string
	BookedBy     string
}

// Service is the single entry point for booking operations: validate the
// request against policy, reserve the slot, report the outcome.
type Service struct {
	ledger    Ledger
	engine    *PolicyEngine
	scorer    *Scorer
	penalties *PenaltyManager
	notifier  notify.Sender
	cache     ScheduleInvalidator
	metrics   *metrics.BookingMetrics
	log       zerolog.Logger
	clock     func() time.Time
}

func NewService(ledger Ledger, engine *PolicyEngine, scorer *Scorer, penalties *PenaltyManager, notifier notify.Sender, cache ScheduleInvalidator, m *metrics.BookingMetrics, log zerolog.Logger) *Service {
	return &Service{
		ledger:    ledger,
		engine:    engine,
		scorer:    scorer,
		penalties: penalties,
		notifier:  notifier,
		cache:     cache,
		metrics:   m,
		log:       log,
		clock:     time.Now,
	}
}

// BookAppointment validates and reserves a slot. A policy rejection comes
// back as *PolicyViolation; losing the slot to a concurrent request comes
// back as ErrSlotConflict so the caller can offer an alternative slot
// instead of re-presenting a form error.
func (s *Service) BookAppointment(ctx context.Context, req BookRequest) (*Appointment, error) {
	dept, err := s.ledger.GetDepartmentByID(ctx, req.DepartmentID)
	if err != nil {
		return nil, err
	}
	if !dept.IsActive {
		return nil, newValidationError("department", "department is not accepting bookings")
	}
	if req.SlotNumber < 1 || req.SlotNumber > dept.SlotsPerDay {
		return nil, newValidationError("slot_number",
			fmt.Sprintf("must be between 1 and %d", dept.SlotsPerDay))
	}
	if !dept.WorksOn(req.Date.Weekday()) {
		return nil, newValidationError("date",
			fmt.Sprintf("department is closed on %s", req.Date.Weekday()))
	}

	client, err := s.ledger.GetClientByID(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	decision, err := s.engine.Validate(ctx, req.ClientID, req.DepartmentID, req.Date, req.SlotNumber)
	if err != nil {
		return nil, fmt.Errorf("validate booking: %w", err)
	}
	if !decision.CanBook {
		for _, rule := range decision.Restrictions {
			s.metrics.ObservePolicyRejection(rule)
		}
		s.metrics.ObserveBooking("policy_rejected")
		return nil, &PolicyViolation{
			Restrictions: decision.Restrictions,
			Warnings:     decision.Warnings,
			ClientScore:  decision.ClientScore,
		}
	}

	appt, err := s.ledger.Reserve(ctx, ReserveParams{
		DepartmentID: req.DepartmentID,
		ClientID:     req.ClientID,
		DoctorID:     req.DoctorID,
		Date:         req.Date,
		SlotNumber:   req.SlotNumber,
		Notes:        req.Notes,
		BookedBy:     req.BookedBy,
	})
	if err != nil {
		if errors.Is(err, ErrSlotConflict) {
			s.metrics.ObserveSlotConflict()
			s.metrics.ObserveBooking("slot_conflict")
			return nil, ErrSlotConflict
		}
		s.metrics.ObserveBooking("error")
		return nil, fmt.Errorf("reserve slot: %w", err)
	}

	s.metrics.ObserveBooking("booked")
	s.invalidateSchedule(req.DepartmentID, req.Date)
	s.notifyAsync(client.Phone, fmt.Sprintf(
		"Your appointment at %s on %s (slot %d) is booked.",
		dept.Name, appt.Date, appt.SlotNumber))

	s.log.Info().
		Str("appointment_id", appt.ID.String()).
		Str("client_id", req.ClientID.String()).
		Str("department_id", req.DepartmentID.String()).
		Str("date", appt.Date.String()).
		Int("slot_number", appt.SlotNumber).
		Msg("appointment booked")

	return appt, nil
}

// CancelAppointment sets the appointment to cancelled. Cancelling an
// already-cancelled appointment is a no-op. A cancellation within 24 hours
// of the appointment earns a late-cancel penalty, applied best-effort.
func (s *Service) CancelAppointment(ctx context.Context, id uuid.UUID, cancelledBy string) (*Appointment, error) {
	current, err := s.ledger.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == StatusCancelled {
		return current, nil
	}

	appt, err := s.ledger.Release(ctx, id, StatusCancelled)
	if err != nil {
		return nil, err
	}

	if IsLateCancellation(appt.Date, s.clock()) {
		s.applyPenaltyBestEffort(ctx, appt.ClientID, PenaltyLateCancel,
			fmt.Sprintf("cancelled within 24h of appointment on %s by %s", appt.Date, cancelledBy))
	}

	s.invalidateSchedule(appt.DepartmentID, appt.Date)
	return appt, nil
}

// UpdateStatus moves an appointment through its lifecycle, guarded by the
// transition table. A transition to no_show earns a no-show penalty.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus Status) (*Appointment, error) {
	if !newStatus.Valid() {
		return nil, newValidationError("status", fmt.Sprintf("unknown status %q", newStatus))
	}

	appt, err := s.ledger.Release(ctx, id, newStatus)
	if err != nil {
		return nil, err
	}

	if newStatus == StatusNoShow {
		s.applyPenaltyBestEffort(ctx, appt.ClientID, PenaltyNoShow,
			fmt.Sprintf("missed appointment on %s", appt.Date))
	}

	if !newStatus.SlotOccupying() {
		s.invalidateSchedule(appt.DepartmentID, appt.Date)
	}
	return appt, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.ledger.GetAppointmentByID(ctx, id)
}

func (s *Service) Reliability(ctx context.Context, clientID uuid.UUID) (*ClientReliabilityScore, error) {
	if _, err := s.ledger.GetClientByID(ctx, clientID); err != nil {
		return nil, err
	}
	return s.scorer.Score(ctx, clientID)
}

// applyPenaltyBestEffort records a penalty without letting a failure abort
// the status change that triggered it.
func (s *Service) applyPenaltyBestEffort(ctx context.Context, clientID uuid.UUID, t PenaltyType, reason string) {
	if s.penalties == nil {
		return
	}
	if _, err := s.penalties.ApplyPenalty(ctx, clientID, t, reason); err != nil {
		s.log.Error().Err(err).
			Str("client_id", clientID.String()).
			Str("penalty_type", string(t)).
			Msg("penalty application failed")
	}
}

func (s *Service) invalidateSchedule(departmentID uuid.UUID, date Date) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.cache.Invalidate(ctx, departmentID, date)
}

func (s *Service) notifyAsync(phone, message string) {
	if s.notifier == nil || phone == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.Send(ctx, phone, message); err != nil {
			s.log.Warn().Err(err).Str("phone", phone).Msg("notification send failed")
		}
	}()
}
