package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careslot/clinic-booking/internal/settings"
)

// Decision is the outcome of policy validation for a proposed booking.
// Restrictions block; warnings are advisory only.
type Decision struct {
	CanBook      bool
	Restrictions []string
	Warnings     []string
	ClientScore  float64
}

// PolicyEngine gates every booking attempt. Rules accumulate: except for an
// active penalty, which ends evaluation immediately, every applicable
// restriction is collected so the caller sees the complete picture in one
// round trip.
type PolicyEngine struct {
	ledger    Ledger
	scorer    *Scorer
	penalties *PenaltyManager
	settings  settings.Store
	clock     func() time.Time
}

func NewPolicyEngine(ledger Ledger, scorer *Scorer, penalties *PenaltyManager, store settings.Store) *PolicyEngine {
	return &PolicyEngine{
		ledger:    ledger,
		scorer:    scorer,
		penalties: penalties,
		settings:  store,
		clock:     time.Now,
	}
}

// Validate checks a proposed booking against every configured rule.
func (e *PolicyEngine) Validate(ctx context.Context, clientID, departmentID uuid.UUID, date Date, slotNumber int) (*Decision, error) {
	restriction, err := e.penalties.IsCurrentlyRestricted(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if restriction.Restricted {
		return &Decision{
			CanBook: false,
			Restrictions: []string{
				fmt.Sprintf("Your account is restricted from booking until %s", restriction.PenaltyEndDate),
			},
		}, nil
	}

	dept, err := e.ledger.GetDepartmentByID(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	cfg := LoadPolicyConfig(ctx, e.settings)
	now := e.clock()
	today := DateOf(now)

	var restrictions []string

	// Lead-time rules, anchored at the department's opening time on the
	// requested date.
	openHour, openMin := dept.OpeningTime()
	anchor := date.At(openHour, openMin, now.Location())
	hoursUntil := anchor.Sub(now).Hours()
	daysUntil := today.DaysUntil(date)

	if hoursUntil < float64(cfg.MinAdvanceHours) {
		restrictions = append(restrictions,
			fmt.Sprintf("Appointments must be booked at least %d hours in advance", cfg.MinAdvanceHours))
	}
	if daysUntil > cfg.MaxFutureDays {
		restrictions = append(restrictions,
			fmt.Sprintf("Appointments can be booked at most %d days in advance", cfg.MaxFutureDays))
	}

	if date == today {
		if !cfg.SameDayEnabled {
			restrictions = append(restrictions, "Same-day booking is not available")
		} else if now.Hour() >= cfg.SameDayCutoffHour {
			restrictions = append(restrictions,
				fmt.Sprintf("Same-day booking closes at %02d:00", cfg.SameDayCutoffHour))
		}
	}

	// Quota rules, each evaluated independently.
	pending, err := e.ledger.CountInFlightForClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("count pending appointments: %w", err)
	}
	if pending >= cfg.MaxPending {
		restrictions = append(restrictions,
			fmt.Sprintf("Maximum %d pending appointments allowed", cfg.MaxPending))
	}

	sameDay, err := e.ledger.CountInFlightForClientOnDate(ctx, clientID, date)
	if err != nil {
		return nil, fmt.Errorf("count same-day appointments: %w", err)
	}
	if sameDay >= cfg.MaxDaily {
		restrictions = append(restrictions,
			fmt.Sprintf("Maximum %d appointments per day allowed", cfg.MaxDaily))
	}

	sameDept, err := e.ledger.CountInFlightForClientInDepartment(ctx, clientID, departmentID)
	if err != nil {
		return nil, fmt.Errorf("count same-department appointments: %w", err)
	}
	if sameDept >= cfg.MaxSameDeptPending {
		restrictions = append(restrictions,
			fmt.Sprintf("Maximum %d pending appointments allowed in the same department", cfg.MaxSameDeptPending))
	}

	score, err := e.scorer.Score(ctx, clientID)
	if err != nil {
		return nil, err
	}

	var warnings []string
	if score.Tier == TierPoor || score.Tier == TierAverage {
		warnings = append(warnings,
			fmt.Sprintf("Your reliability score is %.0f (%s); repeated no-shows may restrict your account", score.Score, score.Tier))
	}

	return &Decision{
		CanBook:      len(restrictions) == 0,
		Restrictions: restrictions,
		Warnings:     warnings,
		ClientScore:  score.Score,
	}, nil
}
