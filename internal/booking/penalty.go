package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careslot/clinic-booking/internal/settings"
)

// escalationLookback is the window over which prior same-type penalties
// escalate the next one.
const escalationLookback = 30 // days

// Restriction answers "may this client book right now".
type Restriction struct {
	Restricted     bool
	PenaltyEndDate Date
}

// PenaltyManager records penalties and escalates their duration with repeat
// offenses.
type PenaltyManager struct {
	ledger   Ledger
	settings settings.Store
	log      zerolog.Logger
	clock    func() time.Time
}

func NewPenaltyManager(ledger Ledger, store settings.Store, log zerolog.Logger) *PenaltyManager {
	return &PenaltyManager{
		ledger:   ledger,
		settings: store,
		log:      log,
		clock:    time.Now,
	}
}

// IsCurrentlyRestricted reports whether the client has a penalty in effect
// today. When several are active the latest end date wins.
func (m *PenaltyManager) IsCurrentlyRestricted(ctx context.Context, clientID uuid.UUID) (Restriction, error) {
	penalties, err := m.ledger.ListPenaltiesForClient(ctx, clientID)
	if err != nil {
		return Restriction{}, fmt.Errorf("list penalties: %w", err)
	}

	today := DateOf(m.clock())
	var result Restriction
	for _, p := range penalties {
		if !p.ActiveAt(today) {
			continue
		}
		if end := p.EndDate(); !result.Restricted || result.PenaltyEndDate.Before(end) {
			result.PenaltyEndDate = end
		}
		result.Restricted = true
	}
	return result, nil
}

// ApplyPenalty records a new penalty for the client. The duration escalates
// with the number of same-type penalties in the trailing 30 days. Callers
// treat failures as best-effort: a penalty that cannot be written must not
// abort the status change that triggered it.
func (m *PenaltyManager) ApplyPenalty(ctx context.Context, clientID uuid.UUID, t PenaltyType, reason string) (*ClientPenalty, error) {
	today := DateOf(m.clock())
	since := today.AddDays(-escalationLookback)

	priors, err := m.ledger.CountPenaltiesOfTypeSince(ctx, clientID, t, since)
	if err != nil {
		return nil, fmt.Errorf("count prior penalties: %w", err)
	}

	cfg := LoadEscalationConfig(ctx, m.settings)
	penalty := ClientPenalty{
		ClientID:     clientID,
		PenaltyType:  t,
		PenaltyDate:  today,
		DurationDays: cfg.DurationForOffense(priors),
		Reason:       reason,
		IsActive:     true,
	}

	inserted, err := m.ledger.InsertPenalty(ctx, penalty)
	if err != nil {
		return nil, fmt.Errorf("insert penalty: %w", err)
	}

	m.log.Info().
		Str("client_id", clientID.String()).
		Str("penalty_type", string(t)).
		Int("priors_30d", priors).
		Int("duration_days", inserted.DurationDays).
		Msg("penalty applied")

	return inserted, nil
}
