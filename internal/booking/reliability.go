package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careslot/clinic-booking/internal/settings"
)

// historyWindow is how far back the scorer looks, by appointment creation
// time.
const historyWindow = 6 // months

// lateCancelWindow: a cancellation inside this window before the scheduled
// time counts as last-minute.
const lateCancelWindow = 24 * time.Hour

// Scorer derives a 0-100 reliability score from a client's trailing
// appointment history.
type Scorer struct {
	ledger   Ledger
	settings settings.Store
	clock    func() time.Time
}

func NewScorer(ledger Ledger, store settings.Store) *Scorer {
	return &Scorer{
		ledger:   ledger,
		settings: store,
		clock:    time.Now,
	}
}

// Score computes the reliability score for a client.
//
// Note on the arithmetic: the completion rate already drops when an
// appointment ends as no_show instead of completed, and the formula then
// subtracts 10 per no-show and 5 per last-minute cancellation on top of
// that. No-shows are deliberately penalized harder than ordinary
// incompletion; keep both terms.
func (s *Scorer) Score(ctx context.Context, clientID uuid.UUID) (*ClientReliabilityScore, error) {
	now := s.clock()
	cutoff := now.AddDate(0, -historyWindow, 0)

	history, err := s.ledger.HistoryForClient(ctx, clientID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("load client history: %w", err)
	}

	result := &ClientReliabilityScore{ClientID: clientID}
	for _, h := range history {
		result.TotalAppointments++
		switch h.Status {
		case StatusCompleted:
			result.CompletedAppointments++
		case StatusNoShow:
			result.NoShows++
		case StatusCancelled:
			if h.CancelledAt != nil && IsLateCancellation(h.Date, *h.CancelledAt) {
				result.LastMinuteCancellations++
			}
		}
	}

	if result.TotalAppointments == 0 {
		result.CompletionRate = 100
	} else {
		result.CompletionRate = float64(result.CompletedAppointments) / float64(result.TotalAppointments) * 100
	}

	score := result.CompletionRate - 10*float64(result.NoShows) - 5*float64(result.LastMinuteCancellations)
	result.Score = clamp(score, 0, 100)
	result.Tier = LoadScoringConfig(ctx, s.settings).TierFor(result.Score)

	return result, nil
}

// IsLateCancellation reports whether a cancellation at cancelledAt happened
// within 24 hours of the appointment's scheduled date.
func IsLateCancellation(date Date, cancelledAt time.Time) bool {
	scheduled := date.Time(cancelledAt.Location())
	return scheduled.Sub(cancelledAt) < lateCancelWindow
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
