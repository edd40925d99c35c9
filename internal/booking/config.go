package booking

import (
	"context"

	"github.com/careslot/clinic-booking/internal/settings"
)

// Setting keys, matching rows in system_settings.
const (
	KeyMinAdvanceHours     = "booking.min_advance_hours"
	KeyMaxFutureDays       = "booking.max_future_days"
	KeySameDayEnabled      = "booking.same_day_enabled"
	KeySameDayCutoffHour   = "booking.same_day_cutoff_hour"
	KeyMaxPending          = "booking.max_pending_appointments"
	KeyMaxDaily            = "booking.max_daily_appointments"
	KeyMaxSameDeptPending  = "booking.max_same_department_pending"
	KeyTierExcellent       = "scoring.tier_excellent"
	KeyTierGood            = "scoring.tier_good"
	KeyTierAverage         = "scoring.tier_average"
	KeyTierPoor            = "scoring.tier_poor"
	KeyFirstOffenseDays    = "penalty.first_offense_days"
	KeySecondOffenseDays   = "penalty.second_offense_days"
	KeyThirdOffenseDays    = "penalty.third_offense_days"
	KeyChronicOffenderDays = "penalty.chronic_offender_days"
)

type PolicyConfig struct {
	MinAdvanceHours    int
	MaxFutureDays      int
	SameDayEnabled     bool
	SameDayCutoffHour  int
	MaxPending         int
	MaxDaily           int
	MaxSameDeptPending int
}

func LoadPolicyConfig(ctx context.Context, s settings.Store) PolicyConfig {
	return PolicyConfig{
		MinAdvanceHours:    settings.GetInt(ctx, s, KeyMinAdvanceHours, 2),
		MaxFutureDays:      settings.GetInt(ctx, s, KeyMaxFutureDays, 30),
		SameDayEnabled:     settings.GetBool(ctx, s, KeySameDayEnabled, true),
		SameDayCutoffHour:  settings.GetInt(ctx, s, KeySameDayCutoffHour, 12),
		MaxPending:         settings.GetInt(ctx, s, KeyMaxPending, 2),
		MaxDaily:           settings.GetInt(ctx, s, KeyMaxDaily, 1),
		MaxSameDeptPending: settings.GetInt(ctx, s, KeyMaxSameDeptPending, 1),
	}
}

type ScoringConfig struct {
	TierExcellent float64
	TierGood      float64
	TierAverage   float64
	TierPoor      float64
}

func LoadScoringConfig(ctx context.Context, s settings.Store) ScoringConfig {
	return ScoringConfig{
		TierExcellent: settings.GetFloat(ctx, s, KeyTierExcellent, 90),
		TierGood:      settings.GetFloat(ctx, s, KeyTierGood, 75),
		TierAverage:   settings.GetFloat(ctx, s, KeyTierAverage, 60),
		TierPoor:      settings.GetFloat(ctx, s, KeyTierPoor, 40),
	}
}

func (c ScoringConfig) TierFor(score float64) Tier {
	switch {
	case score >= c.TierExcellent:
		return TierExcellent
	case score >= c.TierGood:
		return TierGood
	case score >= c.TierAverage:
		return TierAverage
	case score >= c.TierPoor:
		return TierPoor
	default:
		return TierRestricted
	}
}

type EscalationConfig struct {
	FirstOffenseDays    int
	SecondOffenseDays   int
	ThirdOffenseDays    int
	ChronicOffenderDays int
}

func LoadEscalationConfig(ctx context.Context, s settings.Store) EscalationConfig {
	return EscalationConfig{
		FirstOffenseDays:    settings.GetInt(ctx, s, KeyFirstOffenseDays, 3),
		SecondOffenseDays:   settings.GetInt(ctx, s, KeySecondOffenseDays, 7),
		ThirdOffenseDays:    settings.GetInt(ctx, s, KeyThirdOffenseDays, 14),
		ChronicOffenderDays: settings.GetInt(ctx, s, KeyChronicOffenderDays, 30),
	}
}

// DurationForOffense maps the count of prior same-type penalties in the
// trailing 30 days to the next penalty duration.
func (c EscalationConfig) DurationForOffense(priors int) int {
	switch {
	case priors <= 0:
		return c.FirstOffenseDays
	case priors == 1:
		return c.SecondOffenseDays
	case priors == 2:
		return c.ThirdOffenseDays
	default:
		return c.ChronicOffenderDays
	}
}
