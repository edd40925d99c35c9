package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careslot/clinic-booking/internal/settings"
)

// Tuesday morning, well inside working hours.
var policyNow = time.Date(2025, time.June, 10, 9, 0, 0, 0, time.UTC)

func newTestEngine(ledger *fakeLedger, store settings.Store, now time.Time) *PolicyEngine {
	if store == nil {
		store = settings.Static{}
	}
	scorer := NewScorer(ledger, store)
	scorer.clock = func() time.Time { return now }
	penalties := NewPenaltyManager(ledger, store, zerolog.Nop())
	penalties.clock = func() time.Time { return now }
	engine := NewPolicyEngine(ledger, scorer, penalties, store)
	engine.clock = func() time.Time { return now }
	return engine
}

func weekdayDepartment(ledger *fakeLedger) *Department {
	return ledger.addDepartment(Department{
		Name:         "Dermatology",
		SlotsPerDay:  3,
		WorkingDays:  []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		WorkingHours: WorkingHours{Start: "09:00", End: "17:00"},
		IsActive:     true,
	})
}

func TestValidateAcceptsCleanRequest(t *testing.T) {
	ledger := newFakeLedger()
	dept := weekdayDepartment(ledger)
	clientID := uuid.New()

	d, err := newTestEngine(ledger, nil, policyNow).Validate(
		context.Background(), clientID, dept.ID, DateOf(policyNow).AddDays(7), 1)
	require.NoError(t, err)

	assert.True(t, d.CanBook)
	assert.Empty(t, d.Restrictions)
	assert.Empty(t, d.Warnings)
	assert.InDelta(t, 100, d.ClientScore, 0.001)
}

func TestValidateActivePenaltyShortCircuits(t *testing.T) {
	ledger := newFakeLedger()
	dept := weekdayDepartment(ledger)
	clientID := uuid.New()
	today := DateOf(policyNow)

	ledger.penalties = append(ledger.penalties, ClientPenalty{
		ClientID:     clientID,
		PenaltyType:  PenaltyNoShow,
		PenaltyDate:  today,
		DurationDays: 7,
		IsActive:     true,
	})
	// Would also violate the daily quota, but the penalty check returns
	// before any other rule runs.
	ledger.addAppointment(Appointment{
		ClientID:     clientID,
		DepartmentID: dept.ID,
		Date:         today.AddDays(7),
		SlotNumber:   2,
		Status:       StatusBooked,
	})

	d, err := newTestEngine(ledger, nil, policyNow).Validate(
		context.Background(), clientID, dept.ID, today.AddDays(7), 1)
	require.NoError(t, err)

	assert.False(t, d.CanBook)
	require.Len(t, d.Restrictions, 1)
	assert.Contains(t, d.Restrictions[0], today.AddDays(7).String())
}

func TestValidateAccumulatesRestrictions(t *testing.T) {
	ledger := newFakeLedger()
	dept := weekdayDepartment(ledger)
	clientID := uuid.New()
	today := DateOf(policyNow)

	// Same-day request at the department's opening time: lead-time fires.
	// An existing in-flight booking on the same date: daily quota fires.
	// Both must come back in the same decision.
	other := weekdayDepartment(ledger)
	ledger.addAppointment(Appointment{
		ClientID:     clientID,
		DepartmentID: other.ID,
		Date:         today,
		SlotNumber:   1,
		Status:       StatusConfirmed,
	})

	d, err := newTestEngine(ledger, nil, policyNow).Validate(
		context.Background(), clientID, dept.ID, today, 1)
	require.NoError(t, err)

	assert.False(t, d.CanBook)
	assert.Contains(t, d.Restrictions, "Appointments must be booked at least 2 hours in advance")
	assert.Contains(t, d.Restrictions, "Maximum 1 appointments per day allowed")
}

func TestValidateDailyQuotaCrossesDepartments(t *testing.T) {
	ledger := newFakeLedger()
	deptA := weekdayDepartment(ledger)
	deptB := weekdayDepartment(ledger)
	clientID := uuid.New()
	date := DateOf(policyNow).AddDays(7)

	ledger.addAppointment(Appointment{
		ClientID:     clientID,
		DepartmentID: deptA.ID,
		Date:         date,
		SlotNumber:   1,
		Status:       StatusBooked,
	})

	d, err := newTestEngine(ledger, nil, policyNow).Validate(
		context.Background(), clientID, deptB.ID, date, 1)
	require.NoError(t, err)

	assert.False(t, d.CanBook)
	assert.Contains(t, d.Restrictions, "Maximum 1 appointments per day allowed")
}

func TestValidateMaxFutureDays(t *testing.T) {
	ledger := newFakeLedger()
	dept := weekdayDepartment(ledger)

	d, err := newTestEngine(ledger, nil, policyNow).Validate(
		context.Background(), uuid.New(), dept.ID, DateOf(policyNow).AddDays(45), 1)
	require.NoError(t, err)

	assert.False(t, d.CanBook)
	assert.Contains(t, d.Restrictions, "Appointments can be booked at most 30 days in advance")
}

func TestValidateSameDayRules(t *testing.T) {
	ledger := newFakeLedger()
	dept := weekdayDepartment(ledger)
	today := DateOf(policyNow)

	// Past the cutoff hour.
	afternoon := time.Date(2025, time.June, 10, 14, 0, 0, 0, time.UTC)
	d, err := newTestEngine(ledger, nil, afternoon).Validate(
		context.Background(), uuid.New(), dept.ID, today, 1)
	require.NoError(t, err)
	assert.Contains(t, d.Restrictions, "Same-day booking closes at 12:00")

	// Same-day booking disabled outright.
	store := settings.Static{KeySameDayEnabled: "false"}
	d, err = newTestEngine(ledger, store, policyNow).Validate(
		context.Background(), uuid.New(), dept.ID, today, 1)
	require.NoError(t, err)
	assert.Contains(t, d.Restrictions, "Same-day booking is not available")
}

func TestValidateQuotaMessagesInterpolateThresholds(t *testing.T) {
	ledger := newFakeLedger()
	dept := weekdayDepartment(ledger)
	clientID := uuid.New()
	date := DateOf(policyNow).AddDays(7)

	for i := 0; i < 2; i++ {
		ledger.addAppointment(Appointment{
			ClientID:     clientID,
			DepartmentID: dept.ID,
			Date:         date.AddDays(i + 1),
			SlotNumber:   i + 1,
			Status:       StatusBooked,
		})
	}

	d, err := newTestEngine(ledger, nil, policyNow).Validate(
		context.Background(), clientID, dept.ID, date, 1)
	require.NoError(t, err)

	assert.False(t, d.CanBook)
	assert.Contains(t, d.Restrictions, "Maximum 2 pending appointments allowed")
	assert.Contains(t, d.Restrictions, "Maximum 1 pending appointments allowed in the same department")
}

func TestValidateLowTierWarnsButNeverBlocks(t *testing.T) {
	ledger := newFakeLedger()
	dept := weekdayDepartment(ledger)
	clientID := uuid.New()

	// completionRate 50, score 40: POOR under defaults.
	ledger.history[clientID] = []HistoryRow{
		{Status: StatusCompleted, Date: NewDate(2025, time.May, 1)},
		{Status: StatusNoShow, Date: NewDate(2025, time.May, 2)},
	}

	d, err := newTestEngine(ledger, nil, policyNow).Validate(
		context.Background(), clientID, dept.ID, DateOf(policyNow).AddDays(7), 1)
	require.NoError(t, err)

	assert.True(t, d.CanBook)
	require.Len(t, d.Warnings, 1)
	assert.Contains(t, d.Warnings[0], "POOR")
	assert.InDelta(t, 40, d.ClientScore, 0.001)
}

func TestValidateUnknownDepartment(t *testing.T) {
	ledger := newFakeLedger()
	_, err := newTestEngine(ledger, nil, policyNow).Validate(
		context.Background(), uuid.New(), uuid.New(), DateOf(policyNow).AddDays(7), 1)
	assert.ErrorIs(t, err, ErrDepartmentNotFound)
}
