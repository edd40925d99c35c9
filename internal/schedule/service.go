package schedule

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/careslot/clinic-booking/internal/booking"
	"github.com/careslot/clinic-booking/internal/observability/metrics"
)

// DefaultDays is the schedule window served by the API.
const DefaultDays = 7

// Ledger is the read surface the schedule view needs.
type Ledger interface {
	GetDepartmentByID(ctx context.Context, id uuid.UUID) (*booking.Department, error)
	ListOccupyingForRange(ctx context.Context, departmentID uuid.UUID, from, to booking.Date) ([]booking.Appointment, error)
}

// Service serves schedule views, through the cache when one is wired.
type Service struct {
	ledger  Ledger
	cache   *Cache
	metrics *metrics.BookingMetrics
}

func NewService(ledger Ledger, cache *Cache, m *metrics.BookingMetrics) *Service {
	return &Service{ledger: ledger, cache: cache, metrics: m}
}

// GetSchedule returns the day-by-day availability view for a department
// starting at start.
func (s *Service) GetSchedule(ctx context.Context, departmentID uuid.UUID, start booking.Date, days int) ([]DaySchedule, error) {
	if days <= 0 {
		days = DefaultDays
	}

	if view := s.cache.Get(ctx, departmentID, start, days); view != nil {
		s.metrics.ObserveScheduleCache("hit")
		return view, nil
	}
	s.metrics.ObserveScheduleCache("miss")

	dept, err := s.ledger.GetDepartmentByID(ctx, departmentID)
	if err != nil {
		return nil, err
	}

	bookings, err := s.ledger.ListOccupyingForRange(ctx, departmentID, start, start.AddDays(days-1))
	if err != nil {
		return nil, fmt.Errorf("list bookings for schedule: %w", err)
	}

	view := BuildSchedule(*dept, bookings, start, days)
	s.cache.Set(ctx, departmentID, start, days, view)
	return view, nil
}
