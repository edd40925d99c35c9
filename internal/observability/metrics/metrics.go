package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for the scheduling core. All methods are
// nil-safe so callers can run without metrics wired.
type BookingMetrics struct {
	bookingsTotal     *prometheus.CounterVec
	policyRejections  *prometheus.CounterVec
	slotConflicts     prometheus.Counter
	scheduleCacheHits *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbook",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		policyRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbook",
			Subsystem: "scheduling",
			Name:      "policy_rejections_total",
			Help:      "Policy restrictions fired, by rule message",
		}, []string{"rule"}),
		slotConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinicbook",
			Subsystem: "scheduling",
			Name:      "slot_conflicts_total",
			Help:      "Reserve attempts lost to a concurrent booking",
		}),
		scheduleCacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbook",
			Subsystem: "schedule",
			Name:      "cache_requests_total",
			Help:      "Schedule cache lookups by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.policyRejections, m.slotConflicts, m.scheduleCacheHits)
	return m
}

func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObservePolicyRejection(rule string) {
	if m == nil {
		return
	}
	m.policyRejections.WithLabelValues(rule).Inc()
}

func (m *BookingMetrics) ObserveSlotConflict() {
	if m == nil {
		return
	}
	m.slotConflicts.Inc()
}

func (m *BookingMetrics) ObserveScheduleCache(result string) {
	if m == nil {
		return
	}
	m.scheduleCacheHits.WithLabelValues(result).Inc()
}
