package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "salon"
	subsystem = "booking"
)

// BookingMetrics exposes counters/histograms for the booking widget flows.
type BookingMetrics struct {
	catalogLoads    *prometheus.CounterVec
	slotLookups     *prometheus.CounterVec
	bookingAttempts *prometheus.CounterVec
	stepLatency     *prometheus.HistogramVec
	historyLookups  *prometheus.CounterVec
}

// NewBookingMetrics registers the booking collectors on reg, or on the
// default registerer when reg is nil. All methods are safe on a nil receiver.
func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		catalogLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "catalog_loads_total",
			Help:      "Catalog loads by catalog (services, stylists) and result state",
		}, []string{"catalog", "state"}),
		slotLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "slot_lookups_total",
			Help:      "Availability lookups by result state",
		}, []string{"state"}),
		bookingAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "attempts_total",
			Help:      "Booking submissions by terminal outcome and failing step",
		}, []string{"outcome", "step"}),
		stepLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "step_latency_seconds",
			Help:      "Latency of each booking orchestration step",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step", "status"}),
		historyLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "history_lookups_total",
			Help:      "Reservation history lookups by result state",
		}, []string{"state"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.catalogLoads, m.slotLookups, m.bookingAttempts, m.stepLatency, m.historyLookups)
	return m
}

// ObserveCatalogLoad counts one services or stylists load by result state.
func (m *BookingMetrics) ObserveCatalogLoad(catalog, state string) {
	if m == nil {
		return
	}
	m.catalogLoads.WithLabelValues(catalog, state).Inc()
}

// ObserveSlotLookup counts one availability lookup by view state.
func (m *BookingMetrics) ObserveSlotLookup(state string) {
	if m == nil {
		return
	}
	m.slotLookups.WithLabelValues(state).Inc()
}

// ObserveAttempt records a terminal booking outcome. step is empty for
// successes.
func (m *BookingMetrics) ObserveAttempt(outcome, step string) {
	if m == nil {
		return
	}
	if step == "" {
		step = "none"
	}
	m.bookingAttempts.WithLabelValues(outcome, step).Inc()
}

// ObserveStep records how long one orchestration step took and whether it
// succeeded.
func (m *BookingMetrics) ObserveStep(step string, ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.stepLatency.WithLabelValues(step, status).Observe(elapsed.Seconds())
}

// ObserveHistoryLookup counts one history lookup by view state.
func (m *BookingMetrics) ObserveHistoryLookup(state string) {
	if m == nil {
		return
	}
	m.historyLookups.WithLabelValues(state).Inc()
}
