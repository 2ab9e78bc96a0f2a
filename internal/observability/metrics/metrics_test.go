package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveCatalogLoad("services", "loaded")
	m.ObserveSlotLookup("loaded")
	m.ObserveStep("resolving_customer", true, 20*time.Millisecond)
	m.ObserveHistoryLookup("found")
	m.ObserveAttempt("succeeded", "")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.catalogLoads.WithLabelValues("services", "loaded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingAttempts.WithLabelValues("succeeded", "none")))
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveCatalogLoad("services", "failed")
	m.ObserveSlotLookup("unavailable")
	m.ObserveAttempt("failed", "submitting_reservation")
	m.ObserveStep("submitting_reservation", false, time.Second)
	m.ObserveHistoryLookup("failed")
}

func TestSnapshotOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveAttempt("succeeded", "")
	m.ObserveAttempt("succeeded", "")
	m.ObserveAttempt("failed", "submitting_reservation")
	m.ObserveAttempt("failed", "submitting_reservation")
	m.ObserveAttempt("failed", "resolving_customer")
	m.ObserveAttempt("rejected", "idle")

	snap := SnapshotOutcomes(reg)
	assert.Equal(t, int64(2), snap.Succeeded)
	assert.Equal(t, int64(3), snap.Failed)
	assert.Equal(t, int64(1), snap.Rejected)
	require.Len(t, snap.FailingSteps, 2)
	assert.Equal(t, "submitting_reservation", snap.FailingSteps[0])
	assert.Equal(t, int64(2), snap.FailedByStep["submitting_reservation"])
}

func TestSnapshotOutcomesEmptyRegistry(t *testing.T) {
	snap := SnapshotOutcomes(prometheus.NewRegistry())
	assert.Zero(t, snap.Succeeded)
	assert.Empty(t, snap.FailingSteps)
}
