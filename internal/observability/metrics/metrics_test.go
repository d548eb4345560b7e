package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCreated(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSchedulingMetrics(reg)

	m.ObserveCreated("none", 1)
	m.ObserveCreated("weekly", 6)

	if got := testutil.ToFloat64(m.createdTotal.WithLabelValues("weekly")); got != 6 {
		t.Errorf("weekly created = %v, want 6", got)
	}
	if got := testutil.ToFloat64(m.createdTotal.WithLabelValues("none")); got != 1 {
		t.Errorf("none created = %v, want 1", got)
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *SchedulingMetrics
	m.ObserveCreated("daily", 1)
	m.ObserveConflict()
	m.ObserveExpansion(10)
	m.ObserveValidation(0.2)
}
