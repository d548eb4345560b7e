package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for appointment flows.
type SchedulingMetrics struct {
	createdTotal     *prometheus.CounterVec
	conflictsTotal   prometheus.Counter
	expansionSize    prometheus.Histogram
	validateDuration prometheus.Histogram
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		createdTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "appointments_created_total",
			Help:      "Total appointments created, by recurrence kind",
		}, []string{"recurrence"}),
		conflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "time_conflicts_total",
			Help:      "Total creations rejected by conflict validation",
		}),
		expansionSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "recurrence_expansion_size",
			Help:      "Number of instances produced per recurrence expansion",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 52},
		}),
		validateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "conflict_validation_seconds",
			Help:      "Latency of batch conflict validation",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.createdTotal, m.conflictsTotal, m.expansionSize, m.validateDuration)
	return m
}

func (m *SchedulingMetrics) ObserveCreated(recurrence string, count int) {
	if m == nil {
		return
	}
	m.createdTotal.WithLabelValues(recurrence).Add(float64(count))
}

func (m *SchedulingMetrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.conflictsTotal.Inc()
}

func (m *SchedulingMetrics) ObserveExpansion(size int) {
	if m == nil {
		return
	}
	m.expansionSize.Observe(float64(size))
}

func (m *SchedulingMetrics) ObserveValidation(seconds float64) {
	if m == nil {
		return
	}
	m.validateDuration.Observe(seconds)
}
