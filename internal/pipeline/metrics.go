package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors of publish runs. A nil *Metrics
// records nothing.
type Metrics struct {
	runs        *prometheus.CounterVec
	inspected   prometheus.Counter
	staged      prometheus.Counter
	skipped     *prometheus.CounterVec
	promotions  *prometheus.CounterVec
	runDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventcatalog",
			Name:      "runs_total",
			Help:      "Publish runs by outcome.",
		}, []string{"outcome"}),
		inspected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventcatalog",
			Name:      "declarations_inspected_total",
			Help:      "Declarations inspected by the classifier.",
		}),
		staged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventcatalog",
			Name:      "events_staged_total",
			Help:      "Event records written to staging.",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventcatalog",
			Name:      "events_skipped_total",
			Help:      "Event declarations not staged, by reason.",
		}, []string{"reason"}),
		promotions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventcatalog",
			Name:      "promotions_total",
			Help:      "Promotion attempts by result.",
		}, []string{"result"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "eventcatalog",
			Name:      "run_duration_seconds",
			Help:      "Duration of publish runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.inspected, m.staged, m.skipped, m.promotions, m.runDuration)
	}
	return m
}

func (m *Metrics) inspectedDeclaration() {
	if m != nil {
		m.inspected.Inc()
	}
}

func (m *Metrics) stagedEvent() {
	if m != nil {
		m.staged.Inc()
	}
}

func (m *Metrics) skippedEvent(reason string) {
	if m != nil {
		m.skipped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) promotion(result string) {
	if m != nil {
		m.promotions.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) finishedRun(outcome string, seconds float64) {
	if m != nil {
		m.runs.WithLabelValues(outcome).Inc()
		m.runDuration.Observe(seconds)
	}
}
