package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// registry holds the session collectors apart from the Go runtime ones, so
// a CLI run exports only what the session did.
var (
	registry = prometheus.NewRegistry()
	factory  = promauto.With(registry)
)

var (
	// gradesTotal counts grade events applied to pool cards.
	// Labels: policy, grade
	gradesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recall",
		Subsystem: "session",
		Name:      "grades_total",
		Help:      "Total grade events applied to pool cards",
	}, []string{"policy", "grade"})

	requeues = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "recall",
		Subsystem: "session",
		Name:      "requeues_total",
		Help:      "Total cards put back into the pool after grading",
	})

	retirements = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "recall",
		Subsystem: "session",
		Name:      "retirements_total",
		Help:      "Total cards dropped from the pool as mastered",
	})

	// fallbacks counts reviews scheduled by the fixed backoff.
	fallbacks = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "recall",
		Subsystem: "session",
		Name:      "fallbacks_total",
		Help:      "Total reviews scheduled by the fallback backoff",
	})

	completed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "recall",
		Subsystem: "session",
		Name:      "completed_total",
		Help:      "Total sessions whose pool was exhausted",
	})

	poolSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "recall",
		Subsystem: "session",
		Name:      "pool_size",
		Help:      "Cards left in the most recently updated pool",
	})
)

// Gatherer returns the registry holding the session collectors.
func Gatherer() prometheus.Gatherer { return registry }

// WriteMetrics writes the session collectors to path in the Prometheus text
// format, atomically, for node_exporter's textfile collector.
func WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, registry)
}
