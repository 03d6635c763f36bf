package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Batch outcomes recorded by EngineMetrics.ObserveBatch.
const (
	OutcomeCommitted    = "committed"
	OutcomeEmpty        = "empty"
	OutcomeNoCandidate  = "no_candidate"
	OutcomeStaleSamples = "stale_samples"
	OutcomeError        = "error"
)

// EngineMetrics holds the frontend's Prometheus collectors. A nil
// *EngineMetrics is valid and records nothing.
type EngineMetrics struct {
	Batches       *prometheus.CounterVec
	Variants      prometheus.Counter
	LoopsRemoved  prometheus.Counter
	Duplicates    prometheus.Counter
	Leftovers     prometheus.Counter
	BatchDuration prometheus.Histogram
}

// NewEngineMetrics registers the engine collectors with reg. Passing
// prometheus.DefaultRegisterer exposes them on the default /metrics
// handler.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	f := promauto.With(reg)
	return &EngineMetrics{
		Batches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slamfront_batches_total",
				Help: "Batches processed, labelled by outcome",
			},
			[]string{"outcome"},
		),
		Variants: f.NewCounter(prometheus.CounterOpts{
			Name: "slamfront_variants_total",
			Help: "Distinct variants generated",
		}),
		LoopsRemoved: f.NewCounter(prometheus.CounterOpts{
			Name: "slamfront_loops_removed_total",
			Help: "Merge combinations discarded because a cluster closed a loop",
		}),
		Duplicates: f.NewCounter(prometheus.CounterOpts{
			Name: "slamfront_duplicate_variants_total",
			Help: "Variants discarded as structural duplicates",
		}),
		Leftovers: f.NewCounter(prometheus.CounterOpts{
			Name: "slamfront_leftover_samples_total",
			Help: "Continuous samples carried into a later batch",
		}),
		BatchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name: "slamfront_batch_duration_seconds",
			Help: "Time spent generating, building, evaluating and committing one batch",
			// Small batches finish in microseconds; ten seeds can take seconds.
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
	}
}

// ObserveGeneration records the counts of one variant generation pass.
func (m *EngineMetrics) ObserveGeneration(variants, loops, duplicates int) {
	if m == nil {
		return
	}
	m.Variants.Add(float64(variants))
	m.LoopsRemoved.Add(float64(loops))
	m.Duplicates.Add(float64(duplicates))
}

// ObserveBatch records one finished batch.
func (m *EngineMetrics) ObserveBatch(outcome string, leftovers int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Batches.WithLabelValues(outcome).Inc()
	m.Leftovers.Add(float64(leftovers))
	m.BatchDuration.Observe(elapsed.Seconds())
}
