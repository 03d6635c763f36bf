package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gathered(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			for _, l := range m.GetLabel() {
				name += "/" + l.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				out[name] = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				out[name] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func TestEngineMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewEngineMetrics(reg)

	m.ObserveGeneration(5, 2, 1)
	m.ObserveGeneration(3, 0, 0)
	m.ObserveBatch(OutcomeCommitted, 4, 3*time.Millisecond)
	m.ObserveBatch(OutcomeNoCandidate, 0, time.Millisecond)
	m.ObserveBatch(OutcomeCommitted, 1, time.Millisecond)

	got := gathered(t, reg)
	assert.Equal(t, 8.0, got["slamfront_variants_total"])
	assert.Equal(t, 2.0, got["slamfront_loops_removed_total"])
	assert.Equal(t, 1.0, got["slamfront_duplicate_variants_total"])
	assert.Equal(t, 5.0, got["slamfront_leftover_samples_total"])
	assert.Equal(t, 2.0, got["slamfront_batches_total/committed"])
	assert.Equal(t, 1.0, got["slamfront_batches_total/no_candidate"])
	assert.Equal(t, 3.0, got["slamfront_batch_duration_seconds"])
}

func TestEngineMetrics_Nil(t *testing.T) {
	t.Parallel()

	var m *EngineMetrics
	assert.NotPanics(t, func() {
		m.ObserveGeneration(1, 1, 1)
		m.ObserveBatch(OutcomeError, 1, time.Second)
	})
}

func TestNewEngineMetrics_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	NewEngineMetrics(reg)
	assert.Panics(t, func() { NewEngineMetrics(reg) })
}
