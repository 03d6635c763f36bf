package variants

import (
	"errors"
	"fmt"

	"github.com/banshee-data/slamfront/internal/cluster"
	"github.com/banshee-data/slamfront/internal/combine"
	"github.com/banshee-data/slamfront/internal/measurement"
	"github.com/banshee-data/slamfront/internal/slamerr"
)

// DefaultMaxSeedClusters bounds the number of seed clusters per batch.
// Variant count grows roughly as 3^(n-1).
const DefaultMaxSeedClusters = 10

// ErrBatchTooLarge is returned when a batch forms more seed clusters than
// the generator accepts.
var ErrBatchTooLarge = errors.New("batch has too many seed clusters")

// Boundary describes the most recently committed cluster.
type Boundary struct {
	// Timestamp is the committed cluster's timestamp. Continuous samples
	// older than this can no longer be attached.
	Timestamp int64
	// Stop is the end of the committed cluster's time range.
	Stop int64
}

// Stats summarises one Generate call.
type Stats struct {
	Seeds        int
	Samples      int
	Anchored     bool
	Combinations int
	LoopsRemoved int
	Duplicates   int
	Variants     int
}

// Generator produces candidate variants for a batch.
type Generator struct {
	MaxSeedClusters int
}

// NewGenerator returns a generator accepting up to maxSeeds seed clusters.
// Non-positive values select DefaultMaxSeedClusters.
func NewGenerator(maxSeeds int) *Generator {
	if maxSeeds <= 0 {
		maxSeeds = DefaultMaxSeedClusters
	}
	return &Generator{MaxSeedClusters: maxSeeds}
}

// Generate returns every distinct, loop-free variant for batch. boundary
// is nil when nothing has been committed yet.
//
// A batch without core measurements yields no variants and no error.
// Samples older than boundary.Timestamp yield an
// *slamerr.UnresolvableLeftoverError.
func (g *Generator) Generate(batch *measurement.Batch, boundary *Boundary) ([]ClustersWithLeftovers, Stats, error) {
	var stats Stats
	cls := measurement.Classify(batch)
	stats.Samples = len(cls.Samples)

	if boundary != nil {
		if err := checkStale(cls.Samples, boundary.Timestamp); err != nil {
			opsf("%v", err)
			return nil, stats, err
		}
	}

	var stop *int64
	if boundary != nil {
		stop = &boundary.Stop
	}
	seeds, err := cluster.BuildSeeds(cls.Core, stop)
	if errors.Is(err, cluster.ErrNoCore) {
		diagf("no core measurements among %d, %d samples carried", batch.Len(), len(cls.Samples))
		return nil, stats, nil
	}
	if err != nil {
		return nil, stats, fmt.Errorf("build seeds: %w", err)
	}
	stats.Seeds = len(seeds)
	if len(seeds) > g.MaxSeedClusters {
		return nil, stats, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(seeds), g.MaxSeedClusters)
	}

	var lead combine.LeadFunc
	if boundary != nil && len(cls.Samples) > 0 {
		lead = anchorLead(cls.Samples[0].T, boundary.Stop, &stats)
	}
	combos := combine.Combinations(seeds, len(cls.Samples) > 0, lead)
	stats.Combinations = len(combos)
	combos, stats.LoopsRemoved = combine.RemoveLoops(combos)

	resolved := make([]ClustersWithLeftovers, 0, len(combos))
	for i, c := range combos {
		v := Attach(c, cls.Samples)
		tracef("variant %d: clusters=%d connections=%d leftovers=%d", i, len(v.Clusters), len(c.Connections), v.Unused())
		resolved = append(resolved, v)
	}
	out := Dedup(resolved)
	stats.Duplicates = len(resolved) - len(out)
	stats.Variants = len(out)

	diagf("seeds=%d samples=%d combinations=%d loops=%d duplicates=%d variants=%d",
		stats.Seeds, stats.Samples, stats.Combinations, stats.LoopsRemoved, stats.Duplicates, stats.Variants)
	return out, stats, nil
}

// anchorLead returns a LeadFunc that prepends an anchor cluster whenever
// samples start before the first merged cluster. The anchor sits at
// min(first, stop) so the bridge from committed history is filled.
func anchorLead(first, stop int64, stats *Stats) combine.LeadFunc {
	at := min(first, stop)
	anchor := cluster.New(measurement.NewAnchor(at))
	return func(merged []*cluster.Cluster) *cluster.Cluster {
		t0, ok := merged[0].Timestamp()
		if !ok || first >= t0 {
			return nil
		}
		stats.Anchored = true
		return anchor
	}
}

func checkStale(samples []measurement.ImuSample, floor int64) error {
	n := 0
	for _, s := range samples {
		if s.T >= floor {
			break
		}
		n++
	}
	if n == 0 {
		return nil
	}
	return &slamerr.UnresolvableLeftoverError{Samples: n, Oldest: samples[0].T, Floor: floor}
}
