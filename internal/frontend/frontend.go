package frontend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/slamfront/internal/candidate"
	"github.com/banshee-data/slamfront/internal/config"
	"github.com/banshee-data/slamfront/internal/edges"
	"github.com/banshee-data/slamfront/internal/graph"
	"github.com/banshee-data/slamfront/internal/measurement"
	"github.com/banshee-data/slamfront/internal/metrics"
	"github.com/banshee-data/slamfront/internal/monitoring"
	"github.com/banshee-data/slamfront/internal/selection"
	"github.com/banshee-data/slamfront/internal/slamerr"
	"github.com/banshee-data/slamfront/internal/timeutil"
	"github.com/banshee-data/slamfront/internal/variants"
)

// Options configures a Frontend. Zero values select defaults.
type Options struct {
	MaxSeedClusters int
	Workers         int
	// Scorer adds an optional tie-breaking metric.
	Scorer   metrics.Scorer
	Registry *edges.Registry
	Metrics  *monitoring.EngineMetrics
	Clock    timeutil.Clock
}

// OptionsFromConfig maps an engine configuration onto Options.
func OptionsFromConfig(cfg *config.EngineConfig) Options {
	opts := Options{
		MaxSeedClusters: cfg.GetMaxSeedClusters(),
		Workers:         cfg.GetWorkers(),
	}
	if cfg.GetMapQualityEnabled() {
		opts.Scorer = metrics.MapQuality{
			VoxelSize: cfg.GetMapVoxelSize(),
			MinPoints: cfg.GetMapMinVoxelPoints(),
		}
	}
	return opts
}

// Frontend owns the permanent graph. All methods are safe for concurrent
// use; batches are processed one at a time.
type Frontend struct {
	mu    sync.Mutex
	graph *graph.Graph
	// gen counts commits. Candidates carry the gen they were built at.
	gen       uint64
	generator *variants.Generator
	builder   *candidate.Builder
	evaluator *metrics.Evaluator
	workers   int
	metrics   *monitoring.EngineMetrics
	clock     timeutil.Clock
}

// New returns a Frontend with an empty graph.
func New(opts Options) *Frontend {
	clock := opts.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Frontend{
		graph:     graph.New(),
		generator: variants.NewGenerator(opts.MaxSeedClusters),
		builder:   candidate.NewBuilder(opts.Registry),
		evaluator: &metrics.Evaluator{Scorer: opts.Scorer, Workers: opts.Workers},
		workers:   opts.Workers,
		metrics:   opts.Metrics,
		clock:     clock,
	}
}

// Graph returns a snapshot of the permanent graph.
func (f *Frontend) Graph() *graph.Graph {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.graph.Snapshot()
}

func (f *Frontend) boundary() *variants.Boundary {
	latest, ok := f.graph.Latest()
	if !ok {
		return nil
	}
	return &variants.Boundary{Timestamp: latest.Timestamp, Stop: latest.Range.Stop}
}

// GenerateCandidates returns every distinct variant for batch against the
// current graph. A batch without core measurements yields an empty list.
func (f *Frontend) GenerateCandidates(batch *measurement.Batch) ([]variants.ClustersWithLeftovers, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vs, _, err := f.generate(batch)
	return vs, err
}

func (f *Frontend) generate(batch *measurement.Batch) ([]variants.ClustersWithLeftovers, variants.Stats, error) {
	vs, stats, err := f.generator.Generate(batch, f.boundary())
	if err != nil {
		return nil, stats, err
	}
	f.metrics.ObserveGeneration(stats.Variants, stats.LoopsRemoved, stats.Duplicates)
	return vs, stats, nil
}

// SelectBest builds and evaluates a candidate for every variant on
// independent snapshots of the current graph and returns the preferred
// connected one. It returns slamerr.ErrNoAdmissibleCandidate when none is
// connected.
func (f *Frontend) SelectBest(ctx context.Context, vs []variants.ClustersWithLeftovers) (*candidate.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	best, _, err := f.selectBest(ctx, vs)
	if err != nil {
		return nil, err
	}
	return best.Candidate, nil
}

// evaluation counts how many candidates were considered and admissible.
type evaluation struct {
	evaluated int
	connected int
}

func (f *Frontend) selectBest(ctx context.Context, vs []variants.ClustersWithLeftovers) (selection.Ranked, evaluation, error) {
	var ev evaluation
	cs, err := f.builder.BuildAll(ctx, f.graph, vs, f.workers)
	if err != nil {
		return selection.Ranked{}, ev, fmt.Errorf("build candidates: %w", err)
	}
	for _, c := range cs {
		c.Generation = f.gen
	}
	results, err := f.evaluator.EvaluateAll(ctx, cs)
	if err != nil {
		return selection.Ranked{}, ev, fmt.Errorf("evaluate candidates: %w", err)
	}
	ev.evaluated = len(cs)
	for i, r := range results {
		if r.Connected {
			ev.connected++
		}
		tracef("candidate %s: timeshift=%d connected=%t detached=%d orphans=%d unused=%d",
			cs[i].ID, r.Timeshift, r.Connected, r.Structure.Detached, r.Structure.Orphans, r.Unused)
	}
	best, err := selection.Best(cs, results)
	return best, ev, err
}

// Leftovers returns the samples c could not place as continuous
// measurements to be added to the next batch, one per source sensor in
// order of first appearance. It returns nil when every sample was used.
func (f *Frontend) Leftovers(c *candidate.Candidate) []measurement.Measurement {
	if c == nil || len(c.Leftovers) == 0 {
		return nil
	}
	var out []measurement.Measurement
	bySensor := make(map[string]*measurement.Imu)
	for _, s := range c.Leftovers {
		imu, ok := bySensor[s.Sensor]
		if !ok {
			imu = &measurement.Imu{MeasurementID: uuid.New(), Sensor: s.Sensor}
			bySensor[s.Sensor] = imu
			out = append(out, imu)
		}
		imu.Samples = append(imu.Samples, s)
	}
	return out
}

// Commit adopts c's graph as the permanent graph. c must come from
// SelectBest against the current graph; a candidate selected before
// another commit is rejected with a *slamerr.ValidationError.
func (f *Frontend) Commit(c *candidate.Candidate) error {
	if c == nil || c.Graph == nil {
		return slamerr.Validationf("commit of empty candidate")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commit(c)
}

func (f *Frontend) commit(c *candidate.Candidate) error {
	if c.Generation != f.gen {
		return slamerr.Validationf("candidate %s was built on graph generation %d, current is %d",
			c.ID, c.Generation, f.gen)
	}
	f.graph = c.Graph
	f.gen++
	return nil
}

// Result describes one processed batch.
type Result struct {
	Outcome string
	Stats   variants.Stats
	// Evaluated and Connected count the candidates built and admissible.
	Evaluated int
	Connected int
	// Selected and Metrics are set when Outcome is committed.
	Selected *candidate.Candidate
	Metrics  metrics.Result
	// Leftovers must be added to the next batch. For an empty batch they
	// are every measurement of the batch.
	Leftovers []measurement.Measurement
	Elapsed   time.Duration
}

// Process generates, selects and commits the best candidate for batch.
// The returned Result is never nil; on error its Outcome classifies the
// failure. slamerr.ErrNoAdmissibleCandidate and
// *slamerr.UnresolvableLeftoverError leave the graph unchanged and are
// meant to be handled by the caller.
func (f *Frontend) Process(ctx context.Context, batch *measurement.Batch) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	start := f.clock.Now()
	res := &Result{}
	err := f.process(ctx, batch, res)
	res.Elapsed = f.clock.Since(start)
	f.metrics.ObserveBatch(res.Outcome, unusedSamples(res.Leftovers), res.Elapsed)
	return res, err
}

func (f *Frontend) process(ctx context.Context, batch *measurement.Batch, res *Result) error {
	vs, stats, err := f.generate(batch)
	res.Stats = stats
	if err != nil {
		res.Outcome = outcomeOf(err)
		return err
	}
	if len(vs) == 0 {
		res.Outcome = monitoring.OutcomeEmpty
		res.Leftovers = batch.All()
		diagf("no variants: carrying %d measurements", len(res.Leftovers))
		return nil
	}

	best, ev, err := f.selectBest(ctx, vs)
	res.Evaluated, res.Connected = ev.evaluated, ev.connected
	if err != nil {
		res.Outcome = outcomeOf(err)
		if res.Outcome == monitoring.OutcomeNoCandidate {
			diagf("none of %d candidates is connected", ev.evaluated)
		} else {
			opsf("batch failed: %v", err)
		}
		return err
	}
	if err := f.commit(best.Candidate); err != nil {
		res.Outcome = monitoring.OutcomeError
		return err
	}

	res.Outcome = monitoring.OutcomeCommitted
	res.Selected = best.Candidate
	res.Metrics = best.Result
	res.Leftovers = f.Leftovers(best.Candidate)
	diagf("committed %s: variants=%d connected=%d timeshift=%d unused=%d vertices=%d",
		best.Candidate.ID, ev.evaluated, ev.connected, best.Result.Timeshift, best.Result.Unused, f.graph.NumVertices())
	return nil
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, slamerr.ErrNoAdmissibleCandidate):
		return monitoring.OutcomeNoCandidate
	case errors.Is(err, slamerr.ErrUnresolvableLeftover):
		return monitoring.OutcomeStaleSamples
	default:
		return monitoring.OutcomeError
	}
}

func unusedSamples(ms []measurement.Measurement) int {
	n := 0
	for _, m := range ms {
		if imu, ok := m.(*measurement.Imu); ok {
			n += len(imu.Samples)
		}
	}
	return n
}
