package frontend

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/slamfront/internal/candidate"
	"github.com/banshee-data/slamfront/internal/config"
	"github.com/banshee-data/slamfront/internal/graph"
	"github.com/banshee-data/slamfront/internal/measurement"
	"github.com/banshee-data/slamfront/internal/metrics"
	"github.com/banshee-data/slamfront/internal/monitoring"
	"github.com/banshee-data/slamfront/internal/slamerr"
	"github.com/banshee-data/slamfront/internal/testutil"
	"github.com/banshee-data/slamfront/internal/timeutil"
)

func newFrontend() *Frontend {
	return New(Options{Workers: 2, Clock: timeutil.NewMockClock(time.Unix(0, 0))})
}

// commitFirst commits a single pose at t so later batches have history.
func commitFirst(t *testing.T, f *Frontend, at int64) {
	t.Helper()
	res, err := f.Process(context.Background(), measurement.NewBatch(testutil.Pose(at)))
	require.NoError(t, err)
	require.Equal(t, monitoring.OutcomeCommitted, res.Outcome)
}

func TestGenerateCandidates_NoCoreIsEmpty(t *testing.T) {
	t.Parallel()

	f := newFrontend()
	vs, err := f.GenerateCandidates(measurement.NewBatch(testutil.Imu(1, 2, 3)))
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestProcess_EmptyBatchCarriesEverything(t *testing.T) {
	t.Parallel()

	f := newFrontend()
	samples := testutil.Imu(1, 2, 3)
	res, err := f.Process(context.Background(), measurement.NewBatch(samples))
	require.NoError(t, err)
	assert.Equal(t, monitoring.OutcomeEmpty, res.Outcome)
	assert.Equal(t, []measurement.Measurement{samples}, res.Leftovers)
	assert.Nil(t, res.Selected)
	assert.True(t, f.Graph().Empty())
}

func TestProcess_FirstBatch(t *testing.T) {
	t.Parallel()

	f := newFrontend()
	res, err := f.Process(context.Background(), measurement.NewBatch(testutil.Pose(1), testutil.Pose(3)))
	require.NoError(t, err)

	assert.Equal(t, monitoring.OutcomeCommitted, res.Outcome)
	assert.Equal(t, 2, res.Evaluated)
	assert.Equal(t, 1, res.Connected, "two separate priors are two islands")
	require.NotNil(t, res.Selected)
	assert.Len(t, res.Selected.Clusters, 1)
	assert.Equal(t, int64(2), res.Metrics.Timeshift)
	assert.Empty(t, res.Leftovers)
	assert.Zero(t, res.Elapsed, "mock clock does not advance")

	g := f.Graph()
	assert.Equal(t, 1, g.NumVertices())
	assert.Equal(t, 1, g.NumClusters())
}

func TestProcess_BridgesCommittedHistory(t *testing.T) {
	t.Parallel()

	f := newFrontend()
	commitFirst(t, f, 10)

	res, err := f.Process(context.Background(), measurement.NewBatch(testutil.Pose(20), testutil.Imu(10, 15, 20)))
	require.NoError(t, err)
	require.Equal(t, monitoring.OutcomeCommitted, res.Outcome)
	assert.True(t, res.Stats.Anchored)
	assert.True(t, res.Metrics.Connected)

	// The sample at the new cluster's own time stays for the next batch.
	assert.Equal(t, []int64{20}, testutil.SampleTimes(res.Leftovers))
	require.Len(t, res.Leftovers, 1)
	assert.Empty(t, res.Leftovers[0].(*measurement.Imu).Sensor, "leftovers keep their stream name")

	g := f.Graph()
	assert.Equal(t, 2, g.NumClusters())
	latest, ok := g.Latest()
	require.True(t, ok)
	assert.Equal(t, int64(20), latest.Timestamp)
}

func TestProcess_NoAdmissibleCandidate(t *testing.T) {
	t.Parallel()

	f := newFrontend()
	commitFirst(t, f, 10)

	// Nothing links the new pose to the committed one.
	res, err := f.Process(context.Background(), measurement.NewBatch(testutil.Pose(20)))
	assert.ErrorIs(t, err, slamerr.ErrNoAdmissibleCandidate)
	require.NotNil(t, res)
	assert.Equal(t, monitoring.OutcomeNoCandidate, res.Outcome)
	assert.Equal(t, 1, res.Evaluated)
	assert.Zero(t, res.Connected)
	assert.Equal(t, 1, f.Graph().NumVertices(), "graph unchanged")
}

func TestProcess_StaleSamples(t *testing.T) {
	t.Parallel()

	f := newFrontend()
	commitFirst(t, f, 10)

	batch := measurement.NewBatch(testutil.Pose(20), testutil.Imu(5, 12))
	res, err := f.Process(context.Background(), batch)
	var stale *slamerr.UnresolvableLeftoverError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, monitoring.OutcomeStaleSamples, res.Outcome)
	assert.Equal(t, int64(10), stale.Floor)

	assert.Equal(t, 1, batch.DropSamplesBefore(stale.Floor))
	res, err = f.Process(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, monitoring.OutcomeCommitted, res.Outcome)
	assert.Empty(t, res.Leftovers)
}

func TestManualFlowMatchesProcess(t *testing.T) {
	t.Parallel()

	f := newFrontend()
	commitFirst(t, f, 10)

	vs, err := f.GenerateCandidates(measurement.NewBatch(testutil.Pose(20), testutil.Imu(10, 15, 20)))
	require.NoError(t, err)
	require.NotEmpty(t, vs)

	best, err := f.SelectBest(context.Background(), vs)
	require.NoError(t, err)
	assert.Equal(t, []int64{20}, testutil.SampleTimes(f.Leftovers(best)))

	require.NoError(t, f.Commit(best))
	assert.Equal(t, 2, f.Graph().NumClusters())
}

func TestCommit_Rejects(t *testing.T) {
	t.Parallel()

	f := newFrontend()
	assert.ErrorIs(t, f.Commit(nil), slamerr.ErrValidation)

	commitFirst(t, f, 1)
	stale := &candidate.Candidate{ID: uuid.New(), Graph: graph.New()}
	assert.ErrorIs(t, f.Commit(stale), slamerr.ErrValidation)
	assert.Equal(t, 1, f.Graph().NumVertices())
}

func TestCommit_RejectsCandidateSelectedBeforeAnotherCommit(t *testing.T) {
	t.Parallel()

	f := newFrontend()
	ctx := context.Background()

	early, err := f.GenerateCandidates(measurement.NewBatch(testutil.Pose(1)))
	require.NoError(t, err)
	late, err := f.GenerateCandidates(measurement.NewBatch(testutil.Pose(50), testutil.Pose(51)))
	require.NoError(t, err)

	first, err := f.SelectBest(ctx, early)
	require.NoError(t, err)
	second, err := f.SelectBest(ctx, late)
	require.NoError(t, err)
	require.GreaterOrEqual(t, second.Graph.NumVertices(), first.Graph.NumVertices())

	require.NoError(t, f.Commit(first))
	assert.ErrorIs(t, f.Commit(second), slamerr.ErrValidation)

	g := f.Graph()
	require.Equal(t, 1, g.NumClusters())
	_, ok := g.Cluster(1)
	assert.True(t, ok, "first commit survives")

	// Reselecting against the new graph succeeds.
	again, err := f.GenerateCandidates(measurement.NewBatch(testutil.Pose(50), testutil.Imu(1, 20, 50)))
	require.NoError(t, err)
	best, err := f.SelectBest(ctx, again)
	require.NoError(t, err)
	require.NoError(t, f.Commit(best))
	assert.Equal(t, 2, f.Graph().NumClusters())
}

func TestLeftovers_OnePerSensor(t *testing.T) {
	t.Parallel()

	f := newFrontend()
	left, right := testutil.Imu(10, 12), testutil.Imu(11)
	left.Sensor, right.Sensor = "imu0", "imu1"

	res, err := f.Process(context.Background(), measurement.NewBatch(testutil.Pose(10), left, right))
	require.NoError(t, err)
	require.Equal(t, monitoring.OutcomeCommitted, res.Outcome)

	require.Len(t, res.Leftovers, 2)
	first, second := res.Leftovers[0].(*measurement.Imu), res.Leftovers[1].(*measurement.Imu)
	assert.Equal(t, "imu0", first.Sensor)
	assert.Equal(t, []int64{10, 12}, testutil.SampleTimes([]measurement.Measurement{first}))
	assert.Equal(t, "imu1", second.Sensor)
	assert.Equal(t, []int64{11}, testutil.SampleTimes([]measurement.Measurement{second}))
	assert.Equal(t, 3, res.Metrics.Unused)
}

func TestLeftovers_None(t *testing.T) {
	t.Parallel()

	f := newFrontend()
	assert.Nil(t, f.Leftovers(nil))
	assert.Nil(t, f.Leftovers(&candidate.Candidate{}))
}

func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.EmptyEngineConfig()
	opts := OptionsFromConfig(cfg)
	assert.Equal(t, 10, opts.MaxSeedClusters)
	assert.Nil(t, opts.Scorer)

	enabled := true
	voxel := 0.25
	cfg.MapQualityEnabled = &enabled
	cfg.MapVoxelSize = &voxel
	opts = OptionsFromConfig(cfg)
	assert.Equal(t, metrics.MapQuality{VoxelSize: 0.25, MinPoints: 5}, opts.Scorer)
}

func TestProcess_RecordsMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	f := New(Options{Metrics: monitoring.NewEngineMetrics(reg)})
	_, err := f.Process(context.Background(), measurement.NewBatch(testutil.Pose(1), testutil.Pose(3)))
	require.NoError(t, err)
	_, err = f.Process(context.Background(), measurement.NewBatch(testutil.Imu(4)))
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	batches := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "slamfront_batches_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			batches[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, map[string]float64{
		monitoring.OutcomeCommitted: 1,
		monitoring.OutcomeEmpty:     1,
	}, batches)
}

func TestProcess_OdometryLinksBatches(t *testing.T) {
	t.Parallel()

	f := newFrontend()
	commitFirst(t, f, 0)

	odom := testutil.Odometry(0, 10)
	odom.T = testutil.Translation(1, 0, 0)
	res, err := f.Process(context.Background(), measurement.NewBatch(testutil.Pose(10), odom))
	require.NoError(t, err)
	require.Equal(t, monitoring.OutcomeCommitted, res.Outcome)
	assert.Equal(t, 1, res.Stats.Seeds, "pose and odometry stop share a timestamp")
	assert.Zero(t, res.Metrics.Timeshift)

	g := f.Graph()
	assert.Equal(t, 2, g.NumVertices())
	assert.Equal(t, 3, g.NumEdges(), "two priors and one odometry edge")
}
