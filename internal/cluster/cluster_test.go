package cluster

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/slamfront/internal/measurement"
	"github.com/banshee-data/slamfront/internal/signature"
)

func pose(t int64) *measurement.Pose {
	return &measurement.Pose{MeasurementID: uuid.New(), Time: t, T: measurement.Identity4}
}

func TestLowerMedian(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ts   []int64
		want int64
	}{
		{"single", []int64{7}, 7},
		{"odd", []int64{9, 1, 5}, 5},
		{"even takes left", []int64{4, 1, 3, 2}, 2},
		{"two", []int64{10, 20}, 10},
		{"large nanos", []int64{1_700_000_000_000_000_001, 1_700_000_000_000_000_003}, 1_700_000_000_000_000_001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LowerMedian(tt.ts))
		})
	}
}

func TestCluster_TimestampAndRange(t *testing.T) {
	t.Parallel()

	c := New(pose(5), pose(1), pose(3), pose(9))
	ts, ok := c.Timestamp()
	require.True(t, ok)
	assert.Equal(t, int64(3), ts)

	r, ok := c.TimeRange()
	require.True(t, ok)
	assert.Equal(t, measurement.TimeRange{Start: 1, Stop: 9}, r)

	_, ok = New().Timestamp()
	assert.False(t, ok)
	_, ok = New().TimeRange()
	assert.False(t, ok)
}

func TestCluster_WithIsImmutable(t *testing.T) {
	t.Parallel()

	base := New(pose(1))
	seg := measurement.NewImuSegment(measurement.TimeRange{Start: 0, Stop: 1}, []measurement.ImuSample{{T: 0}})
	withSeg := base.With(seg)

	assert.Empty(t, base.Segments())
	require.Len(t, withSeg.Segments(), 1)
	assert.Equal(t, 2, withSeg.Len())
	assert.Len(t, withSeg.Measurements(), 2)

	other := withSeg.With(measurement.NewImuSegment(measurement.TimeRange{}, nil))
	assert.Len(t, withSeg.Segments(), 1)
	assert.Len(t, other.Segments(), 2)
}

func TestCluster_Anchored(t *testing.T) {
	t.Parallel()

	assert.False(t, New(pose(1)).Anchored())
	assert.True(t, New(measurement.NewAnchor(0)).Anchored())
}

func TestCluster_SignatureIgnoresSegmentIDs(t *testing.T) {
	t.Parallel()

	p := pose(4)
	samples := []measurement.ImuSample{{T: 1}, {T: 2}}
	a := New(p).With(measurement.NewImuSegment(measurement.TimeRange{Start: 1, Stop: 4}, samples))
	b := New(p).With(measurement.NewImuSegment(measurement.TimeRange{Start: 1, Stop: 4}, samples))
	c := New(p).With(measurement.NewImuSegment(measurement.TimeRange{Start: 1, Stop: 4}, samples[:1]))

	var sa, sb, sc signature.Builder
	a.WriteSignature(&sa)
	b.WriteSignature(&sb)
	c.WriteSignature(&sc)
	assert.Equal(t, sa.Bytes(), sb.Bytes())
	assert.NotEqual(t, sa.Bytes(), sc.Bytes())
}

func TestBuildSeeds(t *testing.T) {
	t.Parallel()

	t.Run("no core", func(t *testing.T) {
		_, err := BuildSeeds(nil, nil)
		assert.ErrorIs(t, err, ErrNoCore)
	})

	t.Run("groups identical timestamps", func(t *testing.T) {
		a, b, c, d := pose(3), pose(1), pose(3), pose(5)
		seeds, err := BuildSeeds([]measurement.Measurement{a, b, c, d}, nil)
		require.NoError(t, err)
		require.Len(t, seeds, 3)
		assert.Equal(t, []measurement.Measurement{b}, seeds[0].Core())
		assert.Equal(t, []measurement.Measurement{a, c}, seeds[1].Core(), "insertion order preserved")
		assert.Equal(t, []measurement.Measurement{d}, seeds[2].Core())
	})

	t.Run("splits odometry", func(t *testing.T) {
		odom := &measurement.Odometry{MeasurementID: uuid.New(), Range: measurement.TimeRange{Start: 2, Stop: 6}}
		seeds, err := BuildSeeds([]measurement.Measurement{pose(2), odom}, nil)
		require.NoError(t, err)
		require.Len(t, seeds, 2)
		assert.Len(t, seeds[0].Core(), 2)
		assert.Equal(t, measurement.KindOdometryFragment, seeds[1].Core()[0].Kind())
	})
}

func TestMerge(t *testing.T) {
	t.Parallel()

	a, b := New(pose(1)), New(pose(2), pose(3))
	m := Merge(a, b)
	assert.Equal(t, 3, m.Len())
	ts, _ := m.Timestamp()
	assert.Equal(t, int64(2), ts)
}
