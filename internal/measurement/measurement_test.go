package measurement

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplesAt(ts ...int64) []ImuSample {
	out := make([]ImuSample, len(ts))
	for i, t := range ts {
		out[i] = ImuSample{T: t}
	}
	return out
}

func timesOf(samples []ImuSample) []int64 {
	out := make([]int64, len(samples))
	for i, s := range samples {
		out[i] = s.T
	}
	return out
}

func TestKind(t *testing.T) {
	t.Parallel()

	assert.True(t, KindImu.Continuous())
	assert.True(t, KindImuSegment.Continuous())
	for _, k := range []Kind{KindPose, KindOdometry, KindOdometryFragment, KindAnchor} {
		assert.False(t, k.Continuous(), k.String())
	}
	assert.Equal(t, "odometry_fragment", KindOdometryFragment.String())
	assert.Equal(t, "kind(42)", Kind(42).String())
}

func TestBatch_AddIgnoresDuplicates(t *testing.T) {
	t.Parallel()

	p := &Pose{MeasurementID: uuid.New(), Time: 1}
	b := NewBatch(p)
	assert.Equal(t, 0, b.Add(p))
	assert.Equal(t, 1, b.Add(&Pose{MeasurementID: uuid.New(), Time: 2}, nil))
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, []Kind{KindPose}, b.Kinds())

	got := b.Get(KindPose)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].Timestamp())
	assert.Equal(t, int64(2), got[1].Timestamp())
}

func TestBatch_DropSamplesBefore(t *testing.T) {
	t.Parallel()

	keep := &Imu{MeasurementID: uuid.New(), Samples: samplesAt(1, 5, 9)}
	stale := &Imu{MeasurementID: uuid.New(), Samples: samplesAt(1, 2)}
	b := NewBatch(keep, stale)

	assert.Equal(t, 3, b.DropSamplesBefore(5))
	imus := b.Get(KindImu)
	require.Len(t, imus, 1)
	assert.Equal(t, []int64{5, 9}, timesOf(imus[0].(*Imu).Samples))
	assert.Equal(t, []int64{1, 5, 9}, timesOf(keep.Samples), "original stream must not be mutated")
	assert.Equal(t, 1, b.Len())
}

func TestClassify(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		got := Classify(NewBatch())
		assert.Empty(t, got.Core)
		assert.Empty(t, got.Samples)
	})

	t.Run("merges continuous streams", func(t *testing.T) {
		t.Parallel()
		pose := &Pose{MeasurementID: uuid.New(), Time: 3}
		odom := &Odometry{MeasurementID: uuid.New(), Range: TimeRange{Start: 1, Stop: 4}}
		a := &Imu{MeasurementID: uuid.New(), Samples: samplesAt(2, 4, 6)}
		c := &Imu{MeasurementID: uuid.New(), Samples: samplesAt(1, 4, 5)}

		got := Classify(NewBatch(a, pose, odom, c))
		assert.Len(t, got.Core, 2)
		if diff := cmp.Diff([]int64{1, 2, 4, 5, 6}, timesOf(got.Samples)); diff != "" {
			t.Errorf("samples mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, []int64{2, 4, 6}, timesOf(a.Samples))
	})

	t.Run("keeps every sensor at a shared timestamp", func(t *testing.T) {
		t.Parallel()
		left := &Imu{MeasurementID: uuid.New(), Sensor: "imu0", Samples: samplesAt(1, 2, 3)}
		right := &Imu{MeasurementID: uuid.New(), Sensor: "imu1", Samples: samplesAt(2, 3)}
		// A carried leftover re-delivers imu0's sample at 3.
		carried := &Imu{MeasurementID: uuid.New(), Sensor: "imu0", Samples: samplesAt(3)}

		got := Classify(NewBatch(left, right, carried))
		assert.Equal(t, []int64{1, 2, 2, 3, 3}, timesOf(got.Samples))
		sensors := make([]string, len(got.Samples))
		for i, s := range got.Samples {
			sensors[i] = s.Sensor
		}
		assert.Equal(t, []string{"imu0", "imu0", "imu1", "imu0", "imu1"}, sensors)
		assert.Empty(t, left.Samples[0].Sensor, "input streams are not modified")
	})
}

func TestSplitOdometry(t *testing.T) {
	t.Parallel()

	odom := &Odometry{MeasurementID: uuid.New(), Range: TimeRange{Start: 10, Stop: 20}}
	pose := &Pose{MeasurementID: uuid.New(), Time: 15}

	t.Run("no boundary", func(t *testing.T) {
		got := SplitOdometry([]Measurement{odom, pose}, nil)
		require.Len(t, got, 3)
		assert.Equal(t, int64(10), got[0].Timestamp())
		assert.Equal(t, int64(20), got[1].Timestamp())
		assert.Same(t, pose, got[2])
	})

	t.Run("start inside committed history", func(t *testing.T) {
		boundary := int64(10)
		got := SplitOdometry([]Measurement{odom}, &boundary)
		require.Len(t, got, 1)
		frag := got[0].(*OdometryFragment)
		assert.Equal(t, FragmentStop, frag.End)
	})

	t.Run("start after boundary", func(t *testing.T) {
		boundary := int64(9)
		assert.Len(t, SplitOdometry([]Measurement{odom}, &boundary), 2)
	})

	t.Run("fragment ids are stable", func(t *testing.T) {
		a := NewFragment(odom, FragmentStart)
		b := NewFragment(odom, FragmentStart)
		c := NewFragment(odom, FragmentStop)
		assert.Equal(t, a.ID(), b.ID())
		assert.NotEqual(t, a.ID(), c.ID())
	})
}

func TestSubsequence(t *testing.T) {
	t.Parallel()

	samples := samplesAt(0, 1, 2, 3, 4, 5)
	tests := []struct {
		name      string
		start     int64
		stop      int64
		inclusive bool
		want      []int64
	}{
		{"half open", 1, 4, false, []int64{1, 2, 3}},
		{"inclusive stop", 1, 4, true, []int64{1, 2, 3, 4}},
		{"empty interval", 3, 3, false, []int64{}},
		{"before data", -5, 0, false, []int64{}},
		{"after data", 6, 9, false, []int64{}},
		{"inverted", 4, 1, false, []int64{}},
		{"between samples", 1, 2, false, []int64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := timesOf(Subsequence(samples, tt.start, tt.stop, tt.inclusive))
			assert.Equal(t, tt.want, got)
		})
	}
}
