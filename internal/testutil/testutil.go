// Package testutil provides shared measurement fixtures for tests.
//
// Fixtures use identity transforms and fresh random IDs unless stated
// otherwise, so two calls never produce the same measurement.
package testutil

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"

	"github.com/banshee-data/slamfront/internal/measurement"
)

// Pose returns a pose measurement at t with an identity transform.
func Pose(t int64) *measurement.Pose {
	return &measurement.Pose{MeasurementID: uuid.New(), Time: t, T: measurement.Identity4}
}

// Translation returns a row-major 4x4 transform translating by (x, y, z).
func Translation(x, y, z float64) [16]float64 {
	return [16]float64{
		1, 0, 0, x,
		0, 1, 0, y,
		0, 0, 1, z,
		0, 0, 0, 1,
	}
}

// Odometry returns an odometry measurement over [start, stop] with an
// identity transform.
func Odometry(start, stop int64) *measurement.Odometry {
	return &measurement.Odometry{
		MeasurementID: uuid.New(),
		Range:         measurement.TimeRange{Start: start, Stop: stop},
		T:             measurement.Identity4,
	}
}

// Imu returns an inertial stream with one zero reading per timestamp.
func Imu(ts ...int64) *measurement.Imu {
	samples := make([]measurement.ImuSample, len(ts))
	for i, t := range ts {
		samples[i] = measurement.ImuSample{T: t}
	}
	return &measurement.Imu{MeasurementID: uuid.New(), Samples: samples}
}

// ImuEvery returns an inertial stream sampled every step over
// [start, stop].
func ImuEvery(start, stop, step int64) *measurement.Imu {
	var ts []int64
	for t := start; t <= stop; t += step {
		ts = append(ts, t)
	}
	return Imu(ts...)
}

// PlanarScan returns an n x n grid of points at height z with the given
// spacing.
func PlanarScan(n int, spacing, z float64) []r3.Vector {
	pts := make([]r3.Vector, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			pts = append(pts, r3.Vector{X: float64(i) * spacing, Y: float64(j) * spacing, Z: z})
		}
	}
	return pts
}

// SampleTimes returns the timestamps of every inertial sample in ms.
func SampleTimes(ms []measurement.Measurement) []int64 {
	var out []int64
	for _, m := range ms {
		if imu, ok := m.(*measurement.Imu); ok {
			for _, s := range imu.Samples {
				out = append(out, s.T)
			}
		}
	}
	return out
}

// Recording encodes records as JSON lines.
func Recording(t testing.TB, records ...map[string]any) string {
	t.Helper()
	var b strings.Builder
	enc := json.NewEncoder(&b)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encode record: %v", err)
		}
	}
	return b.String()
}
