package measurement

import (
	"cmp"
	"slices"
	"sort"
)

// Classified is the result of Classify.
type Classified struct {
	// Core holds the atomic measurements; each must anchor exactly one
	// cluster.
	Core []Measurement
	// Samples is the merged inertial stream of every continuous
	// measurement, sorted by T then Sensor. A sample delivered twice by
	// the same sensor appears once; samples of different sensors sharing
	// a timestamp are all kept.
	Samples []ImuSample
}

// Classify splits a batch into core measurements and the merged
// continuous sample stream. Empty batches yield an empty result.
func Classify(b *Batch) Classified {
	var out Classified
	for _, k := range b.Kinds() {
		ms := b.byKind[k]
		if !k.Continuous() {
			out.Core = append(out.Core, ms...)
			continue
		}
		for _, m := range ms {
			switch c := m.(type) {
			case *Imu:
				for _, smp := range c.Samples {
					if smp.Sensor == "" {
						smp.Sensor = c.Sensor
					}
					out.Samples = append(out.Samples, smp)
				}
			case *ImuSegment:
				out.Samples = append(out.Samples, c.Samples...)
			}
		}
	}
	out.Samples = normaliseSamples(out.Samples)
	return out
}

// normaliseSamples sorts by timestamp and sensor and keeps the first
// sample seen for each (sensor, timestamp) pair.
func normaliseSamples(samples []ImuSample) []ImuSample {
	if len(samples) == 0 {
		return nil
	}
	slices.SortStableFunc(samples, func(a, b ImuSample) int {
		return cmp.Or(cmp.Compare(a.T, b.T), cmp.Compare(a.Sensor, b.Sensor))
	})
	return slices.CompactFunc(samples, func(a, b ImuSample) bool {
		return a.T == b.T && a.Sensor == b.Sensor
	})
}

// SplitOdometry replaces each odometry in core by its fragments. The stop
// fragment is always emitted. The start fragment is emitted only when
// boundary is nil or the odometry starts after it; otherwise the start
// resolves to a vertex that is already committed.
func SplitOdometry(core []Measurement, boundary *int64) []Measurement {
	out := make([]Measurement, 0, len(core))
	for _, m := range core {
		o, ok := m.(*Odometry)
		if !ok {
			out = append(out, m)
			continue
		}
		if boundary == nil || o.Range.Start > *boundary {
			out = append(out, NewFragment(o, FragmentStart))
		}
		out = append(out, NewFragment(o, FragmentStop))
	}
	return out
}

// Bounds returns the half-open index range [lo, hi) of samples with
// start <= T < stop, or start <= T <= stop when inclusiveStop is set.
// samples must be sorted by T.
func Bounds(samples []ImuSample, start, stop int64, inclusiveStop bool) (lo, hi int) {
	lo = sort.Search(len(samples), func(i int) bool { return samples[i].T >= start })
	if inclusiveStop {
		hi = sort.Search(len(samples), func(i int) bool { return samples[i].T > stop })
	} else {
		hi = sort.Search(len(samples), func(i int) bool { return samples[i].T >= stop })
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// Subsequence returns the samples inside the interval described by
// Bounds. The result aliases samples.
func Subsequence(samples []ImuSample, start, stop int64, inclusiveStop bool) []ImuSample {
	lo, hi := Bounds(samples, start, stop, inclusiveStop)
	return samples[lo:hi]
}
