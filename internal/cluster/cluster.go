package cluster

import (
	"cmp"
	"errors"
	"slices"

	"github.com/banshee-data/slamfront/internal/measurement"
	"github.com/banshee-data/slamfront/internal/signature"
)

// ErrNoCore is returned when a batch contains no core measurements, so no
// cluster can be formed.
var ErrNoCore = errors.New("no core measurements")

// Cluster is an immutable bag of measurements assigned to one moment.
// Core measurements define its timestamp and time range; segments are
// continuous data attached while filling connections.
type Cluster struct {
	core     []measurement.Measurement
	segments []*measurement.ImuSegment
}

// New returns a cluster holding the given core measurements.
func New(core ...measurement.Measurement) *Cluster {
	return &Cluster{core: slices.Clone(core)}
}

// Merge returns one cluster holding the core measurements and segments of
// all clusters, in order.
func Merge(clusters ...*Cluster) *Cluster {
	out := &Cluster{}
	for _, c := range clusters {
		out.core = append(out.core, c.core...)
		out.segments = append(out.segments, c.segments...)
	}
	return out
}

// With returns a copy of c with seg attached. c is unchanged and the core
// slice is shared.
func (c *Cluster) With(seg *measurement.ImuSegment) *Cluster {
	segments := make([]*measurement.ImuSegment, len(c.segments), len(c.segments)+1)
	copy(segments, c.segments)
	return &Cluster{core: c.core, segments: append(segments, seg)}
}

// Core returns the core measurements. The slice must not be modified.
func (c *Cluster) Core() []measurement.Measurement { return c.core }

// Segments returns the attached continuous segments. The slice must not be
// modified.
func (c *Cluster) Segments() []*measurement.ImuSegment { return c.segments }

// Measurements returns core measurements followed by segments.
func (c *Cluster) Measurements() []measurement.Measurement {
	out := make([]measurement.Measurement, 0, len(c.core)+len(c.segments))
	out = append(out, c.core...)
	for _, s := range c.segments {
		out = append(out, s)
	}
	return out
}

// Len returns the number of measurements in the cluster.
func (c *Cluster) Len() int { return len(c.core) + len(c.segments) }

// Anchored reports whether the cluster holds a transient anchor.
func (c *Cluster) Anchored() bool {
	for _, m := range c.core {
		if m.Kind() == measurement.KindAnchor {
			return true
		}
	}
	return false
}

// Timestamp returns the lower median of the core timestamps. ok is false
// when the cluster has no core measurements.
func (c *Cluster) Timestamp() (t int64, ok bool) {
	if len(c.core) == 0 {
		return 0, false
	}
	return LowerMedian(c.coreTimes()), true
}

// TimeRange returns [min, max] of the core timestamps. ok is false when
// the cluster has no core measurements.
func (c *Cluster) TimeRange() (r measurement.TimeRange, ok bool) {
	if len(c.core) == 0 {
		return r, false
	}
	ts := c.coreTimes()
	return measurement.TimeRange{Start: slices.Min(ts), Stop: slices.Max(ts)}, true
}

func (c *Cluster) coreTimes() []int64 {
	ts := make([]int64, len(c.core))
	for i, m := range c.core {
		ts[i] = m.Timestamp()
	}
	return ts
}

// WriteSignature appends the structural identity of c to b: core IDs in
// order, then the sample timestamps of every segment. Segment IDs are
// minted per variant and are not part of the signature.
func (c *Cluster) WriteSignature(b *signature.Builder) {
	for _, m := range c.core {
		b.ID(m.ID())
	}
	for _, s := range c.segments {
		b.Group()
		for _, sample := range s.Samples {
			b.Int(sample.T)
		}
	}
	b.Group()
}

// LowerMedian returns the median of ts, taking the left of the two
// central values when len(ts) is even. ts is not modified. LowerMedian
// panics on an empty slice.
func LowerMedian(ts []int64) int64 {
	sorted := slices.Clone(ts)
	slices.Sort(sorted)
	return sorted[(len(sorted)-1)/2]
}

// BuildSeeds forms seed clusters from core measurements. Odometry is split
// into fragments first (see measurement.SplitOdometry), then measurements
// are stable-sorted by timestamp and those sharing an identical timestamp
// form one cluster. Clusters are returned oldest first.
func BuildSeeds(core []measurement.Measurement, boundary *int64) ([]*Cluster, error) {
	if len(core) == 0 {
		return nil, ErrNoCore
	}
	ms := measurement.SplitOdometry(core, boundary)
	slices.SortStableFunc(ms, func(a, b measurement.Measurement) int {
		return cmp.Compare(a.Timestamp(), b.Timestamp())
	})

	var seeds []*Cluster
	for i := 0; i < len(ms); {
		j := i + 1
		for j < len(ms) && ms[j].Timestamp() == ms[i].Timestamp() {
			j++
		}
		seeds = append(seeds, New(ms[i:j]...))
		i = j
	}
	return seeds, nil
}
