package variants

import (
	"github.com/banshee-data/slamfront/internal/cluster"
	"github.com/banshee-data/slamfront/internal/combine"
	"github.com/banshee-data/slamfront/internal/measurement"
	"github.com/banshee-data/slamfront/internal/signature"
)

// ClustersWithLeftovers is one resolved variant: clusters holding their
// attached continuous segments, plus the samples no connection consumed.
type ClustersWithLeftovers struct {
	Clusters  []*cluster.Cluster
	Leftovers []measurement.ImuSample
}

// Unused returns the number of continuous samples left for a later batch.
func (v ClustersWithLeftovers) Unused() int {
	return len(v.Leftovers)
}

// Signature returns the canonical structural encoding of v.
func (v ClustersWithLeftovers) Signature() []byte {
	var b signature.Builder
	for _, c := range v.Clusters {
		c.WriteSignature(&b)
	}
	b.Group()
	for _, s := range v.Leftovers {
		b.Int(s.T)
	}
	return b.Group().Bytes()
}

// Attach fills every connection of combo with the samples in
// [from.Timestamp, to.Timestamp) and attaches them, as one ImuSegment, to
// the connection's later cluster. Samples no connection consumed become
// leftovers. samples must be sorted by T. Anchor clusters are removed from
// the result once filled.
//
// When the first sample is at or after the last cluster's timestamp,
// everything is leftover. A lone cluster takes the prefix of samples
// before its timestamp directly.
func Attach(combo combine.ClustersWithConnections, samples []measurement.ImuSample) ClustersWithLeftovers {
	clusters := make([]*cluster.Cluster, len(combo.Clusters))
	copy(clusters, combo.Clusters)

	if len(samples) == 0 || len(clusters) == 0 {
		return ClustersWithLeftovers{Clusters: dropAnchors(clusters)}
	}

	times := make([]int64, len(clusters))
	for i, c := range clusters {
		times[i], _ = c.Timestamp()
	}
	last := times[len(times)-1]
	if samples[0].T >= last {
		return ClustersWithLeftovers{Clusters: dropAnchors(clusters), Leftovers: cloneSamples(samples)}
	}

	used := make([]bool, len(samples))
	fill := func(to int, r measurement.TimeRange) {
		lo, hi := measurement.Bounds(samples, r.Start, r.Stop, false)
		if hi <= lo {
			return
		}
		clusters[to] = clusters[to].With(measurement.NewImuSegment(r, cloneSamples(samples[lo:hi])))
		for i := lo; i < hi; i++ {
			used[i] = true
		}
	}

	if len(clusters) == 1 {
		fill(0, measurement.TimeRange{Start: samples[0].T, Stop: last})
	}
	for _, conn := range combo.Connections {
		fill(conn.To, measurement.TimeRange{Start: times[conn.From], Stop: times[conn.To]})
	}

	var leftovers []measurement.ImuSample
	for i, s := range samples {
		if !used[i] {
			leftovers = append(leftovers, s)
		}
	}
	return ClustersWithLeftovers{Clusters: dropAnchors(clusters), Leftovers: leftovers}
}

func dropAnchors(clusters []*cluster.Cluster) []*cluster.Cluster {
	out := clusters[:0]
	for _, c := range clusters {
		if !c.Anchored() {
			out = append(out, c)
		}
	}
	return out
}

func cloneSamples(samples []measurement.ImuSample) []measurement.ImuSample {
	out := make([]measurement.ImuSample, len(samples))
	copy(out, samples)
	return out
}

// Dedup removes variants whose structure equals an earlier one. The first
// occurrence is kept and order is preserved, so Dedup(Dedup(vs)) equals
// Dedup(vs).
func Dedup(vs []ClustersWithLeftovers) []ClustersWithLeftovers {
	seen := signature.NewSet()
	out := make([]ClustersWithLeftovers, 0, len(vs))
	for _, v := range vs {
		if seen.Add(v.Signature()) {
			out = append(out, v)
		}
	}
	return out
}
