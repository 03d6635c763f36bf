package combine

import (
	"github.com/banshee-data/slamfront/internal/cluster"
	"github.com/banshee-data/slamfront/internal/signature"
)

// Partition splits an ordered sequence into consecutive groups. Each
// entry is the size of one group; the sizes sum to the sequence length.
type Partition []int

func (p Partition) signature() []byte {
	var b signature.Builder
	for _, size := range p {
		b.Int(int64(size))
	}
	return b.Group().Bytes()
}

// Partitions returns every partition of n ordered items into consecutive
// groups. It expands breadth first from the all-singletons partition by
// coalescing adjacent groups until no unseen partition appears. The
// result holds 2^(n-1) partitions for n > 0, singletons first and the
// single group last.
func Partitions(n int) []Partition {
	if n <= 0 {
		return nil
	}
	start := make(Partition, n)
	for i := range start {
		start[i] = 1
	}

	seen := signature.NewSet()
	seen.Add(start.signature())
	out := []Partition{start}
	for head := 0; head < len(out); head++ {
		p := out[head]
		for i := 0; i+1 < len(p); i++ {
			next := make(Partition, 0, len(p)-1)
			next = append(next, p[:i]...)
			next = append(next, p[i]+p[i+1])
			next = append(next, p[i+2:]...)
			if seen.Add(next.signature()) {
				out = append(out, next)
			}
		}
	}
	return out
}

// Apply merges seeds according to p.
func (p Partition) Apply(seeds []*cluster.Cluster) []*cluster.Cluster {
	out := make([]*cluster.Cluster, 0, len(p))
	pos := 0
	for _, size := range p {
		group := seeds[pos : pos+size]
		if size == 1 {
			out = append(out, group[0])
		} else {
			out = append(out, cluster.Merge(group...))
		}
		pos += size
	}
	return out
}

// Merges returns every way of merging temporally adjacent seeds, in the
// order produced by Partitions. Seeds are never reordered.
func Merges(seeds []*cluster.Cluster) [][]*cluster.Cluster {
	parts := Partitions(len(seeds))
	out := make([][]*cluster.Cluster, 0, len(parts))
	for _, p := range parts {
		out = append(out, p.Apply(seeds))
	}
	return out
}
