package combine

import "github.com/banshee-data/slamfront/internal/cluster"

// Connection asks for continuous data to bridge two clusters. From and To
// index the cluster slice of the combination that owns it; From < To.
type Connection struct {
	From int
	To   int
}

// ClustersWithConnections is a candidate skeleton: merged clusters plus
// the chain of connections joining the first to the last.
type ClustersWithConnections struct {
	Clusters    []*cluster.Cluster
	Connections []Connection
}

// Compositions returns every composition of n into ordered positive
// parts. The order matches a depth-first expansion choosing the first part
// from 1 upwards. n == 0 yields one empty composition.
func Compositions(n int) [][]int {
	if n < 0 {
		return nil
	}
	type frame struct {
		prefix    []int
		remaining int
	}
	var out [][]int
	stack := []frame{{remaining: n}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.remaining == 0 {
			out = append(out, f.prefix)
			continue
		}
		// Pushed in reverse so the smallest hop is expanded first.
		for hop := f.remaining; hop >= 1; hop-- {
			prefix := make([]int, len(f.prefix), len(f.prefix)+1)
			copy(prefix, f.prefix)
			stack = append(stack, frame{prefix: append(prefix, hop), remaining: f.remaining - hop})
		}
	}
	return out
}

// Connections returns every chain of connections from cluster 0 to
// cluster m-1 of an m-cluster sequence. Hops may skip clusters. For m == 1
// it returns a single empty chain.
func Connections(m int) [][]Connection {
	if m <= 0 {
		return nil
	}
	comps := Compositions(m - 1)
	out := make([][]Connection, 0, len(comps))
	for _, comp := range comps {
		chain := make([]Connection, 0, len(comp))
		pos := 0
		for _, hop := range comp {
			chain = append(chain, Connection{From: pos, To: pos + hop})
			pos += hop
		}
		out = append(out, chain)
	}
	return out
}

// LeadFunc returns a cluster to place before a merged sequence, or nil
// for none. The lead cluster takes part in connection chains but is never
// merged with seeds.
type LeadFunc func(merged []*cluster.Cluster) *cluster.Cluster

// Combinations pairs every merge of seeds with every connection chain over
// it. When connect is false each merge gets only the empty chain, which is
// enough when there is no continuous data to distribute. lead may be nil.
func Combinations(seeds []*cluster.Cluster, connect bool, lead LeadFunc) []ClustersWithConnections {
	var out []ClustersWithConnections
	for _, merged := range Merges(seeds) {
		clusters := merged
		if lead != nil {
			if l := lead(merged); l != nil {
				clusters = append([]*cluster.Cluster{l}, merged...)
			}
		}
		chains := [][]Connection{nil}
		if connect {
			chains = Connections(len(clusters))
		}
		for _, chain := range chains {
			out = append(out, ClustersWithConnections{Clusters: clusters, Connections: chain})
		}
	}
	return out
}
