package combine

import (
	"github.com/google/uuid"

	"github.com/banshee-data/slamfront/internal/cluster"
	"github.com/banshee-data/slamfront/internal/measurement"
)

// HasLoop reports whether any cluster holds both fragments of the same
// odometry. Such a cluster would turn the odometry into an edge from a
// vertex to itself.
func HasLoop(clusters []*cluster.Cluster) bool {
	for _, c := range clusters {
		parents := make(map[uuid.UUID]struct{})
		for _, m := range c.Core() {
			f, ok := m.(*measurement.OdometryFragment)
			if !ok {
				continue
			}
			if _, dup := parents[f.Parent.ID()]; dup {
				return true
			}
			parents[f.Parent.ID()] = struct{}{}
		}
	}
	return false
}

// RemoveLoops drops every combination containing a loop and returns the
// survivors with the number removed. Whole combinations are dropped; a
// partial combination is not meaningful on its own.
func RemoveLoops(combos []ClustersWithConnections) ([]ClustersWithConnections, int) {
	out := make([]ClustersWithConnections, 0, len(combos))
	for _, c := range combos {
		if HasLoop(c.Clusters) {
			continue
		}
		out = append(out, c)
	}
	return out, len(combos) - len(out)
}
