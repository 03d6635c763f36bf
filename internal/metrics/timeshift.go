package metrics

import (
	"github.com/banshee-data/slamfront/internal/cluster"
)

// ClusterTimeshift sums |t - median| over every measurement of c, where
// median is the lower median of c's core timestamps. A cluster without
// core measurements costs nothing.
func ClusterTimeshift(c *cluster.Cluster) int64 {
	median, ok := c.Timestamp()
	if !ok {
		return 0
	}
	var total int64
	for _, m := range c.Measurements() {
		d := m.Timestamp() - median
		if d < 0 {
			d = -d
		}
		total += d
	}
	return total
}

// Timeshift is the summed ClusterTimeshift of clusters.
func Timeshift(clusters []*cluster.Cluster) int64 {
	var total int64
	for _, c := range clusters {
		total += ClusterTimeshift(c)
	}
	return total
}
