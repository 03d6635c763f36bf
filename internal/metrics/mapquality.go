package metrics

import (
	"errors"
	"math"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/slamfront/internal/candidate"
	"github.com/banshee-data/slamfront/internal/measurement"
)

// ErrNoMapData is returned by a scorer that has nothing to score.
var ErrNoMapData = errors.New("no map data")

// Scorer is an optional, pluggable candidate metric. Lower scores are
// better.
type Scorer interface {
	Name() string
	Score(c *candidate.Candidate) (float64, error)
}

// MapQuality scores how crisp the map assembled from a candidate's scans
// is. Points are moved into the world frame by their cluster's pose
// vertex and bucketed into voxels; the score is the mean smallest
// covariance eigenvalue over voxels holding at least MinPoints points,
// i.e. the mean squared thickness of local planes.
type MapQuality struct {
	VoxelSize float64
	MinPoints int
}

// Name implements Scorer.
func (MapQuality) Name() string { return "map_quality" }

type voxelAccum struct {
	n   int
	sum r3.Vector
	// xx holds the upper triangle of the sum of outer products:
	// xx, xy, xz, yy, yz, zz.
	xx [6]float64
}

func (a *voxelAccum) add(p r3.Vector) {
	a.n++
	a.sum = a.sum.Add(p)
	a.xx[0] += p.X * p.X
	a.xx[1] += p.X * p.Y
	a.xx[2] += p.X * p.Z
	a.xx[3] += p.Y * p.Y
	a.xx[4] += p.Y * p.Z
	a.xx[5] += p.Z * p.Z
}

// thickness returns the smallest eigenvalue of the voxel covariance.
func (a *voxelAccum) thickness() (float64, bool) {
	n := float64(a.n)
	m := a.sum.Mul(1 / n)
	cov := mat.NewSymDense(3, []float64{
		a.xx[0]/n - m.X*m.X, a.xx[1]/n - m.X*m.Y, a.xx[2]/n - m.X*m.Z,
		0, a.xx[3]/n - m.Y*m.Y, a.xx[4]/n - m.Y*m.Z,
		0, 0, a.xx[5]/n - m.Z*m.Z,
	})
	var eig mat.EigenSym
	if !eig.Factorize(cov, false) {
		return 0, false
	}
	values := eig.Values(nil)
	return math.Max(values[0], 0), true
}

// Transform applies the row-major 4x4 transform t to p.
func Transform(t [16]float64, p r3.Vector) r3.Vector {
	return r3.Vector{
		X: t[0]*p.X + t[1]*p.Y + t[2]*p.Z + t[3],
		Y: t[4]*p.X + t[5]*p.Y + t[6]*p.Z + t[7],
		Z: t[8]*p.X + t[9]*p.Y + t[10]*p.Z + t[11],
	}
}

func scanOf(m measurement.Measurement) []r3.Vector {
	switch s := m.(type) {
	case *measurement.Pose:
		return s.Scan
	case *measurement.OdometryFragment:
		if s.End == measurement.FragmentStop {
			return s.Parent.Scan
		}
	}
	return nil
}

// Score implements Scorer.
func (q MapQuality) Score(c *candidate.Candidate) (float64, error) {
	if q.VoxelSize <= 0 {
		return 0, errors.New("map quality: voxel size must be positive")
	}
	inv := 1 / q.VoxelSize
	voxels := make(map[[3]int64]*voxelAccum)

	for i, cl := range c.Clusters {
		if i >= len(c.ClusterPoses) || c.ClusterPoses[i] == uuid.Nil {
			continue
		}
		v, ok := c.Graph.Vertex(c.ClusterPoses[i])
		if !ok {
			continue
		}
		for _, m := range cl.Core() {
			for _, p := range scanOf(m) {
				w := Transform(v.Pose, p)
				key := [3]int64{
					int64(math.Floor(w.X * inv)),
					int64(math.Floor(w.Y * inv)),
					int64(math.Floor(w.Z * inv)),
				}
				acc := voxels[key]
				if acc == nil {
					acc = &voxelAccum{}
					voxels[key] = acc
				}
				acc.add(w)
			}
		}
	}

	var total float64
	var count int
	for _, acc := range voxels {
		if acc.n < q.MinPoints {
			continue
		}
		if th, ok := acc.thickness(); ok {
			total += th
			count++
		}
	}
	if count == 0 {
		return 0, ErrNoMapData
	}
	return total / float64(count), nil
}
