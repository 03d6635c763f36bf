package edges

import (
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/slamfront/internal/graph"
	"github.com/banshee-data/slamfront/internal/measurement"
	"github.com/banshee-data/slamfront/internal/slamerr"
)

// binder collects the vertices introduced while building one element.
type binder struct {
	g        *graph.Graph
	vertices []graph.Vertex
}

// pose returns the pose vertex of s, creating it with value when absent.
func (b *binder) pose(s *graph.Slot, value [16]float64) uuid.UUID {
	if s.Pose != uuid.Nil {
		return s.Pose
	}
	v := graph.Vertex{ID: uuid.New(), Kind: graph.VertexPose, Timestamp: s.Timestamp, Pose: value}
	b.vertices = append(b.vertices, v)
	s.Pose = v.ID
	return v.ID
}

// velocity returns the velocity vertex of s, creating it at rest when
// absent.
func (b *binder) velocity(s *graph.Slot) uuid.UUID {
	if s.Velocity != uuid.Nil {
		return s.Velocity
	}
	v := graph.Vertex{ID: uuid.New(), Kind: graph.VertexVelocity, Timestamp: s.Timestamp}
	b.vertices = append(b.vertices, v)
	s.Velocity = v.ID
	return v.ID
}

// poseValue returns the current value of the pose vertex of s, or the
// identity when s has none yet.
func (b *binder) poseValue(s *graph.Slot) [16]float64 {
	if s.Pose == uuid.Nil {
		return measurement.Identity4
	}
	for _, v := range b.vertices {
		if v.ID == s.Pose {
			return v.Pose
		}
	}
	if v, ok := b.g.Vertex(s.Pose); ok {
		return v.Pose
	}
	return measurement.Identity4
}

func (b *binder) element(kind graph.EdgeKind, m measurement.Measurement, vertices ...uuid.UUID) graph.Element {
	return graph.Element{
		Edge: graph.Edge{
			ID:          uuid.New(),
			Kind:        kind,
			Timestamp:   m.Timestamp(),
			Vertices:    vertices,
			Measurement: m.ID(),
		},
		NewVertices: b.vertices,
	}
}

// Compose returns a*b for row-major 4x4 transforms.
func Compose(a, b [16]float64) [16]float64 {
	ma := mat.NewDense(4, 4, a[:])
	mb := mat.NewDense(4, 4, b[:])
	var out mat.Dense
	out.Mul(ma, mb)
	var res [16]float64
	copy(res[:], out.RawMatrix().Data)
	return res
}

// PosePrior turns an absolute pose into a unary prior on its cluster's
// pose vertex.
type PosePrior struct{}

// Create implements Factory.
func (PosePrior) Create(g *graph.Graph, pending *graph.Pending, m measurement.Measurement) (graph.Element, error) {
	p, ok := m.(*measurement.Pose)
	if !ok {
		return graph.Element{}, fmt.Errorf("pose prior: unexpected %T", m)
	}
	b := &binder{g: g}
	slot := pending.ResolveOrAdd(g, p.Time)
	return b.element(graph.EdgePosePrior, p, b.pose(slot, p.T)), nil
}

// Odometry turns the stop fragment of a split odometry into a between-pose
// edge. Start fragments only shape clustering and yield ErrSkip.
type Odometry struct{}

// Create implements Factory.
func (Odometry) Create(g *graph.Graph, pending *graph.Pending, m measurement.Measurement) (graph.Element, error) {
	f, ok := m.(*measurement.OdometryFragment)
	if !ok {
		return graph.Element{}, fmt.Errorf("odometry: unexpected %T", m)
	}
	if f.End == measurement.FragmentStart {
		return graph.Element{}, ErrSkip
	}
	o := f.Parent
	from := pending.ResolveOrAdd(g, o.Range.Start)
	to := pending.ResolveOrAdd(g, o.Range.Stop)
	if from == to {
		return graph.Element{}, fmt.Errorf("odometry %s [%d, %d]: %w", o.ID(), o.Range.Start, o.Range.Stop, slamerr.ErrLoop)
	}

	b := &binder{g: g}
	start := b.pose(from, measurement.Identity4)
	stop := b.pose(to, Compose(b.poseValue(from), o.T))
	return b.element(graph.EdgeOdometry, o, start, stop), nil
}

// ImuPreintegration turns an attached inertial segment into an edge over
// the pose and velocity vertices at both ends of its range.
type ImuPreintegration struct{}

// Create implements Factory.
func (ImuPreintegration) Create(g *graph.Graph, pending *graph.Pending, m measurement.Measurement) (graph.Element, error) {
	seg, ok := m.(*measurement.ImuSegment)
	if !ok {
		return graph.Element{}, fmt.Errorf("imu preintegration: unexpected %T", m)
	}
	from := pending.ResolveOrAdd(g, seg.Range.Start)
	to := pending.ResolveOrAdd(g, seg.Range.Stop)
	if from == to {
		if seg.Range.Start == seg.Range.Stop {
			return graph.Element{}, fmt.Errorf("imu segment [%d, %d]: %w", seg.Range.Start, seg.Range.Stop, slamerr.ErrLoop)
		}
		// A prefix that starts inside its own cluster gets a separate
		// start instant.
		from = pending.AddTransient(seg.Range.Start)
	}

	b := &binder{g: g}
	startPose := b.pose(from, measurement.Identity4)
	startVel := b.velocity(from)
	stopPose := b.pose(to, b.poseValue(from))
	stopVel := b.velocity(to)
	return b.element(graph.EdgeImuPreintegration, seg, startPose, startVel, stopPose, stopVel), nil
}
