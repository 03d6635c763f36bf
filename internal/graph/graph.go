package graph

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"
	"github.com/tidwall/btree"

	"github.com/banshee-data/slamfront/internal/measurement"
	"github.com/banshee-data/slamfront/internal/slamerr"
)

// VertexKind enumerates the estimated quantities.
type VertexKind uint8

const (
	VertexPose VertexKind = iota + 1
	VertexVelocity
)

func (k VertexKind) String() string {
	switch k {
	case VertexPose:
		return "pose"
	case VertexVelocity:
		return "velocity"
	default:
		return fmt.Sprintf("vertex(%d)", uint8(k))
	}
}

// Vertex is one estimated quantity at one moment.
type Vertex struct {
	ID        uuid.UUID
	Kind      VertexKind
	Timestamp int64
	// Pose is a row-major 4x4 transform, set for VertexPose.
	Pose [16]float64
	// Velocity is set for VertexVelocity.
	Velocity [3]float64
}

// EdgeKind enumerates the factor types the engine emits.
type EdgeKind uint8

const (
	EdgePosePrior EdgeKind = iota + 1
	EdgeOdometry
	EdgeImuPreintegration
)

func (k EdgeKind) String() string {
	switch k {
	case EdgePosePrior:
		return "pose_prior"
	case EdgeOdometry:
		return "odometry"
	case EdgeImuPreintegration:
		return "imu_preintegration"
	default:
		return fmt.Sprintf("edge(%d)", uint8(k))
	}
}

// Edge constrains one or more vertices with one measurement.
type Edge struct {
	ID          uuid.UUID
	Kind        EdgeKind
	Timestamp   int64
	Vertices    []uuid.UUID
	Measurement uuid.UUID
}

// Element is the unit produced by an edge factory: one edge plus the
// vertices it introduced.
type Element struct {
	Edge        Edge
	NewVertices []Vertex
}

// VertexCluster records which vertices represent one committed moment.
type VertexCluster struct {
	ID        uuid.UUID
	Range     measurement.TimeRange
	Timestamp int64
	Pose      uuid.UUID
	Velocity  uuid.UUID
}

func lessID(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

func lessCluster(a, b VertexCluster) bool {
	if a.Range.Start != b.Range.Start {
		return a.Range.Start < b.Range.Start
	}
	return lessID(a.ID, b.ID)
}

// Graph is the permanent estimation graph plus its vertex-cluster index.
// It is not safe for concurrent mutation. Snapshot returns an independent
// copy-on-write view that may be mutated by another goroutine.
type Graph struct {
	vertices *btree.BTreeG[Vertex]
	edges    *btree.BTreeG[Edge]
	clusters *btree.BTreeG[VertexCluster]
	// maxSpan is the longest committed cluster duration. It bounds the
	// backwards scan in Cluster.
	maxSpan int64
}

var treeOptions = btree.Options{NoLocks: true}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		vertices: btree.NewBTreeGOptions(func(a, b Vertex) bool { return lessID(a.ID, b.ID) }, treeOptions),
		edges:    btree.NewBTreeGOptions(func(a, b Edge) bool { return lessID(a.ID, b.ID) }, treeOptions),
		clusters: btree.NewBTreeGOptions(lessCluster, treeOptions),
	}
}

// Snapshot returns an independent copy of g. Copies share structure until
// either side is modified. Snapshots of the same graph must be taken from
// a single goroutine; each snapshot may then be used by its own
// goroutine.
func (g *Graph) Snapshot() *Graph {
	return &Graph{
		vertices: g.vertices.Copy(),
		edges:    g.edges.Copy(),
		clusters: g.clusters.Copy(),
		maxSpan:  g.maxSpan,
	}
}

// Empty reports whether the graph holds no vertices.
func (g *Graph) Empty() bool { return g.vertices.Len() == 0 }

// NumVertices returns the number of vertices.
func (g *Graph) NumVertices() int { return g.vertices.Len() }

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() int { return g.edges.Len() }

// NumClusters returns the number of committed vertex clusters.
func (g *Graph) NumClusters() int { return g.clusters.Len() }

// Vertex returns the vertex with the given ID.
func (g *Graph) Vertex(id uuid.UUID) (Vertex, bool) {
	return g.vertices.Get(Vertex{ID: id})
}

// Edge returns the edge with the given ID.
func (g *Graph) Edge(id uuid.UUID) (Edge, bool) {
	return g.edges.Get(Edge{ID: id})
}

// Edges returns all edges ordered by ID.
func (g *Graph) Edges() []Edge {
	return g.edges.Items()
}

// Apply adds the vertices and the edge of el. Every vertex referenced by
// the edge must exist once el's vertices are added, and no vertex or edge
// may already exist. On error g is unchanged.
func (g *Graph) Apply(el Element) error {
	introduced := make(map[uuid.UUID]struct{}, len(el.NewVertices))
	for _, v := range el.NewVertices {
		if _, ok := g.vertices.Get(v); ok {
			return slamerr.Validationf("vertex %s already exists", v.ID)
		}
		introduced[v.ID] = struct{}{}
	}
	if _, ok := g.edges.Get(el.Edge); ok {
		return slamerr.Validationf("edge %s already exists", el.Edge.ID)
	}
	for _, id := range el.Edge.Vertices {
		if _, ok := introduced[id]; ok {
			continue
		}
		if _, ok := g.vertices.Get(Vertex{ID: id}); !ok {
			return slamerr.Validationf("edge %s references unknown vertex %s", el.Edge.ID, id)
		}
	}
	for _, v := range el.NewVertices {
		g.vertices.Set(v)
	}
	g.edges.Set(el.Edge)
	return nil
}

// PutCluster inserts vc, replacing a cluster with the same ID and start.
func (g *Graph) PutCluster(vc VertexCluster) {
	g.clusters.Set(vc)
	if span := vc.Range.Duration(); span > g.maxSpan {
		g.maxSpan = span
	}
}

// Cluster returns the committed cluster whose time range contains t. When
// ranges overlap the one starting latest wins.
func (g *Graph) Cluster(t int64) (VertexCluster, bool) {
	var found VertexCluster
	var ok bool
	pivot := VertexCluster{Range: measurement.TimeRange{Start: t}, ID: uuid.Max}
	g.clusters.Descend(pivot, func(vc VertexCluster) bool {
		if vc.Range.Contains(t) {
			found, ok = vc, true
			return false
		}
		return t-vc.Range.Start <= g.maxSpan
	})
	return found, ok
}

// SortedClusters returns every committed cluster ordered by range start.
func (g *Graph) SortedClusters() []VertexCluster {
	return g.clusters.Items()
}

// Latest returns the committed cluster with the latest range start.
func (g *Graph) Latest() (VertexCluster, bool) {
	return g.clusters.Max()
}
