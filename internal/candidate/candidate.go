package candidate

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/slamfront/internal/cluster"
	"github.com/banshee-data/slamfront/internal/edges"
	"github.com/banshee-data/slamfront/internal/graph"
	"github.com/banshee-data/slamfront/internal/measurement"
	"github.com/banshee-data/slamfront/internal/slamerr"
	"github.com/banshee-data/slamfront/internal/variants"
)

// Candidate is one fully materialised proposal for extending the graph.
type Candidate struct {
	ID uuid.UUID
	// Graph is the snapshot with Elements applied and the new vertex
	// clusters recorded. Committing the candidate adopts it.
	Graph *graph.Graph
	// BaseEmpty reports whether the graph held no vertices before the
	// candidate was applied.
	BaseEmpty bool
	Elements  []graph.Element
	Clusters  []*cluster.Cluster
	// ClusterPoses holds the pose vertex each cluster resolved to, aligned
	// with Clusters. uuid.Nil when a cluster bound no pose.
	ClusterPoses []uuid.UUID
	Leftovers    []measurement.ImuSample
	// Generation identifies the version of the permanent graph the
	// snapshot was taken from. The owner of that graph stamps it and
	// refuses to commit a candidate from another generation.
	Generation uint64
}

// Unused returns the number of continuous samples not consumed.
func (c *Candidate) Unused() int {
	return len(c.Leftovers)
}

// Builder turns variants into candidates.
type Builder struct {
	registry *edges.Registry
}

// NewBuilder returns a builder dispatching through r. A nil r selects
// edges.DefaultRegistry.
func NewBuilder(r *edges.Registry) *Builder {
	if r == nil {
		r = edges.DefaultRegistry()
	}
	return &Builder{registry: r}
}

// Build materialises v on snapshot, which becomes owned by the returned
// candidate. A cluster without core measurements is an invariant
// violation and yields a *slamerr.ValidationError.
func (b *Builder) Build(snapshot *graph.Graph, v variants.ClustersWithLeftovers) (*Candidate, error) {
	c := &Candidate{
		ID:        uuid.New(),
		Graph:     snapshot,
		BaseEmpty: snapshot.Empty(),
		Clusters:  v.Clusters,
		Leftovers: v.Leftovers,
	}

	pending := graph.NewPending()
	stamps := make([]int64, len(v.Clusters))
	for i, cl := range v.Clusters {
		r, ok := cl.TimeRange()
		if !ok {
			return nil, slamerr.Validationf("cluster %d has no time range", i)
		}
		stamps[i], _ = cl.Timestamp()
		// A cluster reaching into committed history joins that cluster
		// whole instead of splitting its members across two vertices.
		var slot *graph.Slot
		for _, m := range cl.Core() {
			if s, ok := pending.Committed(snapshot, m.Timestamp()); ok {
				slot = s
				break
			}
		}
		if slot == nil {
			slot = pending.Add(r, stamps[i])
		}
		for _, m := range cl.Core() {
			pending.Claim(slot, m.Timestamp())
		}
	}

	for i, cl := range v.Clusters {
		for _, m := range cl.Measurements() {
			el, err := b.registry.Create(snapshot, pending, m)
			if errors.Is(err, edges.ErrSkip) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("cluster %d %s %s: %w", i, m.Kind(), m.ID(), err)
			}
			if err := snapshot.Apply(el); err != nil {
				return nil, fmt.Errorf("apply %s edge: %w", el.Edge.Kind, err)
			}
			c.Elements = append(c.Elements, el)
		}
	}

	for _, s := range pending.Slots() {
		if s.HasVertices() && !s.Transient {
			snapshot.PutCluster(s.VertexCluster())
		}
	}
	c.ClusterPoses = make([]uuid.UUID, len(v.Clusters))
	for i, ts := range stamps {
		if s, ok := pending.Resolve(snapshot, ts); ok {
			c.ClusterPoses[i] = s.Pose
		}
	}

	tracef("candidate %s: clusters=%d elements=%d unused=%d", c.ID, len(c.Clusters), len(c.Elements), c.Unused())
	return c, nil
}

// BuildAll builds one candidate per variant on independent snapshots of
// g, using up to workers goroutines. Snapshots are taken before any
// goroutine starts. The result is aligned with vs.
func (b *Builder) BuildAll(ctx context.Context, g *graph.Graph, vs []variants.ClustersWithLeftovers, workers int) ([]*Candidate, error) {
	snapshots := make([]*graph.Graph, len(vs))
	for i := range vs {
		snapshots[i] = g.Snapshot()
	}

	out := make([]*Candidate, len(vs))
	eg, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		eg.SetLimit(workers)
	}
	for i := range vs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := b.Build(snapshots[i], vs[i])
			if err != nil {
				return fmt.Errorf("variant %d: %w", i, err)
			}
			out[i] = c
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		opsf("candidate build failed: %v", err)
		return nil, err
	}
	diagf("built %d candidates on %d workers", len(out), workers)
	return out, nil
}
