package graph

import (
	"github.com/google/uuid"

	"github.com/banshee-data/slamfront/internal/measurement"
)

// Slot is the mutable, candidate-local view of one cluster's vertices.
// Committed slots overlay a VertexCluster already in the graph. Transient
// slots hold vertices at an instant that has no cluster of its own and
// are never indexed. The others become new VertexClusters when the
// candidate is finished.
type Slot struct {
	ID        uuid.UUID
	Range     measurement.TimeRange
	Timestamp int64
	Pose      uuid.UUID
	Velocity  uuid.UUID
	Committed bool
	Transient bool
}

// HasVertices reports whether any vertex has been bound to s.
func (s *Slot) HasVertices() bool {
	return s.Pose != uuid.Nil || s.Velocity != uuid.Nil
}

// VertexCluster converts s into its storage form.
func (s *Slot) VertexCluster() VertexCluster {
	return VertexCluster{
		ID:        s.ID,
		Range:     s.Range,
		Timestamp: s.Timestamp,
		Pose:      s.Pose,
		Velocity:  s.Velocity,
	}
}

// Pending holds the slots of one candidate under construction. It is
// owned by a single candidate and never shared.
type Pending struct {
	slots     []*Slot
	committed map[uuid.UUID]*Slot
	claims    map[int64]*Slot
}

// NewPending returns an empty set of slots.
func NewPending() *Pending {
	return &Pending{
		committed: make(map[uuid.UUID]*Slot),
		claims:    make(map[int64]*Slot),
	}
}

// Add registers a new cluster spanning r with timestamp ts.
func (p *Pending) Add(r measurement.TimeRange, ts int64) *Slot {
	s := &Slot{ID: uuid.New(), Range: r, Timestamp: ts}
	p.slots = append(p.slots, s)
	return s
}

// Claim binds time t to s: a core measurement of s's cluster sits at t.
// Claimed times resolve to s before any committed or pending range is
// consulted, so a cluster's own members never split across vertices.
func (p *Pending) Claim(s *Slot, t int64) {
	p.claims[t] = s
}

// Committed returns the overlay slot of the committed cluster containing
// t, creating it on first use.
func (p *Pending) Committed(g *Graph, t int64) (*Slot, bool) {
	vc, found := g.Cluster(t)
	if !found {
		return nil, false
	}
	if s, seen := p.committed[vc.ID]; seen {
		return s, true
	}
	s := &Slot{
		ID:        vc.ID,
		Range:     vc.Range,
		Timestamp: vc.Timestamp,
		Pose:      vc.Pose,
		Velocity:  vc.Velocity,
		Committed: true,
	}
	p.committed[vc.ID] = s
	p.slots = append(p.slots, s)
	return s, true
}

// Resolve returns the slot for time t: the slot that claimed t, else the
// committed cluster containing t if g has one, else the pending cluster
// containing t. ok is false when none exists.
func (p *Pending) Resolve(g *Graph, t int64) (s *Slot, ok bool) {
	if s, claimed := p.claims[t]; claimed {
		return s, true
	}
	if s, ok := p.Committed(g, t); ok {
		return s, true
	}
	for _, s := range p.slots {
		if !s.Committed && s.Range.Contains(t) {
			return s, true
		}
	}
	return nil, false
}

// AddTransient registers a transient slot at t.
func (p *Pending) AddTransient(t int64) *Slot {
	s := p.Add(measurement.TimeRange{Start: t, Stop: t}, t)
	s.Transient = true
	return s
}

// ResolveOrAdd is Resolve, falling back to a new transient slot at t.
func (p *Pending) ResolveOrAdd(g *Graph, t int64) *Slot {
	if s, ok := p.Resolve(g, t); ok {
		return s
	}
	return p.AddTransient(t)
}

// Slots returns every slot in creation order.
func (p *Pending) Slots() []*Slot {
	return p.slots
}
