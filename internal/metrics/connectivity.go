package metrics

import (
	"github.com/google/uuid"

	"github.com/banshee-data/slamfront/internal/graph"
)

// unionFind is a disjoint-set forest over vertex IDs with path halving
// and union by size.
type unionFind struct {
	parent map[uuid.UUID]uuid.UUID
	size   map[uuid.UUID]int
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[uuid.UUID]uuid.UUID), size: make(map[uuid.UUID]int)}
}

func (u *unionFind) add(id uuid.UUID) {
	if _, ok := u.parent[id]; !ok {
		u.parent[id] = id
		u.size[id] = 1
	}
}

func (u *unionFind) find(id uuid.UUID) uuid.UUID {
	for u.parent[id] != id {
		u.parent[id] = u.parent[u.parent[id]]
		id = u.parent[id]
	}
	return id
}

func (u *unionFind) union(a, b uuid.UUID) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.size[ra] < u.size[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	u.size[ra] += u.size[rb]
}

// Structure summarises how a candidate's elements hang together.
type Structure struct {
	// Orphans counts introduced vertices no edge references.
	Orphans int
	// Components counts connected components among the vertices the
	// elements introduce or touch.
	Components int
	// Detached counts components containing no pre-existing vertex.
	Detached int
}

// Connected reports whether the structure is admissible. Every introduced
// vertex must be on an edge; on a non-empty graph every component must
// reach an existing vertex, and on an empty graph everything must form a
// single component.
func (s Structure) Connected(baseEmpty bool) bool {
	if s.Orphans > 0 {
		return false
	}
	if baseEmpty {
		return s.Components == 1
	}
	return s.Detached == 0
}

// Analyze computes the Structure of elements.
func Analyze(elements []graph.Element) Structure {
	uf := newUnionFind()
	introduced := make(map[uuid.UUID]struct{})
	referenced := make(map[uuid.UUID]struct{})

	for _, el := range elements {
		for _, v := range el.NewVertices {
			introduced[v.ID] = struct{}{}
			uf.add(v.ID)
		}
		for _, id := range el.Edge.Vertices {
			referenced[id] = struct{}{}
			uf.add(id)
		}
		for i := 1; i < len(el.Edge.Vertices); i++ {
			uf.union(el.Edge.Vertices[0], el.Edge.Vertices[i])
		}
	}

	var s Structure
	for id := range introduced {
		if _, ok := referenced[id]; !ok {
			s.Orphans++
		}
	}
	attached := make(map[uuid.UUID]bool)
	for id := range uf.parent {
		root := uf.find(id)
		if _, seen := attached[root]; !seen {
			attached[root] = false
		}
		if _, isNew := introduced[id]; !isNew {
			attached[root] = true
		}
	}
	s.Components = len(attached)
	for _, ok := range attached {
		if !ok {
			s.Detached++
		}
	}
	return s
}
