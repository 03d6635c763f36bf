package edges

import (
	"errors"
	"fmt"

	"github.com/banshee-data/slamfront/internal/graph"
	"github.com/banshee-data/slamfront/internal/measurement"
)

var (
	// ErrSkip is returned by a factory when a measurement contributes no
	// edge, for example the start fragment of an odometry.
	ErrSkip = errors.New("measurement produces no edge")

	// ErrUnregistered is returned for a kind without a factory.
	ErrUnregistered = errors.New("no factory registered")
)

// Factory builds the graph element for one measurement. g is a snapshot
// that must only be read; pending holds the candidate-local cluster slots
// and may be updated as vertices are bound.
type Factory interface {
	Create(g *graph.Graph, pending *graph.Pending, m measurement.Measurement) (graph.Element, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(g *graph.Graph, pending *graph.Pending, m measurement.Measurement) (graph.Element, error)

// Create calls f.
func (f FactoryFunc) Create(g *graph.Graph, pending *graph.Pending, m measurement.Measurement) (graph.Element, error) {
	return f(g, pending, m)
}

// Skip is a factory that never produces an edge.
var Skip = FactoryFunc(func(*graph.Graph, *graph.Pending, measurement.Measurement) (graph.Element, error) {
	return graph.Element{}, ErrSkip
})

// Registry is the dispatch table from measurement kind to factory. It is
// read-only once built and safe for concurrent Create calls.
type Registry struct {
	factories map[measurement.Kind]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[measurement.Kind]Factory)}
}

// DefaultRegistry returns the registry wired with the built-in factories.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(measurement.KindPose, PosePrior{})
	r.Register(measurement.KindOdometryFragment, Odometry{})
	r.Register(measurement.KindImuSegment, ImuPreintegration{})
	r.Register(measurement.KindAnchor, Skip)
	return r
}

// Register binds f to kind k, replacing any previous factory.
func (r *Registry) Register(k measurement.Kind, f Factory) {
	r.factories[k] = f
}

// Create dispatches m to the factory for its kind.
func (r *Registry) Create(g *graph.Graph, pending *graph.Pending, m measurement.Measurement) (graph.Element, error) {
	f, ok := r.factories[m.Kind()]
	if !ok {
		return graph.Element{}, fmt.Errorf("%w for %s", ErrUnregistered, m.Kind())
	}
	return f.Create(g, pending, m)
}
