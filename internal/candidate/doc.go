// Package candidate materialises variants into graph candidates.
//
// Each candidate is built on its own snapshot of the graph by
// dispatching every clustered measurement through the edge registry, so
// candidates share no mutable state and may be built in parallel.
// Key types: Candidate, Builder.
//
// Dependency rule: candidate may depend on measurement, cluster,
// variants, graph, edges and slamerr.
package candidate
