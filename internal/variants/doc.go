// Package variants turns one measurement batch into the list of distinct
// candidate variants: merged clusters with continuous data attached and
// the leftovers that could not be placed.
//
// Responsibilities: stale-data detection, seed clustering, anchoring new
// clusters to committed history, continuous attachment, and structural
// deduplication.
// Key types: Generator, ClustersWithLeftovers, Boundary.
//
// Dependency rule: variants may depend on measurement, cluster, combine,
// signature and slamerr, but never on graph or candidate.
package variants
