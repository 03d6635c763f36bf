// Package metrics computes the quality signals used to rank candidates.
//
// Responsibilities: time-shift cost, structural connectivity (orphan
// and detached components, via union-find), and pluggable scorers such
// as the voxel plane-thickness map quality.
// Key types: Result, Evaluator, Scorer, MapQuality.
//
// Dependency rule: metrics may depend on measurement, cluster, graph
// and candidate. Evaluation never mutates a candidate.
package metrics
