// Package graph owns the permanent estimation graph and the index of
// committed vertex clusters.
//
// Responsibilities: vertex/edge storage, cluster lookup by time,
// copy-on-write snapshots for per-candidate construction, and the
// pending-cluster slots edge factories resolve vertices through.
// Key types: Graph, Element, VertexCluster, Pending.
//
// Dependency rule: graph may depend on measurement and slamerr only.
// Storage is backed by tidwall/btree so snapshots need no locking.
package graph
