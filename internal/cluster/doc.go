// Package cluster owns measurement clusters: the bag of measurements
// assigned to one estimation moment.
//
// Responsibilities: seed cluster formation from core measurements,
// cluster timestamps (lower median) and time ranges, immutable
// attachment of continuous segments, and structural signatures.
// Key types: Cluster.
//
// Dependency rule: cluster may depend on measurement and signature only.
package cluster
