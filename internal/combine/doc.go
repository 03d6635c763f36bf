// Package combine enumerates the ways a batch of seed clusters can be
// turned into graph moments.
//
// Responsibilities: merging temporally adjacent seed clusters, chaining
// merged clusters with connections, and discarding combinations that
// would fold an odometry back onto a single vertex.
// Key types: Partition, Connection, ClustersWithConnections.
//
// Dependency rule: combine may depend on measurement, cluster and
// signature. Generation is iterative; nothing here recurses.
package combine
