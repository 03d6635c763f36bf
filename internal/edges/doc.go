// Package edges maps measurement kinds to the factories that turn them
// into graph elements.
//
// Responsibilities: the static dispatch table (Registry), vertex
// resolution through candidate-local slots, and the pose-prior,
// odometry and IMU pre-integration factories.
// Key types: Factory, Registry.
//
// Dependency rule: edges may depend on measurement, graph and slamerr.
// Factories never mutate the graph they are given.
package edges
