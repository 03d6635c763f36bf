// Package measurement owns the measurement data model consumed by the
// candidate engine.
//
// Responsibilities: the closed set of measurement kinds, the per-batch
// measurement store, core/continuous classification, odometry
// splitting, and sorted sub-sequence extraction of inertial samples.
// Key types: Measurement, Kind, Batch, ImuSample.
//
// Dependency rule: this package depends on nothing else in the module.
// No graph or SQL code is allowed here.
package measurement
