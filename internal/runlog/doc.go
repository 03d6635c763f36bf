// Package runlog persists one row per processed batch to SQLite so a
// replay can be audited after the fact.
//
// The schema is embedded and applied with golang-migrate. Writes retry
// while another connection holds the database lock.
//
// Dependency rule: runlog depends on timeutil and monitoring only; it
// knows nothing about the engine types it records.
package runlog
