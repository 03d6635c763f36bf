// Package monitoring holds the process-wide logging shim and the
// engine's Prometheus collectors.
//
// Dependency rule: monitoring imports no other internal package.
package monitoring
