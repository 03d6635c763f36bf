// Package source replays recorded measurements. Reader decodes a
// JSON-lines recording and Batcher groups the decoded measurements into
// fixed time windows, with leftovers and refused batches carried into
// the next window.
//
// Dependency rule: source depends on measurement only.
package source
