// Package slamerr defines the error taxonomy shared by the candidate
// engine and its callers.
//
// Structural errors (ErrValidation, ErrLoop) indicate a defect and are
// never recovered internally. Data-availability errors
// (ErrNoAdmissibleCandidate, ErrUnresolvableLeftover) are ordinary
// results the caller may act on, for example by widening the batch.
package slamerr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation reports a violated structural invariant.
	ErrValidation = errors.New("validation failed")

	// ErrLoop reports a connection whose two ends resolve to one vertex.
	ErrLoop = errors.New("connection loops onto a single vertex")

	// ErrNoAdmissibleCandidate reports that no candidate is connected.
	ErrNoAdmissibleCandidate = errors.New("no admissible candidate")

	// ErrUnresolvableLeftover reports continuous data that no future
	// batch can attach.
	ErrUnresolvableLeftover = errors.New("unresolvable leftover")
)

// ValidationError describes which invariant was violated.
type ValidationError struct {
	Reason string
}

// Validationf returns a ValidationError with a formatted reason.
func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// Is makes errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// UnresolvableLeftoverError reports continuous samples older than Floor,
// the timestamp of the most recently committed cluster. Such samples can
// no longer be placed between two clusters.
type UnresolvableLeftoverError struct {
	Samples int
	Oldest  int64
	Floor   int64
}

func (e *UnresolvableLeftoverError) Error() string {
	return fmt.Sprintf("unresolvable leftover: %d samples older than committed cluster at %d (oldest %d)",
		e.Samples, e.Floor, e.Oldest)
}

// Is makes errors.Is(err, ErrUnresolvableLeftover) match.
func (e *UnresolvableLeftoverError) Is(target error) bool {
	return target == ErrUnresolvableLeftover
}
