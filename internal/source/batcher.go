package source

import (
	"errors"
	"io"
	"time"

	"github.com/banshee-data/slamfront/internal/measurement"
)

// MeasurementReader yields measurements until io.EOF.
type MeasurementReader interface {
	Next() (measurement.Measurement, error)
}

// Batcher groups measurements into consecutive time windows. Windows
// never move backwards: a measurement older than the current window
// start joins the current window.
type Batcher struct {
	r      MeasurementReader
	window int64

	head    measurement.Measurement
	eof     bool
	cursor  int64
	started bool
	carry   []measurement.Measurement
}

// NewBatcher returns a Batcher over r. window must be positive.
func NewBatcher(r MeasurementReader, window time.Duration) *Batcher {
	return &Batcher{r: r, window: int64(window)}
}

// Carry queues ms for the next batch regardless of their timestamps.
func (b *Batcher) Carry(ms ...measurement.Measurement) {
	b.carry = append(b.carry, ms...)
}

// Pending returns the number of carried measurements not yet batched.
func (b *Batcher) Pending() int { return len(b.carry) }

// Exhausted reports whether the underlying reader has returned io.EOF
// and every read measurement has been batched.
func (b *Batcher) Exhausted() bool { return b.eof && b.head == nil }

func (b *Batcher) peek() (measurement.Measurement, error) {
	if b.head != nil || b.eof {
		return b.head, nil
	}
	m, err := b.r.Next()
	if errors.Is(err, io.EOF) {
		b.eof = true
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b.head = m
	return m, nil
}

// Next returns the next batch: every carried measurement plus the read
// measurements of the next window. It returns io.EOF once the reader is
// exhausted and nothing is carried.
func (b *Batcher) Next() (*measurement.Batch, error) {
	batch := measurement.NewBatch(b.carry...)
	b.carry = nil

	head, err := b.peek()
	if err != nil {
		return nil, err
	}
	if head == nil {
		if batch.Empty() {
			return nil, io.EOF
		}
		return batch, nil
	}

	start := head.Timestamp()
	if b.started && start < b.cursor {
		start = b.cursor
	}
	end := start + b.window
	for head != nil && head.Timestamp() < end {
		batch.Add(head)
		b.head = nil
		if head, err = b.peek(); err != nil {
			return nil, err
		}
	}
	b.cursor, b.started = end, true
	return batch, nil
}
