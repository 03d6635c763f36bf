package measurement

import (
	"slices"

	"github.com/google/uuid"
)

// Batch holds the measurements that became available for one engine
// invocation, grouped by kind. Each kind keeps insertion order and a
// measurement ID is stored at most once. A Batch is created per
// invocation and discarded after commit.
type Batch struct {
	byKind map[Kind][]Measurement
	seen   map[uuid.UUID]struct{}
}

// NewBatch returns an empty batch, optionally pre-filled with ms.
func NewBatch(ms ...Measurement) *Batch {
	b := &Batch{
		byKind: make(map[Kind][]Measurement),
		seen:   make(map[uuid.UUID]struct{}),
	}
	b.Add(ms...)
	return b
}

// Add appends measurements, ignoring nil values and IDs already present.
// It returns the number actually added.
func (b *Batch) Add(ms ...Measurement) int {
	added := 0
	for _, m := range ms {
		if m == nil {
			continue
		}
		if _, dup := b.seen[m.ID()]; dup {
			continue
		}
		b.seen[m.ID()] = struct{}{}
		b.byKind[m.Kind()] = append(b.byKind[m.Kind()], m)
		added++
	}
	return added
}

// Get returns a copy of the measurements of kind k in insertion order.
func (b *Batch) Get(k Kind) []Measurement {
	return slices.Clone(b.byKind[k])
}

// Kinds returns the kinds present in the batch in ascending order.
func (b *Batch) Kinds() []Kind {
	kinds := make([]Kind, 0, len(b.byKind))
	for k, ms := range b.byKind {
		if len(ms) > 0 {
			kinds = append(kinds, k)
		}
	}
	slices.Sort(kinds)
	return kinds
}

// All returns every measurement, grouped by ascending kind.
func (b *Batch) All() []Measurement {
	var out []Measurement
	for _, k := range b.Kinds() {
		out = append(out, b.byKind[k]...)
	}
	return out
}

// Len returns the number of measurements in the batch.
func (b *Batch) Len() int {
	return len(b.seen)
}

// Empty reports whether the batch holds no measurements.
func (b *Batch) Empty() bool {
	return b.Len() == 0
}

// DropSamplesBefore removes inertial samples older than floor from every
// Imu stream in the batch and returns how many were removed. Streams left
// without samples are removed entirely.
func (b *Batch) DropSamplesBefore(floor int64) int {
	dropped := 0
	var kept []Measurement
	for _, m := range b.byKind[KindImu] {
		imu := m.(*Imu)
		samples := make([]ImuSample, 0, len(imu.Samples))
		for _, s := range imu.Samples {
			if s.T < floor {
				dropped++
				continue
			}
			samples = append(samples, s)
		}
		if len(samples) == 0 {
			delete(b.seen, imu.MeasurementID)
			continue
		}
		kept = append(kept, &Imu{MeasurementID: imu.MeasurementID, Sensor: imu.Sensor, Samples: samples})
	}
	if kept == nil {
		delete(b.byKind, KindImu)
	} else {
		b.byKind[KindImu] = kept
	}
	return dropped
}
