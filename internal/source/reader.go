package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"

	"github.com/banshee-data/slamfront/internal/measurement"
)

// ErrUnknownKind is returned for a record whose kind is not recognised.
var ErrUnknownKind = errors.New("unknown record kind")

// maxLineBytes bounds one record; scans make pose records large.
const maxLineBytes = 16 * 1024 * 1024

// Record is one line of a recording.
type Record struct {
	Kind string `json:"kind"`
	// ID is optional; records without one get a random ID.
	ID string `json:"id,omitempty"`

	// pose
	T int64 `json:"t,omitempty"`
	// odometry
	Start int64 `json:"start,omitempty"`
	Stop  int64 `json:"stop,omitempty"`

	Transform *[16]float64 `json:"transform,omitempty"`
	Noise     [6]float64   `json:"noise,omitempty"`
	Scan      [][3]float64 `json:"scan,omitempty"`

	// imu
	Sensor  string         `json:"sensor,omitempty"`
	Samples []SampleRecord `json:"samples,omitempty"`
}

// SampleRecord is one inertial reading of an imu record.
type SampleRecord struct {
	T    int64      `json:"t"`
	Acc  [3]float64 `json:"acc"`
	Gyro [3]float64 `json:"gyro"`
}

// Reader decodes measurements from a JSON-lines stream. Blank lines are
// skipped.
type Reader struct {
	scan *bufio.Scanner
	line int
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Reader{scan: scan}
}

// Next returns the next measurement, or io.EOF at the end of the stream.
func (r *Reader) Next() (measurement.Measurement, error) {
	for r.scan.Scan() {
		r.line++
		data := r.scan.Bytes()
		if len(bytes.TrimSpace(data)) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		m, err := rec.Measurement()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
		return m, nil
	}
	if err := r.scan.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", r.line+1, err)
	}
	return nil, io.EOF
}

// Line returns the number of the last line read.
func (r *Reader) Line() int { return r.line }

func (rec Record) id() (uuid.UUID, error) {
	if rec.ID == "" {
		return uuid.New(), nil
	}
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("record id: %w", err)
	}
	return id, nil
}

func (rec Record) transform() [16]float64 {
	if rec.Transform == nil {
		return measurement.Identity4
	}
	return *rec.Transform
}

func (rec Record) scan() []r3.Vector {
	if len(rec.Scan) == 0 {
		return nil
	}
	out := make([]r3.Vector, len(rec.Scan))
	for i, p := range rec.Scan {
		out[i] = r3.Vector{X: p[0], Y: p[1], Z: p[2]}
	}
	return out
}

// Measurement converts rec into a measurement.
func (rec Record) Measurement() (measurement.Measurement, error) {
	id, err := rec.id()
	if err != nil {
		return nil, err
	}
	switch rec.Kind {
	case "pose":
		return &measurement.Pose{
			MeasurementID: id,
			Time:          rec.T,
			T:             rec.transform(),
			Noise:         rec.Noise,
			Scan:          rec.scan(),
		}, nil
	case "odometry":
		if rec.Stop < rec.Start {
			return nil, fmt.Errorf("odometry %s: stop %d before start %d", id, rec.Stop, rec.Start)
		}
		return &measurement.Odometry{
			MeasurementID: id,
			Range:         measurement.TimeRange{Start: rec.Start, Stop: rec.Stop},
			T:             rec.transform(),
			Noise:         rec.Noise,
			Scan:          rec.scan(),
		}, nil
	case "imu":
		if len(rec.Samples) == 0 {
			return nil, fmt.Errorf("imu %s: no samples", id)
		}
		samples := make([]measurement.ImuSample, len(rec.Samples))
		for i, s := range rec.Samples {
			if i > 0 && s.T < rec.Samples[i-1].T {
				return nil, fmt.Errorf("imu %s: samples out of order at %d", id, i)
			}
			samples[i] = measurement.ImuSample{T: s.T, Acc: s.Acc, Gyro: s.Gyro}
		}
		return &measurement.Imu{MeasurementID: id, Sensor: rec.Sensor, Samples: samples}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, rec.Kind)
	}
}
