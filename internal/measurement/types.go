package measurement

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
)

// Kind is the closed set of measurement variants understood by the engine.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindPose
	KindOdometry
	KindOdometryFragment
	KindImu
	KindImuSegment
	KindAnchor
)

// String returns the lower-case name used in logs and replay files.
func (k Kind) String() string {
	switch k {
	case KindPose:
		return "pose"
	case KindOdometry:
		return "odometry"
	case KindOdometryFragment:
		return "odometry_fragment"
	case KindImu:
		return "imu"
	case KindImuSegment:
		return "imu_segment"
	case KindAnchor:
		return "anchor"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Continuous reports whether measurements of this kind span a time
// interval and are sliced between clusters rather than anchoring one.
func (k Kind) Continuous() bool {
	return k == KindImu || k == KindImuSegment
}

// Measurement is a processed sensor reading. Timestamps are Unix
// nanoseconds. Implementations are immutable once constructed.
type Measurement interface {
	ID() uuid.UUID
	Kind() Kind
	Timestamp() int64
}

// TimeRange is a closed interval of Unix nanoseconds.
type TimeRange struct {
	Start int64
	Stop  int64
}

// Contains reports whether t lies within [Start, Stop].
func (r TimeRange) Contains(t int64) bool {
	return t >= r.Start && t <= r.Stop
}

// Duration returns Stop-Start.
func (r TimeRange) Duration() int64 {
	return r.Stop - r.Start
}

// Identity4 is the row-major 4x4 identity transform.
var Identity4 = [16]float64{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// Pose is an absolute pose estimate (e.g. from scan registration against
// a prior map). T is a row-major 4x4 homogeneous transform.
type Pose struct {
	MeasurementID uuid.UUID
	Time          int64
	T             [16]float64
	Noise         [6]float64
	// Scan holds the raw points, in the sensor frame, this pose was
	// derived from. Optional.
	Scan []r3.Vector
}

func (p *Pose) ID() uuid.UUID    { return p.MeasurementID }
func (p *Pose) Kind() Kind       { return KindPose }
func (p *Pose) Timestamp() int64 { return p.Time }

// Odometry is a relative motion between Range.Start and Range.Stop. It is
// stamped at the stop time.
type Odometry struct {
	MeasurementID uuid.UUID
	Range         TimeRange
	T             [16]float64
	Noise         [6]float64
	Scan          []r3.Vector
}

func (o *Odometry) ID() uuid.UUID    { return o.MeasurementID }
func (o *Odometry) Kind() Kind       { return KindOdometry }
func (o *Odometry) Timestamp() int64 { return o.Range.Stop }

// FragmentEnd identifies which end of an odometry a fragment stands for.
type FragmentEnd uint8

const (
	FragmentStart FragmentEnd = iota
	FragmentStop
)

func (e FragmentEnd) String() string {
	if e == FragmentStart {
		return "start"
	}
	return "stop"
}

// OdometryFragment is one end of a split odometry. Fragments take part in
// clustering like any other core measurement.
type OdometryFragment struct {
	Parent *Odometry
	End    FragmentEnd
	id     uuid.UUID
}

// NewFragment returns the fragment for one end of o. The ID is derived
// from the parent ID so repeated splits of the same odometry agree.
func NewFragment(o *Odometry, end FragmentEnd) *OdometryFragment {
	return &OdometryFragment{
		Parent: o,
		End:    end,
		id:     uuid.NewSHA1(o.MeasurementID, []byte(end.String())),
	}
}

func (f *OdometryFragment) ID() uuid.UUID { return f.id }
func (f *OdometryFragment) Kind() Kind    { return KindOdometryFragment }

func (f *OdometryFragment) Timestamp() int64 {
	if f.End == FragmentStart {
		return f.Parent.Range.Start
	}
	return f.Parent.Range.Stop
}

// ImuSample is one inertial reading. Sensor names the stream it came
// from; Classify fills it from the owning Imu when empty.
type ImuSample struct {
	T      int64
	Sensor string
	Acc    [3]float64
	Gyro   [3]float64
}

// Imu is a raw inertial stream: samples sorted by T.
type Imu struct {
	MeasurementID uuid.UUID
	Sensor        string
	Samples       []ImuSample
}

func (m *Imu) ID() uuid.UUID { return m.MeasurementID }
func (m *Imu) Kind() Kind    { return KindImu }

// Timestamp returns the last sample time, or 0 for an empty stream.
func (m *Imu) Timestamp() int64 {
	if len(m.Samples) == 0 {
		return 0
	}
	return m.Samples[len(m.Samples)-1].T
}

// ImuSegment is the slice of inertial samples that fills one connection
// between two clusters. Range is the connection's [from, to] interval.
type ImuSegment struct {
	MeasurementID uuid.UUID
	Range         TimeRange
	Samples       []ImuSample
}

// NewImuSegment wraps samples as a segment spanning r.
func NewImuSegment(r TimeRange, samples []ImuSample) *ImuSegment {
	return &ImuSegment{MeasurementID: uuid.New(), Range: r, Samples: samples}
}

func (s *ImuSegment) ID() uuid.UUID    { return s.MeasurementID }
func (s *ImuSegment) Kind() Kind       { return KindImuSegment }
func (s *ImuSegment) Timestamp() int64 { return s.Range.Stop }

// Anchor pins a transient cluster to a point in time. It carries no data
// and never produces a graph edge.
type Anchor struct {
	MeasurementID uuid.UUID
	Time          int64
}

// NewAnchor returns an anchor at t.
func NewAnchor(t int64) *Anchor {
	return &Anchor{MeasurementID: uuid.New(), Time: t}
}

func (a *Anchor) ID() uuid.UUID    { return a.MeasurementID }
func (a *Anchor) Kind() Kind       { return KindAnchor }
func (a *Anchor) Timestamp() int64 { return a.Time }
