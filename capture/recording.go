// Package capture loads marker and inertial sensor recordings and turns them into per-segment frames.
package capture

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// Source names the kind of capture a recording comes from.
type Source int

const (
	// SourceMarker is an optical marker recording.
	SourceMarker Source = iota
	// SourceSensor is an inertial sensor recording.
	SourceSensor
)

func (s Source) String() string {
	switch s {
	case SourceMarker:
		return "marker"
	case SourceSensor:
		return "sensor"
	default:
		return "unknown"
	}
}

// ParseSource converts "marker" or "sensor" into a Source.
func ParseSource(s string) (Source, error) {
	switch s {
	case "marker":
		return SourceMarker, nil
	case "sensor":
		return SourceSensor, nil
	default:
		return 0, errors.Errorf("unknown capture source %q, must be marker or sensor", s)
	}
}

// Interval selects the frames [Start, End) of a recording. An End of zero or less means the last frame.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Resolve fills an open end and checks the interval against a recording of n frames.
func (iv Interval) Resolve(n int) (Interval, error) {
	out := iv
	if out.End <= 0 {
		out.End = n
	}
	if out.Start < 0 || out.End > n || out.Start >= out.End {
		return Interval{}, errors.Errorf("invalid frame interval [%d, %d) for a recording of %d frames", iv.Start, iv.End, n)
	}
	return out, nil
}

// Len is the number of frames in a resolved interval.
func (iv Interval) Len() int {
	return iv.End - iv.Start
}

// Recording is implemented by MarkerRecording and SensorRecording.
type Recording interface {
	Source() Source
	NumFrames() int
}

// MarkerRecording holds global marker positions per frame. Occluded markers are NaN.
type MarkerRecording struct {
	Markers []string
	Frames  [][]r3.Vector // [frame][marker]

	index map[string]int
}

// NewMarkerRecording wraps marker data. Every frame must have one position per marker.
func NewMarkerRecording(markers []string, frames [][]r3.Vector) (*MarkerRecording, error) {
	index := make(map[string]int, len(markers))
	for i, m := range markers {
		if _, ok := index[m]; ok {
			return nil, errors.Errorf("marker %q listed twice", m)
		}
		index[m] = i
	}
	for f, frame := range frames {
		if len(frame) != len(markers) {
			return nil, errors.Errorf("frame %d has %d markers, expected %d", f, len(frame), len(markers))
		}
	}
	return &MarkerRecording{Markers: markers, Frames: frames, index: index}, nil
}

// Source returns SourceMarker.
func (r *MarkerRecording) Source() Source {
	return SourceMarker
}

// NumFrames is the number of frames.
func (r *MarkerRecording) NumFrames() int {
	return len(r.Frames)
}

// MarkerIndex returns the column of the named marker.
func (r *MarkerRecording) MarkerIndex(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// SensorRecording holds one orientation quaternion and one joint center per segment per frame.
type SensorRecording struct {
	Segments     []string
	Orientations [][]quat.Number // [frame][segment]
	Positions    [][]r3.Vector   // [frame][segment]

	index map[string]int
}

// NewSensorRecording wraps sensor data. Every frame must have one value per segment.
func NewSensorRecording(segments []string, orientations [][]quat.Number, positions [][]r3.Vector) (*SensorRecording, error) {
	index := make(map[string]int, len(segments))
	for i, s := range segments {
		if _, ok := index[s]; ok {
			return nil, errors.Errorf("segment %q listed twice", s)
		}
		index[s] = i
	}
	if len(orientations) != len(positions) {
		return nil, errors.Errorf("have %d orientation frames but %d position frames", len(orientations), len(positions))
	}
	for f := range orientations {
		if len(orientations[f]) != len(segments) || len(positions[f]) != len(segments) {
			return nil, errors.Errorf("frame %d does not have one value per segment", f)
		}
	}
	return &SensorRecording{Segments: segments, Orientations: orientations, Positions: positions, index: index}, nil
}

// Source returns SourceSensor.
func (r *SensorRecording) Source() Source {
	return SourceSensor
}

// NumFrames is the number of frames.
func (r *SensorRecording) NumFrames() int {
	return len(r.Orientations)
}

// SegmentIndex returns the column of the named segment.
func (r *SensorRecording) SegmentIndex(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}
