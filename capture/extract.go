package capture

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/trampolinelab/acrokin/referenceframe"
	"github.com/trampolinelab/acrokin/spatialmath"
)

// Options controls frame extraction.
type Options struct {
	// YUp permutes Y-up data to Z-up before anything else: (x, y, z) -> (x, -z, y).
	YUp bool
}

// sensorAlignment is the fixed -90 degree turn about the vertical applied to every sensor orientation.
var sensorAlignment = spatialmath.RotationAboutAxis(spatialmath.AxisZ, -math.Pi/2)

// ExtractFrames dispatches to the marker or sensor extractor. layout is only used for marker recordings.
func ExtractFrames(
	rec Recording,
	tree *referenceframe.Tree,
	layout referenceframe.MarkerLayout,
	iv Interval,
	opts Options,
) (*referenceframe.FrameSequence, error) {
	switch r := rec.(type) {
	case *MarkerRecording:
		return ExtractMarkerFrames(r, tree, layout, iv, opts)
	case *SensorRecording:
		return ExtractSensorFrames(r, tree, iv, opts)
	default:
		return nil, errors.Errorf("unsupported recording type %T", rec)
	}
}

type segmentMarkers struct {
	local   []r3.Vector
	columns []int
}

// ExtractMarkerFrames computes the global pose of every segment of tree for each frame of iv by rigid
// registration of the segment's markers. A segment with any occluded marker is undefined in that frame.
func ExtractMarkerFrames(
	rec *MarkerRecording,
	tree *referenceframe.Tree,
	layout referenceframe.MarkerLayout,
	iv Interval,
	opts Options,
) (*referenceframe.FrameSequence, error) {
	iv, err := iv.Resolve(rec.NumFrames())
	if err != nil {
		return nil, err
	}
	// resolve everything up front so a bad layout fails before any frame is processed
	perSegment := make([]segmentMarkers, tree.Len())
	for i, seg := range tree.Segments() {
		markers := layout[seg.Name]
		sm := segmentMarkers{local: make([]r3.Vector, len(markers)), columns: make([]int, len(markers))}
		for j, m := range markers {
			col, ok := rec.MarkerIndex(m.Name)
			if !ok {
				return nil, errors.Errorf("marker %q of segment %q is not in the recording", m.Name, seg.Name)
			}
			sm.local[j] = m.Position
			sm.columns[j] = col
		}
		if err := checkMarkerGeometry(sm.local); err != nil {
			return nil, errors.Wrapf(err, "segment %q", seg.Name)
		}
		perSegment[i] = sm
	}

	fs := referenceframe.NewFrameSequence(tree, iv.Len())
	observed := make([]r3.Vector, 0, 8)
	for f := 0; f < iv.Len(); f++ {
		frame := rec.Frames[iv.Start+f]
		for s, sm := range perSegment {
			observed = observed[:0]
			occluded := false
			for _, col := range sm.columns {
				p := frame[col]
				if !spatialmath.PointIsDefined(p) {
					occluded = true
					break
				}
				if opts.YUp {
					p = spatialmath.YUpToZUp().MulVec(p)
				}
				observed = append(observed, p)
			}
			if occluded {
				continue
			}
			pose, err := RegisterRigid(sm.local, observed)
			if err != nil {
				return nil, errors.Wrapf(err, "segment %q frame %d", tree.Segment(s).Name, iv.Start+f)
			}
			fs.SetPose(s, f, pose)
		}
	}
	return fs, nil
}

// ExtractSensorFrames converts the orientation quaternion of every segment to a rotation matrix,
// turned -90 degrees about the vertical, and takes the recorded joint center as position.
// A zero or undefined quaternion gives an undefined pose.
func ExtractSensorFrames(
	rec *SensorRecording,
	tree *referenceframe.Tree,
	iv Interval,
	opts Options,
) (*referenceframe.FrameSequence, error) {
	iv, err := iv.Resolve(rec.NumFrames())
	if err != nil {
		return nil, err
	}
	columns := make([]int, tree.Len())
	for i, seg := range tree.Segments() {
		col, ok := rec.SegmentIndex(seg.Name)
		if !ok {
			return nil, errors.Errorf("segment %q is not in the sensor recording", seg.Name)
		}
		columns[i] = col
	}

	fs := referenceframe.NewFrameSequence(tree, iv.Len())
	for f := 0; f < iv.Len(); f++ {
		for s, col := range columns {
			rot := spatialmath.QuatToRotationMatrix(rec.Orientations[iv.Start+f][col])
			point := rec.Positions[iv.Start+f][col]
			if !rot.IsDefined() {
				continue
			}
			if opts.YUp {
				rot = spatialmath.YUpToZUp().Mul(rot)
				point = spatialmath.YUpToZUp().MulVec(point)
			}
			fs.SetPose(s, f, spatialmath.NewPose(point, sensorAlignment.Mul(rot)))
		}
	}
	return fs, nil
}

// MarkerClouds returns the frames of iv with the markers in the given order, Y-up data turned to Z-up.
// Occluded markers stay NaN.
func MarkerClouds(rec *MarkerRecording, markers []string, iv Interval, opts Options) ([][]r3.Vector, error) {
	iv, err := iv.Resolve(rec.NumFrames())
	if err != nil {
		return nil, err
	}
	columns := make([]int, len(markers))
	for i, m := range markers {
		col, ok := rec.MarkerIndex(m)
		if !ok {
			return nil, errors.Errorf("marker %q is not in the recording", m)
		}
		columns[i] = col
	}
	out := make([][]r3.Vector, iv.Len())
	for f := range out {
		frame := rec.Frames[iv.Start+f]
		out[f] = make([]r3.Vector, len(columns))
		for i, col := range columns {
			p := frame[col]
			if opts.YUp && spatialmath.PointIsDefined(p) {
				p = spatialmath.YUpToZUp().MulVec(p)
			}
			out[f][i] = p
		}
	}
	return out, nil
}
