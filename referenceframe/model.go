package referenceframe

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/trampolinelab/acrokin/spatialmath"
)

// BodySegment is a segment of a skeletal Model. Its joint coordinate system relative to its
// parent is RT * Trans(translation dofs) * Rot(rotation dofs), with translation dofs first in q.
type BodySegment struct {
	Name         string
	Parent       string
	RT           mgl64.Mat4
	Translations string
	Rotations    spatialmath.EulerSequence
}

// NbDoF is the number of generalized coordinates the segment consumes.
func (s BodySegment) NbDoF() int {
	return len(s.Translations) + len(s.Rotations)
}

// LocalMarker is a marker rigidly attached to a segment, in segment coordinates.
type LocalMarker struct {
	Name     string
	Position r3.Vector
}

// BodyMarker is a marker of a skeletal Model.
type BodyMarker struct {
	LocalMarker
	Segment string
}

// MarkerLayout lists, per segment name, the markers attached to it in declaration order.
type MarkerLayout map[string][]LocalMarker

// Model is a skeletal model: a segment tree with rest transforms, degrees of freedom and markers.
// A Model is immutable after construction and safe for concurrent use.
type Model struct {
	name     string
	tree     *Tree
	segments []BodySegment
	markers  []BodyMarker
	parents  []int
	markerOf []int
	qOffset  []int
	nbQ      int
}

// NewModel validates the segments and markers and builds a Model.
func NewModel(name string, segments []BodySegment, markers []BodyMarker) (*Model, error) {
	cfgs := make([]SegmentConfig, len(segments))
	for i, s := range segments {
		cfgs[i] = SegmentConfig{Name: s.Name, Parent: s.Parent}
	}
	tree, err := NewTree(name, cfgs)
	if err != nil {
		return nil, err
	}
	m := &Model{
		name:     name,
		tree:     tree,
		segments: append([]BodySegment(nil), segments...),
		markers:  append([]BodyMarker(nil), markers...),
		parents:  make([]int, len(segments)),
		markerOf: make([]int, len(markers)),
		qOffset:  make([]int, len(segments)),
	}
	var errs error
	for i, s := range segments {
		if s.RT == (mgl64.Mat4{}) {
			m.segments[i].RT = mgl64.Ident4()
		}
		m.parents[i] = tree.Segment(i).ParentIndex
		m.qOffset[i] = m.nbQ
		m.nbQ += s.NbDoF()
		if err := validateTranslations(s.Translations); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "segment %q", s.Name))
		}
		if s.Rotations != "" && s.Rotations.Axes() == nil {
			errs = multierr.Append(errs, errors.Errorf("segment %q has invalid rotation sequence %q", s.Name, s.Rotations))
		}
	}
	for i, mk := range markers {
		idx, ok := tree.Index(mk.Segment)
		if !ok {
			errs = multierr.Append(errs, errors.Errorf("marker %q is attached to unknown segment %q", mk.Name, mk.Segment))
			continue
		}
		m.markerOf[i] = idx
	}
	if errs != nil {
		return nil, errs
	}
	return m, nil
}

func validateTranslations(s string) error {
	if s == "" {
		return nil
	}
	_, err := spatialmath.ParseEulerSequence(s)
	if err != nil {
		return errors.Wrap(err, "invalid translation axes")
	}
	return nil
}

// Name returns the name of the model.
func (m *Model) Name() string {
	return m.name
}

// Tree returns the segment tree of the model.
func (m *Model) Tree() *Tree {
	return m.tree
}

// Segments returns a copy of the segments.
func (m *Model) Segments() []BodySegment {
	return append([]BodySegment(nil), m.segments...)
}

// Markers returns a copy of the markers.
func (m *Model) Markers() []BodyMarker {
	return append([]BodyMarker(nil), m.markers...)
}

// MarkerNames returns the marker names in model order.
func (m *Model) MarkerNames() []string {
	out := make([]string, len(m.markers))
	for i, mk := range m.markers {
		out[i] = mk.Name
	}
	return out
}

// NbQ is the total number of generalized coordinates.
func (m *Model) NbQ() int {
	return m.nbQ
}

// DoFNames names every generalized coordinate as segment_TransX or segment_RotX.
func (m *Model) DoFNames() []string {
	out := make([]string, 0, m.nbQ)
	for _, s := range m.segments {
		for _, a := range spatialmath.EulerSequence(s.Translations).Axes() {
			out = append(out, fmt.Sprintf("%s_Trans%s", s.Name, a))
		}
		for _, a := range s.Rotations.Axes() {
			out = append(out, fmt.Sprintf("%s_Rot%s", s.Name, a))
		}
	}
	return out
}

// MarkerLayout groups markers by segment.
func (m *Model) MarkerLayout() MarkerLayout {
	layout := MarkerLayout{}
	for _, mk := range m.markers {
		layout[mk.Segment] = append(layout[mk.Segment], mk.LocalMarker)
	}
	return layout
}

// SegmentTransforms returns the global homogeneous transform of every segment for the coordinates q.
func (m *Model) SegmentTransforms(q []float64) ([]mgl64.Mat4, error) {
	if len(q) != m.nbQ {
		return nil, errors.Errorf("model %q needs %d generalized coordinates, got %d", m.name, m.nbQ, len(q))
	}
	out := make([]mgl64.Mat4, len(m.segments))
	for i, s := range m.segments {
		local, err := s.localTransform(q[m.qOffset[i] : m.qOffset[i]+s.NbDoF()])
		if err != nil {
			return nil, err
		}
		if m.parents[i] < 0 {
			out[i] = local
		} else {
			out[i] = out[m.parents[i]].Mul4(local)
		}
	}
	return out, nil
}

func (s BodySegment) localTransform(q []float64) (mgl64.Mat4, error) {
	var trans r3.Vector
	nt := len(s.Translations)
	for i, a := range spatialmath.EulerSequence(s.Translations).Axes() {
		switch a {
		case spatialmath.AxisX:
			trans.X = q[i]
		case spatialmath.AxisY:
			trans.Y = q[i]
		case spatialmath.AxisZ:
			trans.Z = q[i]
		}
	}
	rot := spatialmath.IdentityRotation()
	if s.Rotations != "" {
		var err error
		rot, err = spatialmath.EulerToRotationMatrix(q[nt:], s.Rotations)
		if err != nil {
			return mgl64.Mat4{}, err
		}
	}
	return s.RT.Mul4(rot.Homogeneous(trans)), nil
}

// MarkerPositions returns the global position of every marker for the coordinates q.
func (m *Model) MarkerPositions(q []float64) ([]r3.Vector, error) {
	transforms, err := m.SegmentTransforms(q)
	if err != nil {
		return nil, err
	}
	out := make([]r3.Vector, len(m.markers))
	for i, mk := range m.markers {
		p := transforms[m.markerOf[i]].Mul4x1(mgl64.Vec4{mk.Position.X, mk.Position.Y, mk.Position.Z, 1})
		out[i] = r3.Vector{X: p[0], Y: p[1], Z: p[2]}
	}
	return out, nil
}
