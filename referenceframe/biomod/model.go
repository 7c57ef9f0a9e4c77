package biomod

import (
	"strings"

	"github.com/trampolinelab/acrokin/referenceframe"
	"github.com/trampolinelab/acrokin/spatialmath"
)

// parent returns the parent segment name, empty for the root. The implicit
// "base" or "root" parent counts as no parent unless a segment carries that name.
func (d *Document) parent(seg *Segment) string {
	if seg.Parent == "" {
		return ""
	}
	if _, ok := d.byName[seg.Parent]; ok {
		return seg.Parent
	}
	switch strings.ToLower(seg.Parent) {
	case "base", "root":
		return ""
	}
	return seg.Parent
}

// Model converts the document into a skeletal model with forward kinematics.
func (d *Document) Model(name string) (*referenceframe.Model, error) {
	segments := make([]referenceframe.BodySegment, len(d.Segments))
	for i, s := range d.Segments {
		segments[i] = referenceframe.BodySegment{
			Name:         s.Name,
			Parent:       d.parent(s),
			RT:           s.RT,
			Translations: s.Translations,
			Rotations:    spatialmath.EulerSequence(s.Rotations),
		}
	}
	markers := make([]referenceframe.BodyMarker, len(d.Markers))
	for i, mk := range d.Markers {
		markers[i] = referenceframe.BodyMarker{
			LocalMarker: referenceframe.LocalMarker{Name: mk.Name, Position: mk.Position},
			Segment:     mk.Parent,
		}
	}
	return referenceframe.NewModel(name, segments, markers)
}

// Tree returns the segment tree declared by the document.
func (d *Document) Tree(name string) (*referenceframe.Tree, error) {
	cfgs := make([]referenceframe.SegmentConfig, len(d.Segments))
	for i, s := range d.Segments {
		cfgs[i] = referenceframe.SegmentConfig{Name: s.Name, Parent: d.parent(s)}
	}
	return referenceframe.NewTree(name, cfgs)
}

// MarkerLayout groups the markers of the document by segment.
func (d *Document) MarkerLayout() referenceframe.MarkerLayout {
	layout := referenceframe.MarkerLayout{}
	for _, mk := range d.Markers {
		layout[mk.Parent] = append(layout[mk.Parent], referenceframe.LocalMarker{Name: mk.Name, Position: mk.Position})
	}
	return layout
}
