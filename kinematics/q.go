// Package kinematics computes generalized joint coordinates, joint centers and marker based
// reconstructions from per-segment frames.
package kinematics

import (
	"fmt"
	"math"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"

	"github.com/trampolinelab/acrokin/referenceframe"
	"github.com/trampolinelab/acrokin/spatialmath"
	"github.com/trampolinelab/acrokin/utils"
)

// ErrEmptyTrial is returned when a movement has no frames.
var ErrEmptyTrial = errors.New("movement trial has no frames")

// DoF is one row of the generalized coordinates: a rotation or translation of a segment about an axis.
type DoF struct {
	Segment     string
	Axis        spatialmath.Axis
	Translation bool
}

func (d DoF) String() string {
	if d.Translation {
		return fmt.Sprintf("%s_Trans%s", d.Segment, d.Axis)
	}
	return fmt.Sprintf("%s_Rot%s", d.Segment, d.Axis)
}

// GeneralizedCoordinates holds one row per retained degree of freedom and one column per frame.
// Rotations are in radians.
type GeneralizedCoordinates struct {
	Rows []DoF
	Data *mat.Dense
}

// NumDoF is the number of rows.
func (g *GeneralizedCoordinates) NumDoF() int {
	return len(g.Rows)
}

// NumFrames is the number of columns.
func (g *GeneralizedCoordinates) NumFrames() int {
	_, c := g.Data.Dims()
	return c
}

// Row returns a copy of row i.
func (g *GeneralizedCoordinates) Row(i int) []float64 {
	return mat.Row(nil, i, g.Data)
}

// Index returns the row of the given degree of freedom.
func (g *GeneralizedCoordinates) Index(d DoF) (int, bool) {
	for i, r := range g.Rows {
		if r == d {
			return i, true
		}
	}
	return -1, false
}

// Labels returns the name of every row.
func (g *GeneralizedCoordinates) Labels() []string {
	out := make([]string, len(g.Rows))
	for i, r := range g.Rows {
		out[i] = r.String()
	}
	return out
}

// Degrees returns a copy with every rotation row converted to degrees.
func (g *GeneralizedCoordinates) Degrees() *GeneralizedCoordinates {
	out := &GeneralizedCoordinates{Rows: append([]DoF(nil), g.Rows...), Data: mat.DenseCopyOf(g.Data)}
	for i, r := range out.Rows {
		if r.Translation {
			continue
		}
		for f := 0; f < out.NumFrames(); f++ {
			out.Data.Set(i, f, utils.RadToDeg(out.Data.At(i, f)))
		}
	}
	return out
}

// ExtractOptions controls ExtractQ.
type ExtractOptions struct {
	// IncludeRootTranslation prepends the root joint center as three translation rows.
	IncludeRootTranslation bool
	// Validator checks every reference and movement rotation. A nil validator is lenient.
	Validator *spatialmath.Validator
}

// ExtractQ computes the generalized coordinates of a movement relative to a reference pose.
// For each segment and frame the rotation of the segment relative to its parent is compared with
// the same relative rotation at rest and the difference is decomposed with the segment's Euler
// sequence. Each row is then unwrapped along the frames and re-centered.
// Frames where a segment or its parent is undefined give NaN angles.
func ExtractQ(
	ref *referenceframe.ReferencePose,
	mov *referenceframe.FrameSequence,
	policy DoFPolicy,
	opts ExtractOptions,
	logger golog.Logger,
) (*GeneralizedCoordinates, error) {
	if logger == nil {
		logger = golog.NewLogger("kinematics")
	}
	tree := mov.Tree()
	if err := sameTree(ref.Tree(), tree); err != nil {
		return nil, err
	}
	n := mov.NumFrames()
	if n == 0 {
		return nil, ErrEmptyTrial
	}
	if err := policy.Validate(tree); err != nil {
		return nil, errors.Wrap(err, "invalid degree of freedom policy")
	}
	validator := opts.Validator
	if validator == nil {
		validator = spatialmath.NewValidator(spatialmath.Lenient, logger)
	}

	var errs error
	for i, seg := range tree.Segments() {
		if _, err := validator.Validate(ref.Rotation(i), seg.Name, -1); err != nil {
			errs = multierr.Append(errs, errors.Wrap(err, "reference"))
		}
		if _, err := validator.ValidateBatch(mov.Rotations(i), seg.Name); err != nil {
			errs = multierr.Append(errs, errors.Wrap(err, "movement"))
		}
	}
	if errs != nil {
		return nil, errs
	}

	var rows []DoF
	var series [][]float64
	if opts.IncludeRootTranslation {
		root := tree.Segment(tree.Root())
		for _, a := range []spatialmath.Axis{spatialmath.AxisX, spatialmath.AxisY, spatialmath.AxisZ} {
			rows = append(rows, DoF{Segment: root.Name, Axis: a, Translation: true})
		}
		x, y, z := make([]float64, n), make([]float64, n), make([]float64, n)
		for f := 0; f < n; f++ {
			p := mov.Pose(tree.Root(), f).Point
			x[f], y[f], z[f] = p.X, p.Y, p.Z
		}
		series = append(series, x, y, z)
	}

	for i, seg := range tree.Segments() {
		rule := policy.Rule(seg.Name)
		axes := rule.Sequence.Axes()

		relaxBetween := ref.Rotation(i)
		if !seg.IsRoot() {
			relaxBetween = spatialmath.OrientationBetween(ref.Rotation(seg.ParentIndex), ref.Rotation(i))
		}

		angles := make([][]float64, len(axes))
		for a := range angles {
			angles[a] = make([]float64, n)
		}
		for f := 0; f < n; f++ {
			movementBetween := mov.Pose(i, f).Rotation
			if !seg.IsRoot() {
				movementBetween = spatialmath.OrientationBetween(mov.Pose(seg.ParentIndex, f).Rotation, movementBetween)
			}
			offset := relaxBetween.Transpose().Mul(movementBetween)
			for a, v := range offset.EulerAngles(rule.Sequence) {
				angles[a][f] = v
			}
		}

		for a, axis := range axes {
			Unwrap(angles[a])
			if CorrectBranch(angles[a], rule.BranchThreshold) {
				logger.Debugw("shifted angle series by one turn", "segment", seg.Name, "axis", axis.String())
			}
			rows = append(rows, DoF{Segment: seg.Name, Axis: axis})
			series = append(series, angles[a])
		}
	}

	data := mat.NewDense(len(rows), n, nil)
	for r, s := range series {
		data.SetRow(r, s)
	}
	if undefined := countNaN(data); undefined > 0 {
		logger.Debugw("generalized coordinates contain undefined samples", "count", undefined)
	}
	return &GeneralizedCoordinates{Rows: rows, Data: data}, nil
}

func sameTree(a, b *referenceframe.Tree) error {
	if a == b {
		return nil
	}
	if a.Len() != b.Len() {
		return referenceframe.NewSegmentCountError(a.Len(), b.Len())
	}
	for i := 0; i < a.Len(); i++ {
		if a.Segment(i) != b.Segment(i) {
			return errors.Errorf("reference and movement trees differ at segment %d (%q vs %q)",
				i, a.Segment(i).Name, b.Segment(i).Name)
		}
	}
	return nil
}

func countNaN(m *mat.Dense) int {
	r, c := m.Dims()
	n := 0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.IsNaN(m.At(i, j)) {
				n++
			}
		}
	}
	return n
}
