package kinematics

import (
	"github.com/golang/geo/r3"
	"go.uber.org/multierr"

	"github.com/trampolinelab/acrokin/referenceframe"
	"github.com/trampolinelab/acrokin/spatialmath"
)

// JointCenterOptions selects how joint centers are expressed in the root frame.
type JointCenterOptions struct {
	// Root is the segment whose frame the joint centers are expressed in.
	Root string `json:"root"`
	// HipRight and HipLeft define the origin as their midpoint.
	HipRight string `json:"hip_right"`
	HipLeft  string `json:"hip_left"`
	// Heading is the turn about the vertical, in radians, applied to the root orientation slot only.
	Heading float64 `json:"heading"`
	// Segments lists the exported joint centers in order. The root slot holds its Euler angles.
	Segments []string `json:"segments"`
	// Swap lists the segments whose local series is turned (x, y) -> (-y, x).
	Swap []string `json:"swap"`
}

// DefaultJointCenterOptions exports the pelvis, head, forearms, hands and legs of the sensor body.
func DefaultJointCenterOptions() JointCenterOptions {
	return JointCenterOptions{
		Root:     "Pelvis",
		HipRight: "UpperLegR",
		HipLeft:  "UpperLegL",
		Segments: []string{
			"Pelvis", "Head",
			"LowerArmR", "HandR", "LowerArmL", "HandL",
			"UpperLegR", "LowerLegR", "FootR",
			"UpperLegL", "LowerLegL", "FootL",
		},
		Swap: []string{
			"Head", "UpperArmR", "LowerArmR", "HandR", "UpperArmL", "LowerArmL",
			"HandL", "LowerLegR", "FootR", "LowerLegL", "FootL",
		},
	}
}

// JointCenters is a joint center series per exported segment. Series[i][f] is segment Names[i] at frame f.
// The root entry holds the unwrapped "xyz" Euler angles of the root instead of a position.
type JointCenters struct {
	Names  []string
	Series [][]r3.Vector
}

// SwapBilateral turns a local position a quarter turn about the vertical: (x, y) -> (-y, x).
func SwapBilateral(v r3.Vector) r3.Vector {
	return r3.Vector{X: -v.Y, Y: v.X, Z: v.Z}
}

// JointCentersInRoot expresses the joint centers of fs relative to the hip midpoint, in the root
// orientation without heading.
func JointCentersInRoot(
	fs *referenceframe.FrameSequence,
	opts JointCenterOptions,
	validator *spatialmath.Validator,
) (*JointCenters, error) {
	tree := fs.Tree()
	var errs error
	indexOf := map[string]int{}
	for _, name := range append([]string{opts.Root, opts.HipRight, opts.HipLeft}, opts.Segments...) {
		i, ok := tree.Index(name)
		if !ok {
			errs = multierr.Append(errs, referenceframe.NewSegmentNotFoundError(name))
			continue
		}
		indexOf[name] = i
	}
	if errs != nil {
		return nil, errs
	}
	if validator == nil {
		validator = spatialmath.NewValidator(spatialmath.Lenient, nil)
	}
	swap := map[string]bool{}
	for _, name := range opts.Swap {
		swap[name] = true
	}

	n := fs.NumFrames()
	root := indexOf[opts.Root]
	heading := spatialmath.RotationAboutAxis(spatialmath.AxisZ, opts.Heading)
	out := &JointCenters{Names: append([]string(nil), opts.Segments...), Series: make([][]r3.Vector, len(opts.Segments))}
	for i := range out.Series {
		out.Series[i] = make([]r3.Vector, n)
	}

	euler := [3][]float64{make([]float64, n), make([]float64, n), make([]float64, n)}
	for f := 0; f < n; f++ {
		rot := fs.Pose(root, f).Rotation
		headed := heading.Mul(rot)
		if rot.IsDefined() {
			if _, err := validator.Validate(rot, opts.Root, f); err != nil {
				return nil, err
			}
			if _, err := validator.Validate(headed, opts.Root, f); err != nil {
				return nil, err
			}
		}
		for a, v := range headed.EulerAngles(spatialmath.SequenceXYZ) {
			euler[a][f] = v
		}
		origin := fs.Pose(indexOf[opts.HipRight], f).Point.Add(fs.Pose(indexOf[opts.HipLeft], f).Point).Mul(0.5)
		toRoot := rot.Transpose()
		for s, name := range opts.Segments {
			if name == opts.Root {
				continue
			}
			local := toRoot.MulVec(fs.Pose(indexOf[name], f).Point.Sub(origin))
			if swap[name] {
				local = SwapBilateral(local)
			}
			out.Series[s][f] = local
		}
	}
	for a := range euler {
		Unwrap(euler[a])
	}
	for s, name := range opts.Segments {
		if name != opts.Root {
			continue
		}
		for f := 0; f < n; f++ {
			out.Series[s][f] = r3.Vector{X: euler[0][f], Y: euler[1][f], Z: euler[2][f]}
		}
	}
	return out, nil
}

// Index returns the position of the named segment in Names.
func (jc *JointCenters) Index(name string) (int, bool) {
	for i, n := range jc.Names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// NumFrames is the number of frames of every series.
func (jc *JointCenters) NumFrames() int {
	if len(jc.Series) == 0 {
		return 0
	}
	return len(jc.Series[0])
}

// Components returns the series as [axis][segment][frame], with NaN for missing samples.
func (jc *JointCenters) Components() [3][][]float64 {
	var out [3][][]float64
	for a := range out {
		out[a] = make([][]float64, len(jc.Series))
		for s, series := range jc.Series {
			out[a][s] = make([]float64, len(series))
			for f, v := range series {
				switch a {
				case 0:
					out[a][s][f] = v.X
				case 1:
					out[a][s][f] = v.Y
				default:
					out[a][s][f] = v.Z
				}
			}
		}
	}
	return out
}
