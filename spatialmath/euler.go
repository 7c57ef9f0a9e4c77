package spatialmath

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

// Axis names one of the three coordinate axes.
type Axis int

// The coordinate axes.
const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	default:
		return "?"
	}
}

// EulerSequence is an ordered list of distinct axes, written as lowercase letters ("xyz", "zy", "x").
// Angles are intrinsic: R = R_first(a) * R_second(b) * R_third(c).
type EulerSequence string

// Sequences used by the default degree of freedom policies.
const (
	SequenceXYZ EulerSequence = "xyz"
	SequenceZY  EulerSequence = "zy"
	SequenceX   EulerSequence = "x"
)

// ParseEulerSequence validates s and returns it as an EulerSequence.
func ParseEulerSequence(s string) (EulerSequence, error) {
	seq := EulerSequence(strings.ToLower(strings.TrimSpace(s)))
	if _, err := seq.axes(); err != nil {
		return "", err
	}
	return seq, nil
}

func (s EulerSequence) axes() ([]Axis, error) {
	if len(s) == 0 || len(s) > 3 {
		return nil, errors.Errorf("euler sequence %q must name between 1 and 3 axes", string(s))
	}
	seen := map[Axis]bool{}
	axes := make([]Axis, 0, len(s))
	for _, r := range string(s) {
		var a Axis
		switch r {
		case 'x':
			a = AxisX
		case 'y':
			a = AxisY
		case 'z':
			a = AxisZ
		default:
			return nil, errors.Errorf("euler sequence %q contains unknown axis %q", string(s), r)
		}
		if seen[a] {
			return nil, errors.Errorf("euler sequence %q repeats axis %q", string(s), r)
		}
		seen[a] = true
		axes = append(axes, a)
	}
	return axes, nil
}

// Axes returns the axes of the sequence in order. An invalid sequence returns nil.
func (s EulerSequence) Axes() []Axis {
	axes, err := s.axes()
	if err != nil {
		return nil
	}
	return axes
}

// Len is the number of angles the sequence produces.
func (s EulerSequence) Len() int {
	return len(s.Axes())
}

// EulerToRotationMatrix composes the elementary rotations of seq with the given angles.
func EulerToRotationMatrix(angles []float64, seq EulerSequence) (RotationMatrix, error) {
	axes, err := seq.axes()
	if err != nil {
		return RotationMatrix{}, err
	}
	if len(angles) != len(axes) {
		return RotationMatrix{}, errors.Errorf("euler sequence %q needs %d angles, got %d", string(seq), len(axes), len(angles))
	}
	rm := IdentityRotation()
	for i, a := range axes {
		rm = rm.Mul(RotationAboutAxis(a, angles[i]))
	}
	return rm, nil
}

// EulerAngles decomposes the rotation into the angles of seq, in radians.
// The middle angle of a three axis sequence lies in [-pi/2, pi/2]; the others in (-pi, pi].
// An undefined matrix decomposes into NaN angles.
func (rm RotationMatrix) EulerAngles(seq EulerSequence) []float64 {
	axes := seq.Axes()
	out := make([]float64, len(axes))
	if !rm.IsDefined() {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	switch len(axes) {
	case 1:
		i := int(axes[0])
		j, k := (i+1)%3, (i+2)%3
		out[0] = math.Atan2(rm.At(k, j), rm.At(j, j))
	case 2:
		i, j := int(axes[0]), int(axes[1])
		k := 3 - i - j
		e := parity(i, j)
		// column j only sees the first rotation, row i only the second
		out[0] = math.Atan2(e*rm.At(k, j), rm.At(j, j))
		out[1] = math.Atan2(e*rm.At(i, k), rm.At(i, i))
	case 3:
		i, j, k := int(axes[0]), int(axes[1]), int(axes[2])
		e := parity(i, j)
		sb := math.Max(-1, math.Min(1, e*rm.At(i, k)))
		out[1] = math.Asin(sb)
		if math.Abs(sb) > 1-1e-12 {
			// gimbal lock: the first and last axes align, put everything on the first
			out[0] = math.Atan2(e*rm.At(k, j), rm.At(j, j))
			out[2] = 0
			return out
		}
		out[0] = math.Atan2(-e*rm.At(j, k), rm.At(k, k))
		out[2] = math.Atan2(-e*rm.At(i, j), rm.At(i, i))
	}
	return out
}

// parity is +1 when j follows i cyclically (xy, yz, zx) and -1 otherwise.
func parity(i, j int) float64 {
	if (j-i+3)%3 == 1 {
		return 1
	}
	return -1
}
