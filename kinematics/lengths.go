package kinematics

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/stat"

	"github.com/trampolinelab/acrokin/referenceframe"
	"github.com/trampolinelab/acrokin/spatialmath"
)

// LengthPair names the two joint centers bounding a limb segment.
type LengthPair struct {
	Proximal string `json:"proximal"`
	Distal   string `json:"distal"`
}

// DefaultSensorLengthPairs are the upper and lower halves of the four limbs, proximal first.
func DefaultSensorLengthPairs() []LengthPair {
	return []LengthPair{
		{"UpperArmR", "LowerArmR"}, {"LowerArmR", "HandR"},
		{"UpperArmL", "LowerArmL"}, {"LowerArmL", "HandL"},
		{"UpperLegR", "LowerLegR"}, {"LowerLegR", "FootR"},
		{"UpperLegL", "LowerLegL"}, {"LowerLegL", "FootL"},
	}
}

// ErrNoLengthSamples is returned when no frame defines both ends of a pair.
var ErrNoLengthSamples = errors.New("no frame defines both ends of the segment")

// MeanSegmentLengths averages the distance between the joint centers of every pair over the defined
// frames. Pairs come as (proximal, distal) halves of a limb: every odd entry has the preceding one
// added so it holds the whole limb length.
func MeanSegmentLengths(fs *referenceframe.FrameSequence, pairs []LengthPair) ([]float64, error) {
	tree := fs.Tree()
	var errs error
	idx := make([][2]int, len(pairs))
	for i, p := range pairs {
		a, okA := tree.Index(p.Proximal)
		b, okB := tree.Index(p.Distal)
		if !okA {
			errs = multierr.Append(errs, referenceframe.NewSegmentNotFoundError(p.Proximal))
		}
		if !okB {
			errs = multierr.Append(errs, referenceframe.NewSegmentNotFoundError(p.Distal))
		}
		idx[i] = [2]int{a, b}
	}
	if errs != nil {
		return nil, errs
	}

	out := make([]float64, len(pairs))
	samples := make([]float64, 0, fs.NumFrames())
	for i, ab := range idx {
		samples = samples[:0]
		for f := 0; f < fs.NumFrames(); f++ {
			pa, pb := fs.Pose(ab[0], f).Point, fs.Pose(ab[1], f).Point
			if !spatialmath.PointIsDefined(pa) || !spatialmath.PointIsDefined(pb) {
				continue
			}
			samples = append(samples, pa.Sub(pb).Norm())
		}
		if len(samples) == 0 {
			return nil, errors.Wrapf(ErrNoLengthSamples, "%s-%s", pairs[i].Proximal, pairs[i].Distal)
		}
		out[i] = stat.Mean(samples, nil)
	}
	for i := 1; i < len(out); i += 2 {
		out[i] += out[i-1]
	}
	return out, nil
}
