package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Orientation is an interface used to express the different parameterizations of the orientation
// of a segment frame in 3D Euclidean space.
type Orientation interface {
	AxisAngles() *R4AA
	Quaternion() quat.Number
	RotationMatrix() RotationMatrix
}

// NewZeroOrientation returns an orientation which signifies no rotation.
func NewZeroOrientation() Orientation {
	return IdentityRotation()
}

// OrientationAlmostEqual will return a bool describing whether 2 orientations are approximately the same.
func OrientationAlmostEqual(o1, o2 Orientation) bool {
	return QuaternionAlmostEqual(o1.Quaternion(), o2.Quaternion(), 1e-5)
}

// OrientationBetween returns the rotation taking o1 onto o2, expressed in the frame of o1.
func OrientationBetween(o1, o2 Orientation) RotationMatrix {
	return o1.RotationMatrix().Transpose().Mul(o2.RotationMatrix())
}

// AngularDistance returns the angle in radians of the rotation between o1 and o2.
func AngularDistance(o1, o2 Orientation) float64 {
	rel := OrientationBetween(o1, o2)
	c := (rel.At(0, 0) + rel.At(1, 1) + rel.At(2, 2) - 1) / 2
	return math.Acos(math.Max(-1, math.Min(1, c)))
}
