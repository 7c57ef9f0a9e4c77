package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// Pose is the position and orientation of a segment frame.
type Pose struct {
	Point    r3.Vector
	Rotation RotationMatrix
}

// NewPose bundles a point and a rotation.
func NewPose(point r3.Vector, rotation RotationMatrix) Pose {
	return Pose{Point: point, Rotation: rotation}
}

// NewZeroPose is the identity pose at the origin.
func NewZeroPose() Pose {
	return Pose{Rotation: IdentityRotation()}
}

// UndefinedPose marks a frame where the segment could not be observed.
func UndefinedPose() Pose {
	return Pose{Point: UndefinedPoint(), Rotation: UndefinedRotation()}
}

// UndefinedPoint is a vector of NaN.
func UndefinedPoint() r3.Vector {
	nan := math.NaN()
	return r3.Vector{X: nan, Y: nan, Z: nan}
}

// PointIsDefined reports whether all components of p are finite.
func PointIsDefined(p r3.Vector) bool {
	for _, v := range []float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// IsDefined reports whether both the point and rotation are defined.
func (p Pose) IsDefined() bool {
	return PointIsDefined(p.Point) && p.Rotation.IsDefined()
}

// Homogeneous returns the pose as a 4x4 rigid transform.
func (p Pose) Homogeneous() mgl64.Mat4 {
	return p.Rotation.Homogeneous(p.Point)
}

// NewPoseFromHomogeneous reads a pose out of a 4x4 rigid transform.
func NewPoseFromHomogeneous(m mgl64.Mat4) Pose {
	rm, t := FromHomogeneous(m)
	return Pose{Point: t, Rotation: rm}
}

// Compose returns the pose b expressed through a, i.e. a * b.
func Compose(a, b Pose) Pose {
	return Pose{
		Point:    a.Point.Add(a.Rotation.MulVec(b.Point)),
		Rotation: a.Rotation.Mul(b.Rotation),
	}
}

// PoseBetween returns the pose of b expressed in the frame of a, i.e. inverse(a) * b.
func PoseBetween(a, b Pose) Pose {
	inv := a.Rotation.Transpose()
	return Pose{
		Point:    inv.MulVec(b.Point.Sub(a.Point)),
		Rotation: inv.Mul(b.Rotation),
	}
}

// Invert returns the inverse rigid transform.
func (p Pose) Invert() Pose {
	return PoseBetween(p, NewZeroPose())
}
