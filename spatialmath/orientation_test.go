package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"

	"github.com/trampolinelab/acrokin/utils"
)

// represent a 45 degree rotation around the x axis in all the representations
var (
	th    = math.Pi / 4.
	q45x  = quat.Number{Real: math.Cos(th / 2.), Imag: math.Sin(th / 2.)} // in quaternion representation
	aa45x = &R4AA{th, 1., 0., 0.}                                       // in axis-angle representation
	rm45x = RotationMatrix{[9]float64{
		1, 0, 0,
		0, math.Cos(th), -math.Sin(th),
		0, math.Sin(th), math.Cos(th),
	}} // in rotation matrix representation
)

func TestZeroOrientation(t *testing.T) {
	zero := NewZeroOrientation()
	test.That(t, zero.AxisAngles(), test.ShouldResemble, NewR4AA())
	test.That(t, zero.Quaternion(), test.ShouldResemble, quat.Number{Real: 1})
	test.That(t, zero.RotationMatrix(), test.ShouldResemble, IdentityRotation())
}

func TestQuaternions(t *testing.T) {
	rm := QuatToRotationMatrix(q45x)
	test.That(t, rm.AlmostEqual(rm45x, 1e-12), test.ShouldBeTrue)

	back := rm45x.Quaternion()
	test.That(t, back.Real, test.ShouldAlmostEqual, q45x.Real)
	test.That(t, back.Imag, test.ShouldAlmostEqual, q45x.Imag)
	test.That(t, back.Jmag, test.ShouldAlmostEqual, q45x.Jmag)
	test.That(t, back.Kmag, test.ShouldAlmostEqual, q45x.Kmag)

	// non-unit quaternions are normalized before conversion
	scaled := QuatToRotationMatrix(quat.Scale(3, q45x))
	test.That(t, scaled.AlmostEqual(rm45x, 1e-12), test.ShouldBeTrue)

	undefined := QuatToRotationMatrix(quat.Number{})
	test.That(t, undefined.IsDefined(), test.ShouldBeFalse)
}

func TestAxisAngles(t *testing.T) {
	test.That(t, aa45x.RotationMatrix().AlmostEqual(rm45x, 1e-12), test.ShouldBeTrue)
	aa := rm45x.AxisAngles()
	test.That(t, aa.Theta, test.ShouldAlmostEqual, aa45x.Theta)
	test.That(t, aa.RX, test.ShouldAlmostEqual, aa45x.RX)
	test.That(t, aa.RY, test.ShouldAlmostEqual, aa45x.RY)
	test.That(t, aa.RZ, test.ShouldAlmostEqual, aa45x.RZ)

	r3aa := aa45x.ToR3()
	test.That(t, R3ToR4(r3aa), test.ShouldResemble, aa45x)
	test.That(t, R3ToR4(r3.Vector{}), test.ShouldResemble, NewR4AA())
}

func TestOrientationBetween(t *testing.T) {
	a := RotationAboutAxis(AxisZ, utils.DegToRad(20))
	b := RotationAboutAxis(AxisZ, utils.DegToRad(50))
	between := OrientationBetween(a, b)
	test.That(t, between.AlmostEqual(RotationAboutAxis(AxisZ, utils.DegToRad(30)), 1e-12), test.ShouldBeTrue)
	test.That(t, AngularDistance(a, b), test.ShouldAlmostEqual, utils.DegToRad(30))
	test.That(t, OrientationAlmostEqual(a.Mul(between), b), test.ShouldBeTrue)
	test.That(t, OrientationAlmostEqual(a, b), test.ShouldBeFalse)
}

func TestRotationMatrixAlgebra(t *testing.T) {
	test.That(t, rm45x.Mul(rm45x.Transpose()).AlmostEqual(IdentityRotation(), 1e-12), test.ShouldBeTrue)
	test.That(t, rm45x.Det(), test.ShouldAlmostEqual, 1)

	v := rm45x.MulVec(r3.Vector{Y: 1})
	test.That(t, v.Y, test.ShouldAlmostEqual, math.Cos(th))
	test.That(t, v.Z, test.ShouldAlmostEqual, math.Sin(th))

	_, err := NewRotationMatrix([]float64{1, 2, 3})
	test.That(t, err, test.ShouldNotBeNil)

	rm, err := NewRotationMatrix(rm45x.Values())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rm, test.ShouldResemble, rm45x)

	p := YUpToZUp().MulVec(r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, p, test.ShouldResemble, r3.Vector{X: 1, Y: -3, Z: 2})
}

func TestHomogeneous(t *testing.T) {
	pose := NewPose(r3.Vector{X: 1, Y: 2, Z: 3}, rm45x)
	back := NewPoseFromHomogeneous(pose.Homogeneous())
	test.That(t, back.Point, test.ShouldResemble, pose.Point)
	test.That(t, back.Rotation.AlmostEqual(pose.Rotation, 1e-15), test.ShouldBeTrue)

	rel := PoseBetween(pose, Compose(pose, NewPose(r3.Vector{X: 0.5}, RotationAboutAxis(AxisY, 0.3))))
	test.That(t, rel.Point.X, test.ShouldAlmostEqual, 0.5)
	test.That(t, rel.Point.Y, test.ShouldAlmostEqual, 0)
	test.That(t, rel.Rotation.AlmostEqual(RotationAboutAxis(AxisY, 0.3), 1e-12), test.ShouldBeTrue)

	identity := Compose(pose, pose.Invert())
	test.That(t, identity.Point.Norm(), test.ShouldAlmostEqual, 0)
	test.That(t, UndefinedPose().IsDefined(), test.ShouldBeFalse)
}
