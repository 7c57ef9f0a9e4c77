package spatialmath

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestMeanOfIdenticalRotations(t *testing.T) {
	r, err := EulerToRotationMatrix([]float64{0.4, -0.2, 2.1}, SequenceXYZ)
	test.That(t, err, test.ShouldBeNil)
	batch := []RotationMatrix{r, r, r, r, r}
	for _, method := range []MeanMethod{MeanQuaternion, MeanSVD} {
		mean, err := MeanRotation(batch, method)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, mean.AlmostEqual(r, 1e-9), test.ShouldBeTrue)
		test.That(t, IsRotation(mean), test.ShouldBeTrue)
	}
}

func TestMeanOfNoisyRotations(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	truth, err := EulerToRotationMatrix([]float64{-0.7, 0.5, 1.3}, SequenceXYZ)
	test.That(t, err, test.ShouldBeNil)

	const noise = 0.02
	batch := make([]RotationMatrix, 0, 201)
	for i := 0; i < 200; i++ {
		axis := r3.Vector{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}.Normalize()
		perturb := (&R4AA{Theta: noise * rng.Float64(), RX: axis.X, RY: axis.Y, RZ: axis.Z}).RotationMatrix()
		batch = append(batch, truth.Mul(perturb))
	}
	batch = append(batch, UndefinedRotation())

	for _, method := range []MeanMethod{MeanQuaternion, MeanSVD} {
		mean, err := MeanRotation(batch, method)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, IsRotation(mean), test.ShouldBeTrue)
		test.That(t, AngularDistance(mean, truth), test.ShouldBeLessThan, noise)
	}
}

func TestMeanSignInvariance(t *testing.T) {
	// a rotation near pi has quaternions on both hemispheres; the mean must not cancel out
	a := RotationAboutAxis(AxisZ, math.Pi-0.01)
	b := RotationAboutAxis(AxisZ, -math.Pi+0.01)
	mean, err := MeanRotation([]RotationMatrix{a, b}, MeanQuaternion)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, AngularDistance(mean, RotationAboutAxis(AxisZ, math.Pi)), test.ShouldBeLessThan, 1e-9)
}

func TestMeanRotationErrors(t *testing.T) {
	_, err := MeanRotation([]RotationMatrix{UndefinedRotation()}, MeanQuaternion)
	test.That(t, err, test.ShouldBeError, ErrNoDefinedRotation)
	_, err = MeanRotation(nil, MeanSVD)
	test.That(t, err, test.ShouldBeError, ErrNoDefinedRotation)

	_, err = ParseMeanMethod("median")
	test.That(t, err, test.ShouldNotBeNil)
	m, err := ParseMeanMethod("svd")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m, test.ShouldEqual, MeanSVD)
}

func TestNearestRotation(t *testing.T) {
	skewed := rm45x.Values()
	skewed[1] += 0.05
	rm, err := NewRotationMatrix(skewed)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, IsRotation(rm), test.ShouldBeFalse)
	fixed, err := NearestRotation(rm)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, IsRotation(fixed), test.ShouldBeTrue)
	test.That(t, AngularDistance(fixed, rm45x), test.ShouldBeLessThan, 0.05)
}

func TestMeanPosition(t *testing.T) {
	mean := MeanPosition([]r3.Vector{{X: 1, Y: 2, Z: 3}, {X: 3, Y: 4, Z: 5}, UndefinedPoint()})
	test.That(t, mean, test.ShouldResemble, r3.Vector{X: 2, Y: 3, Z: 4})
	test.That(t, PointIsDefined(MeanPosition([]r3.Vector{UndefinedPoint()})), test.ShouldBeFalse)
}
