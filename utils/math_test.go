package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestAngleConversions(t *testing.T) {
	test.That(t, DegToRad(180), test.ShouldAlmostEqual, math.Pi)
	test.That(t, RadToDeg(math.Pi/2), test.ShouldAlmostEqual, 90)
	test.That(t, RadToDeg(DegToRad(-37.5)), test.ShouldAlmostEqual, -37.5)
}

func TestWrapAngle(t *testing.T) {
	test.That(t, WrapAngle(3*math.Pi/2), test.ShouldAlmostEqual, -math.Pi/2)
	test.That(t, WrapAngle(-3*math.Pi/2), test.ShouldAlmostEqual, math.Pi/2)
	test.That(t, WrapAngle(0.25), test.ShouldAlmostEqual, 0.25)
	test.That(t, PythonMod(-1, 3), test.ShouldEqual, 2)
	test.That(t, PythonMod(4, 3), test.ShouldEqual, 1)
}

func TestFinite(t *testing.T) {
	test.That(t, IsFinite(1), test.ShouldBeTrue)
	test.That(t, IsFinite(math.NaN()), test.ShouldBeFalse)
	test.That(t, IsFinite(math.Inf(-1)), test.ShouldBeFalse)
	test.That(t, AllFinite([]float64{1, 2, 3}), test.ShouldBeTrue)
	test.That(t, AllFinite([]float64{1, math.NaN()}), test.ShouldBeFalse)
}

func TestSafeJoinDir(t *testing.T) {
	p, err := SafeJoinDir("/out", "trial1.json")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldEqual, "/out/trial1.json")
	_, err = SafeJoinDir("/out", "../etc/passwd")
	test.That(t, err, test.ShouldNotBeNil)
}
