package kinematics

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/trampolinelab/acrokin/referenceframe"
	"github.com/trampolinelab/acrokin/spatialmath"
)

func setPoint(t *testing.T, fs *referenceframe.FrameSequence, name string, frame int, p r3.Vector) {
	t.Helper()
	i, ok := fs.Tree().Index(name)
	test.That(t, ok, test.ShouldBeTrue)
	fs.SetPose(i, frame, spatialmath.NewPose(p, spatialmath.IdentityRotation()))
}

func TestSwapBilateral(t *testing.T) {
	test.That(t, SwapBilateral(r3.Vector{X: 1, Y: 2, Z: 3}), test.ShouldResemble, r3.Vector{X: -2, Y: 1, Z: 3})
}

func TestJointCentersInRoot(t *testing.T) {
	tree := referenceframe.SensorTree()
	fs := referenceframe.NewFrameSequence(tree, 2)
	quarter := spatialmath.RotationAboutAxis(spatialmath.AxisZ, math.Pi/2)
	for f, rot := range []spatialmath.RotationMatrix{spatialmath.IdentityRotation(), quarter} {
		shift := r3.Vector{X: float64(f)}
		fs.SetPose(tree.Root(), f, spatialmath.NewPose(r3.Vector{Z: 1}.Add(shift), rot))
		setPoint(t, fs, "UpperLegR", f, r3.Vector{Y: -0.1, Z: 0.9}.Add(shift))
		setPoint(t, fs, "UpperLegL", f, r3.Vector{Y: 0.1, Z: 0.9}.Add(shift))
		setPoint(t, fs, "Head", f, r3.Vector{Y: 1, Z: 1.4}.Add(shift))
	}

	opts := DefaultJointCenterOptions()
	opts.Heading = math.Pi / 2
	jc, err := JointCentersInRoot(fs, opts, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, jc.Names, test.ShouldResemble, opts.Segments)
	test.That(t, jc.NumFrames(), test.ShouldEqual, 2)

	head, ok := jc.Index("Head")
	test.That(t, ok, test.ShouldBeTrue)
	// frame 0: local (0, 1, 0.5), swapped
	test.That(t, jc.Series[head][0].Sub(r3.Vector{X: -1, Z: 0.5}).Norm(), test.ShouldBeLessThan, 1e-12)
	// frame 1: the pelvis turned a quarter, local (1, 0, 0.5), swapped
	test.That(t, jc.Series[head][1].Sub(r3.Vector{Y: 1, Z: 0.5}).Norm(), test.ShouldBeLessThan, 1e-12)

	hip, ok := jc.Index("UpperLegR")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, jc.Series[hip][0].Sub(r3.Vector{Y: -0.1}).Norm(), test.ShouldBeLessThan, 1e-12)

	// the root slot holds the heading-turned Euler angles, unwrapped
	pelvis, ok := jc.Index("Pelvis")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, jc.Series[pelvis][0].Z, test.ShouldAlmostEqual, math.Pi/2, 1e-9)
	test.That(t, math.Abs(jc.Series[pelvis][1].Z), test.ShouldAlmostEqual, math.Pi, 1e-9)
	test.That(t, jc.Series[pelvis][1].X, test.ShouldAlmostEqual, 0, 1e-9)

	// never observed
	hand, ok := jc.Index("HandR")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, spatialmath.PointIsDefined(jc.Series[hand][0]), test.ShouldBeFalse)

	comps := jc.Components()
	test.That(t, comps[2][head][1], test.ShouldAlmostEqual, 0.5)
	test.That(t, len(comps[0]), test.ShouldEqual, len(opts.Segments))
}

func TestJointCentersInRootUnknownSegment(t *testing.T) {
	fs := referenceframe.NewFrameSequence(referenceframe.MarkerTree(), 1)
	_, err := JointCentersInRoot(fs, DefaultJointCenterOptions(), nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "UpperLegR")
}

func TestMeanSegmentLengths(t *testing.T) {
	tree := referenceframe.SensorTree()
	fs := referenceframe.NewFrameSequence(tree, 3)
	for f := 0; f < 3; f++ {
		setPoint(t, fs, "UpperArmR", f, r3.Vector{Z: 1.4})
		setPoint(t, fs, "LowerArmR", f, r3.Vector{Z: 1.1})
		if f != 1 {
			setPoint(t, fs, "HandR", f, r3.Vector{Y: 0.25, Z: 1.1})
		}
	}
	lengths, err := MeanSegmentLengths(fs, []LengthPair{{"UpperArmR", "LowerArmR"}, {"LowerArmR", "HandR"}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, lengths[0], test.ShouldAlmostEqual, 0.3, 1e-12)
	test.That(t, lengths[1], test.ShouldAlmostEqual, 0.55, 1e-12)

	_, err = MeanSegmentLengths(fs, DefaultSensorLengthPairs())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "UpperArmL")

	_, err = MeanSegmentLengths(fs, []LengthPair{{"Nope", "HandR"}})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, len(DefaultSensorLengthPairs()), test.ShouldEqual, 8)
}
