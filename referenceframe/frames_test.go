package referenceframe

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/trampolinelab/acrokin/spatialmath"
)

func threeLinkTree(t *testing.T) *Tree {
	t.Helper()
	tree, err := NewTree("chain", []SegmentConfig{
		{Name: "root"},
		{Name: "upper", Parent: "root"},
		{Name: "lower", Parent: "upper"},
	})
	test.That(t, err, test.ShouldBeNil)
	return tree
}

func poseOf(t *testing.T, p r3.Vector, angles ...float64) spatialmath.Pose {
	t.Helper()
	rot, err := spatialmath.EulerToRotationMatrix(angles, spatialmath.SequenceXYZ)
	test.That(t, err, test.ShouldBeNil)
	return spatialmath.NewPose(p, rot)
}

func TestToLocalRoundTrip(t *testing.T) {
	parent := poseOf(t, r3.Vector{X: 1, Y: -2, Z: 0.5}, 0.3, -0.2, 1.1)
	child := poseOf(t, r3.Vector{X: 1.2, Y: -1.7, Z: 0.1}, -0.5, 0.4, 2.0)

	local := ToLocal(parent, child)
	back := FromLocal(parent, local)
	test.That(t, back.Point.Sub(child.Point).Norm(), test.ShouldBeLessThan, 1e-12)
	test.That(t, back.Rotation.AlmostEqual(child.Rotation, 1e-12), test.ShouldBeTrue)

	// parentᵀ·(child - parent)
	expected := parent.Rotation.Transpose().MulVec(child.Point.Sub(parent.Point))
	test.That(t, local.Point.Sub(expected).Norm(), test.ShouldBeLessThan, 1e-12)
}

func TestFrameSequence(t *testing.T) {
	tree := threeLinkTree(t)
	fs := NewFrameSequence(tree, 4)
	test.That(t, fs.NumFrames(), test.ShouldEqual, 4)
	test.That(t, fs.UndefinedCount(), test.ShouldEqual, 12)

	root := poseOf(t, r3.Vector{Z: 1}, 0, 0, 0)
	upper := poseOf(t, r3.Vector{Z: 1.5}, 0.2, 0, 0)
	for f := 0; f < 4; f++ {
		fs.SetPose(0, f, root)
		fs.SetPose(1, f, upper)
	}
	test.That(t, fs.UndefinedCount(), test.ShouldEqual, 4)

	// the root local pose is its global pose
	test.That(t, fs.LocalPose(0, 2), test.ShouldResemble, root)

	local := fs.LocalPose(1, 2)
	test.That(t, local.Point.Sub(r3.Vector{Z: 0.5}).Norm(), test.ShouldBeLessThan, 1e-12)
	test.That(t, local.Rotation.EulerAngles(spatialmath.SequenceXYZ)[0], test.ShouldAlmostEqual, 0.2)

	// children of an undefined segment stay undefined
	test.That(t, fs.LocalPose(2, 0).IsDefined(), test.ShouldBeFalse)

	sliced, err := fs.Slice(1, 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sliced.NumFrames(), test.ShouldEqual, 2)
	test.That(t, sliced.Pose(1, 0), test.ShouldResemble, upper)

	_, err = fs.Slice(3, 3)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = fs.Slice(0, 5)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestReferencePose(t *testing.T) {
	tree := threeLinkTree(t)
	fs := NewFrameSequence(tree, 3)
	poses := []spatialmath.Pose{
		poseOf(t, r3.Vector{X: 0.1, Y: 0.2, Z: 1}, 0.1, 0.2, 0.3),
		poseOf(t, r3.Vector{X: 0.1, Y: 0.4, Z: 1.3}, 0.4, 0.2, 0.3),
		poseOf(t, r3.Vector{X: 0.1, Y: 0.6, Z: 1.1}, 0.4, 0.2, -0.3),
	}
	for f := 0; f < 3; f++ {
		for s, p := range poses {
			fs.SetPose(s, f, p)
		}
	}
	// one occluded frame does not disturb the average
	fs.SetPose(2, 1, spatialmath.UndefinedPose())

	ref, err := NewReferencePose(fs, spatialmath.MeanQuaternion, spatialmath.NewValidator(spatialmath.Strict, golog.NewTestLogger(t)))
	test.That(t, err, test.ShouldBeNil)
	for s, p := range poses {
		test.That(t, ref.Pose(s).Point.Sub(p.Point).Norm(), test.ShouldBeLessThan, 1e-12)
		test.That(t, ref.Rotation(s).AlmostEqual(p.Rotation, 1e-9), test.ShouldBeTrue)
	}

	rts := ref.RestTransforms()
	test.That(t, len(rts), test.ShouldEqual, 3)
	rootRot, rootTrans := spatialmath.FromHomogeneous(rts[0])
	test.That(t, rootTrans, test.ShouldResemble, r3.Vector{})
	test.That(t, rootRot.AlmostEqual(poses[0].Rotation, 1e-9), test.ShouldBeTrue)

	lowerRot, lowerTrans := spatialmath.FromHomogeneous(rts[2])
	local := ToLocal(poses[1], poses[2])
	test.That(t, lowerTrans.Sub(local.Point).Norm(), test.ShouldBeLessThan, 1e-9)
	test.That(t, lowerRot.AlmostEqual(local.Rotation, 1e-9), test.ShouldBeTrue)
	test.That(t, rts[2].At(3, 3), test.ShouldEqual, 1.)
}

func TestReferencePoseMissingSegment(t *testing.T) {
	tree := threeLinkTree(t)
	fs := NewFrameSequence(tree, 2)
	for f := 0; f < 2; f++ {
		fs.SetPose(0, f, spatialmath.NewZeroPose())
		fs.SetPose(1, f, spatialmath.NewZeroPose())
	}
	_, err := NewReferencePose(fs, spatialmath.MeanSVD, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "lower")

	_, err = NewReferencePoseFromPoses(tree, []spatialmath.Pose{spatialmath.NewZeroPose()})
	test.That(t, err, test.ShouldNotBeNil)
}
