package referenceframe

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/trampolinelab/acrokin/spatialmath"
)

// ReferencePose is the averaged global pose of every segment during a static trial.
type ReferencePose struct {
	tree  *Tree
	poses []spatialmath.Pose
}

// NewReferencePose averages every segment of fs over all frames. Undefined frames are ignored.
// A segment that is never observed is an error.
func NewReferencePose(fs *FrameSequence, method spatialmath.MeanMethod, validator *spatialmath.Validator) (*ReferencePose, error) {
	tree := fs.Tree()
	poses := make([]spatialmath.Pose, tree.Len())
	for i := range poses {
		name := tree.Segment(i).Name
		rot, err := spatialmath.MeanRotation(fs.Rotations(i), method)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to average rotation of segment %q", name)
		}
		if validator != nil {
			if _, err := validator.Validate(rot, name, -1); err != nil {
				return nil, err
			}
		}
		poses[i] = spatialmath.NewPose(spatialmath.MeanPosition(fs.Positions(i)), rot)
	}
	return &ReferencePose{tree: tree, poses: poses}, nil
}

// NewReferencePoseFromPoses wraps already averaged global poses.
func NewReferencePoseFromPoses(tree *Tree, poses []spatialmath.Pose) (*ReferencePose, error) {
	if len(poses) != tree.Len() {
		return nil, NewSegmentCountError(tree.Len(), len(poses))
	}
	out := make([]spatialmath.Pose, len(poses))
	copy(out, poses)
	return &ReferencePose{tree: tree, poses: out}, nil
}

// Tree returns the tree of the reference pose.
func (r *ReferencePose) Tree() *Tree {
	return r.tree
}

// Pose returns the reference global pose of segment i.
func (r *ReferencePose) Pose(i int) spatialmath.Pose {
	return r.poses[i]
}

// Rotation returns the reference global rotation of segment i.
func (r *ReferencePose) Rotation(i int) spatialmath.RotationMatrix {
	return r.poses[i].Rotation
}

// LocalPose returns the rest pose of segment i relative to its parent. The root keeps its
// global rotation and has no translation.
func (r *ReferencePose) LocalPose(i int) spatialmath.Pose {
	s := r.tree.Segment(i)
	if s.IsRoot() {
		return spatialmath.NewPose(r3.Vector{}, r.poses[i].Rotation)
	}
	return ToLocal(r.poses[s.ParentIndex], r.poses[i])
}

// RestTransforms returns the homogeneous rest transform of every segment, in tree order.
func (r *ReferencePose) RestTransforms() []mgl64.Mat4 {
	out := make([]mgl64.Mat4, r.tree.Len())
	for i := range out {
		out[i] = r.LocalPose(i).Homogeneous()
	}
	return out
}
