package referenceframe

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/trampolinelab/acrokin/spatialmath"
)

// FrameSequence holds the global pose of every segment of a tree over a run of frames.
// Poses of frames where a segment was not observed are undefined.
type FrameSequence struct {
	tree  *Tree
	poses [][]spatialmath.Pose // [segment][frame]
}

// NewFrameSequence allocates a sequence of numFrames frames with every pose undefined.
func NewFrameSequence(tree *Tree, numFrames int) *FrameSequence {
	poses := make([][]spatialmath.Pose, tree.Len())
	for s := range poses {
		poses[s] = make([]spatialmath.Pose, numFrames)
		for f := range poses[s] {
			poses[s][f] = spatialmath.UndefinedPose()
		}
	}
	return &FrameSequence{tree: tree, poses: poses}
}

// Tree returns the tree the sequence was built for.
func (fs *FrameSequence) Tree() *Tree {
	return fs.tree
}

// NumFrames returns the number of frames.
func (fs *FrameSequence) NumFrames() int {
	if len(fs.poses) == 0 {
		return 0
	}
	return len(fs.poses[0])
}

// Pose returns the global pose of segment seg at frame.
func (fs *FrameSequence) Pose(seg, frame int) spatialmath.Pose {
	return fs.poses[seg][frame]
}

// SetPose stores the global pose of segment seg at frame.
func (fs *FrameSequence) SetPose(seg, frame int, pose spatialmath.Pose) {
	fs.poses[seg][frame] = pose
}

// Rotations returns the rotation of segment seg at every frame.
func (fs *FrameSequence) Rotations(seg int) []spatialmath.RotationMatrix {
	out := make([]spatialmath.RotationMatrix, len(fs.poses[seg]))
	for f, p := range fs.poses[seg] {
		out[f] = p.Rotation
	}
	return out
}

// Positions returns the joint center of segment seg at every frame.
func (fs *FrameSequence) Positions(seg int) []r3.Vector {
	out := make([]r3.Vector, len(fs.poses[seg]))
	for f, p := range fs.poses[seg] {
		out[f] = p.Point
	}
	return out
}

// LocalPose returns the pose of segment seg relative to its parent at frame. The root keeps its global pose.
func (fs *FrameSequence) LocalPose(seg, frame int) spatialmath.Pose {
	s := fs.tree.Segment(seg)
	child := fs.poses[seg][frame]
	if s.IsRoot() {
		return child
	}
	return ToLocal(fs.poses[s.ParentIndex][frame], child)
}

// UndefinedCount is the number of (segment, frame) poses that could not be computed.
func (fs *FrameSequence) UndefinedCount() int {
	n := 0
	for _, seg := range fs.poses {
		for _, p := range seg {
			if !p.IsDefined() {
				n++
			}
		}
	}
	return n
}

// Slice returns the frames in [start, end) as a new sequence sharing no storage with fs.
func (fs *FrameSequence) Slice(start, end int) (*FrameSequence, error) {
	if start < 0 || end > fs.NumFrames() || start >= end {
		return nil, errors.Errorf("invalid frame range [%d, %d) for %d frames", start, end, fs.NumFrames())
	}
	out := NewFrameSequence(fs.tree, end-start)
	for s := range fs.poses {
		copy(out.poses[s], fs.poses[s][start:end])
	}
	return out, nil
}

// ToLocal expresses child in the frame of parent: rotation parentᵀ·child and position parentᵀ·(child - parent).
func ToLocal(parent, child spatialmath.Pose) spatialmath.Pose {
	return spatialmath.PoseBetween(parent, child)
}

// FromLocal is the inverse of ToLocal.
func FromLocal(parent, local spatialmath.Pose) spatialmath.Pose {
	return spatialmath.Compose(parent, local)
}
