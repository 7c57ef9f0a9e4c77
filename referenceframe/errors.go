package referenceframe

import (
	"github.com/pkg/errors"
)

// ErrCircularReference is returned when following parents from a segment leads back to it.
var ErrCircularReference = errors.New("infinite loop finding path from segment to root")

// ErrNoRoot is returned when every segment names a parent.
var ErrNoRoot = errors.New("segment tree has no root")

// ErrEmptyTree is returned when a tree is built from no segments.
var ErrEmptyTree = errors.New("segment tree has no segments")

// NewParentSegmentMissingError returns an error indicating that a segment names a parent that is not in the tree.
func NewParentSegmentMissingError(segment, parent string) error {
	return errors.Errorf("parent %q of segment %q is not in the tree", parent, segment)
}

// NewDuplicateSegmentError returns an error indicating that a segment name was used twice.
func NewDuplicateSegmentError(segment string) error {
	return errors.Errorf("segment %q is defined more than once", segment)
}

// NewMultipleRootsError returns an error listing the segments that have no parent.
func NewMultipleRootsError(roots []string) error {
	return errors.Errorf("segment tree must have exactly one root, have %v", roots)
}

// NewParentOrderError is returned when a segment is listed before its parent.
func NewParentOrderError(segment, parent string) error {
	return errors.Errorf("segment %q is listed before its parent %q", segment, parent)
}

// NewSegmentNotFoundError is returned when a segment name is not part of the tree.
func NewSegmentNotFoundError(segment string) error {
	return errors.Errorf("segment %q not found in tree", segment)
}

// NewSegmentCountError is returned when per-segment data does not match the tree size.
func NewSegmentCountError(expected, actual int) error {
	return errors.Errorf("expected data for %d segments, got %d", expected, actual)
}

// NewUnknownPresetError is returned when a preset tree name is not recognized.
func NewUnknownPresetError(name string) error {
	return errors.Errorf("unknown preset tree %q", name)
}
