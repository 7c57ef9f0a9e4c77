package referenceframe

import (
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// SegmentConfig names a segment and its parent. An empty parent marks the root.
type SegmentConfig struct {
	Name   string `json:"name"`
	Parent string `json:"parent,omitempty"`
}

// Segment is a node of a Tree.
type Segment struct {
	Name        string
	Parent      string
	Index       int
	ParentIndex int
}

// IsRoot reports whether the segment has no parent.
func (s Segment) IsRoot() bool {
	return s.ParentIndex < 0
}

// Tree is a rooted tree of segments in a fixed enumeration order where every parent comes before its children.
// A Tree is immutable after construction and safe for concurrent use.
type Tree struct {
	name     string
	segments []Segment
	byName   map[string]int
	graph    *simple.DirectedGraph
	root     int
}

// NewTree validates the segment list and builds a Tree. The order of cfgs is the enumeration order.
func NewTree(name string, cfgs []SegmentConfig) (*Tree, error) {
	if len(cfgs) == 0 {
		return nil, ErrEmptyTree
	}
	t := &Tree{
		name:     name,
		segments: make([]Segment, len(cfgs)),
		byName:   make(map[string]int, len(cfgs)),
		graph:    simple.NewDirectedGraph(),
		root:     -1,
	}
	for i, cfg := range cfgs {
		if _, ok := t.byName[cfg.Name]; ok {
			return nil, NewDuplicateSegmentError(cfg.Name)
		}
		t.byName[cfg.Name] = i
		t.graph.AddNode(simple.Node(i))
	}

	var roots []string
	for i, cfg := range cfgs {
		t.segments[i] = Segment{Name: cfg.Name, Parent: cfg.Parent, Index: i, ParentIndex: -1}
		if cfg.Parent == "" {
			roots = append(roots, cfg.Name)
			t.root = i
			continue
		}
		p, ok := t.byName[cfg.Parent]
		if !ok {
			return nil, NewParentSegmentMissingError(cfg.Name, cfg.Parent)
		}
		if p == i {
			return nil, ErrCircularReference
		}
		t.segments[i].ParentIndex = p
		t.graph.SetEdge(t.graph.NewEdge(simple.Node(p), simple.Node(i)))
	}
	if len(roots) == 0 {
		return nil, ErrNoRoot
	}
	if len(roots) > 1 {
		return nil, NewMultipleRootsError(roots)
	}
	if _, err := topo.Sort(t.graph); err != nil {
		return nil, ErrCircularReference
	}
	for _, s := range t.segments {
		if !s.IsRoot() && s.ParentIndex > s.Index {
			return nil, NewParentOrderError(s.Name, s.Parent)
		}
	}
	return t, nil
}

// Name returns the name of the tree.
func (t *Tree) Name() string {
	return t.name
}

// Len is the number of segments.
func (t *Tree) Len() int {
	return len(t.segments)
}

// Segment returns the segment at index i.
func (t *Tree) Segment(i int) Segment {
	return t.segments[i]
}

// Segments returns a copy of the segments in enumeration order.
func (t *Tree) Segments() []Segment {
	out := make([]Segment, len(t.segments))
	copy(out, t.segments)
	return out
}

// Names returns the segment names in enumeration order.
func (t *Tree) Names() []string {
	out := make([]string, len(t.segments))
	for i, s := range t.segments {
		out[i] = s.Name
	}
	return out
}

// Index returns the index of the named segment.
func (t *Tree) Index(name string) (int, bool) {
	i, ok := t.byName[name]
	return i, ok
}

// MustIndex is like Index but returns an error for unknown names.
func (t *Tree) MustIndex(name string) (int, error) {
	i, ok := t.byName[name]
	if !ok {
		return -1, NewSegmentNotFoundError(name)
	}
	return i, nil
}

// Root returns the index of the root segment.
func (t *Tree) Root() int {
	return t.root
}

// Children returns the indices of the direct children of segment i, in enumeration order.
func (t *Tree) Children(i int) []int {
	nodes := graph.NodesOf(t.graph.From(int64(i)))
	out := make([]int, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, int(n.ID()))
	}
	slices.Sort(out)
	return out
}

// PathToRoot returns the indices from segment i up to and including the root.
func (t *Tree) PathToRoot(i int) []int {
	path := []int{i}
	for !t.segments[i].IsRoot() {
		i = t.segments[i].ParentIndex
		path = append(path, i)
	}
	return path
}
