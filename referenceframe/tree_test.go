package referenceframe

import (
	"testing"

	"go.viam.com/test"
)

func TestPresetTrees(t *testing.T) {
	for _, tree := range []*Tree{MarkerTree(), SensorTree(), FullSensorTree()} {
		t.Run(tree.Name(), func(t *testing.T) {
			test.That(t, tree.Segment(tree.Root()).IsRoot(), test.ShouldBeTrue)
			for i, s := range tree.Segments() {
				test.That(t, s.Index, test.ShouldEqual, i)
				if s.IsRoot() {
					continue
				}
				test.That(t, s.ParentIndex, test.ShouldBeLessThan, i)
				test.That(t, tree.Segment(s.ParentIndex).Name, test.ShouldEqual, s.Parent)
			}
		})
	}
	test.That(t, MarkerTree().Len(), test.ShouldEqual, 15)
	test.That(t, SensorTree().Len(), test.ShouldEqual, 15)
	test.That(t, FullSensorTree().Len(), test.ShouldEqual, 23)

	tree, err := PresetTree(SensorTreeName)
	test.That(t, err, test.ShouldBeNil)
	lower, ok := tree.Index("LowerArmL")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, tree.Segment(lower).Parent, test.ShouldEqual, "UpperArmL")

	_, err = PresetTree("robot")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTreeQueries(t *testing.T) {
	tree := MarkerTree()
	thorax, err := tree.MustIndex("Thorax")
	test.That(t, err, test.ShouldBeNil)
	children := tree.Children(thorax)
	names := make([]string, 0, len(children))
	for _, c := range children {
		names = append(names, tree.Segment(c).Name)
	}
	test.That(t, names, test.ShouldResemble, []string{"Tete", "BrasD", "BrasG"})

	hand, _ := tree.Index("MainG")
	path := tree.PathToRoot(hand)
	test.That(t, len(path), test.ShouldEqual, 5)
	test.That(t, path[len(path)-1], test.ShouldEqual, tree.Root())

	_, err = tree.MustIndex("Wing")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, tree.Names()[0], test.ShouldEqual, "Pelvis")
}

func TestTreeErrors(t *testing.T) {
	_, err := NewTree("empty", nil)
	test.That(t, err, test.ShouldBeError, ErrEmptyTree)

	_, err = NewTree("dup", []SegmentConfig{{Name: "a"}, {Name: "a", Parent: "a"}})
	test.That(t, err, test.ShouldBeError, NewDuplicateSegmentError("a"))

	_, err = NewTree("missing", []SegmentConfig{{Name: "a"}, {Name: "b", Parent: "c"}})
	test.That(t, err, test.ShouldBeError, NewParentSegmentMissingError("b", "c"))

	_, err = NewTree("roots", []SegmentConfig{{Name: "a"}, {Name: "b"}})
	test.That(t, err, test.ShouldBeError, NewMultipleRootsError([]string{"a", "b"}))

	_, err = NewTree("noroot", []SegmentConfig{{Name: "a", Parent: "b"}, {Name: "b", Parent: "a"}})
	test.That(t, err, test.ShouldBeError, ErrNoRoot)

	_, err = NewTree("cycle", []SegmentConfig{{Name: "r"}, {Name: "a", Parent: "b"}, {Name: "b", Parent: "a"}})
	test.That(t, err, test.ShouldBeError, ErrCircularReference)

	_, err = NewTree("self", []SegmentConfig{{Name: "r"}, {Name: "a", Parent: "a"}})
	test.That(t, err, test.ShouldBeError, ErrCircularReference)

	_, err = NewTree("order", []SegmentConfig{{Name: "r"}, {Name: "b", Parent: "a"}, {Name: "a", Parent: "r"}})
	test.That(t, err, test.ShouldBeError, NewParentOrderError("b", "a"))
}

func TestTreeJSON(t *testing.T) {
	data := []byte(`{"name": "arm", "segments": [
		{"name": "shoulder"},
		{"name": "elbow", "parent": "shoulder"},
		{"name": "wrist", "parent": "elbow"}
	]}`)
	tree, err := UnmarshalTreeJSON(data, "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tree.Name(), test.ShouldEqual, "arm")
	test.That(t, tree.Names(), test.ShouldResemble, []string{"shoulder", "elbow", "wrist"})

	tree, err = UnmarshalTreeJSON(data, "renamed")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tree.Name(), test.ShouldEqual, "renamed")

	_, err = UnmarshalTreeJSON(nil, "")
	test.That(t, err, test.ShouldBeError, ErrNoTreeInformation)
	_, err = UnmarshalTreeJSON([]byte("{"), "")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = ParseTreeJSONFile("does/not/exist.json", "")
	test.That(t, err, test.ShouldNotBeNil)
}
