package kinematics

import (
	"testing"

	"go.uber.org/multierr"
	"go.viam.com/test"

	"github.com/trampolinelab/acrokin/referenceframe"
	"github.com/trampolinelab/acrokin/spatialmath"
)

func TestDefaultDoFPolicy(t *testing.T) {
	for _, tc := range []struct {
		tree    *referenceframe.Tree
		twoAxis []string
		hinge   []string
	}{
		{referenceframe.MarkerTree(), []string{"MainD", "MainG", "PiedD", "PiedG"}, []string{"JambeD", "JambeG"}},
		{referenceframe.SensorTree(), []string{"HandR", "HandL", "FootR", "FootL"}, []string{"LowerLegR", "LowerLegL"}},
	} {
		t.Run(tc.tree.Name(), func(t *testing.T) {
			p := DefaultDoFPolicy(tc.tree)
			test.That(t, p.Validate(tc.tree), test.ShouldBeNil)
			test.That(t, len(p.Segments), test.ShouldEqual, 6)
			for _, name := range tc.twoAxis {
				test.That(t, p.Rule(name).Sequence, test.ShouldEqual, spatialmath.SequenceZY)
			}
			for _, name := range tc.hinge {
				test.That(t, p.Rule(name).Sequence, test.ShouldEqual, spatialmath.SequenceX)
			}
			test.That(t, p.Rule("Pelvis"), test.ShouldResemble, DoFRule{Sequence: spatialmath.SequenceXYZ, BranchThreshold: 5})
		})
	}
}

func TestDoFPolicyRuleAndValidate(t *testing.T) {
	tree := referenceframe.MarkerTree()
	p := DoFPolicy{
		Default: DoFRule{Sequence: spatialmath.SequenceXYZ},
		Segments: map[string]DoFRule{
			"Tete":  {Sequence: "zx", BranchThreshold: 4},
			"BrasD": {},
		},
	}
	test.That(t, p.Validate(tree), test.ShouldBeNil)
	test.That(t, p.Rule("Tete"), test.ShouldResemble, DoFRule{Sequence: "zx", BranchThreshold: 4})
	test.That(t, p.Rule("BrasD"), test.ShouldResemble, DoFRule{Sequence: spatialmath.SequenceXYZ, BranchThreshold: DefaultBranchThreshold})

	bad := DoFPolicy{
		Default: DoFRule{Sequence: "xyzx"},
		Segments: map[string]DoFRule{
			"Nobody": {Sequence: "x"},
			"Tete":   {Sequence: "xx"},
			"BrasG":  {Sequence: "y", BranchThreshold: -1},
		},
	}
	err := bad.Validate(tree)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, len(multierr.Errors(err)), test.ShouldEqual, 4)
	test.That(t, err.Error(), test.ShouldContainSubstring, "Nobody")
}
