package kinematics

import (
	"slices"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/trampolinelab/acrokin/referenceframe"
	"github.com/trampolinelab/acrokin/spatialmath"
)

// DefaultBranchThreshold is the angle, in radians, beyond which a whole unwrapped series is shifted by one turn.
const DefaultBranchThreshold = 5.

// DoFRule is the Euler sequence kept for a segment and the branch threshold applied to its angles.
type DoFRule struct {
	Sequence        spatialmath.EulerSequence `json:"sequence"`
	BranchThreshold float64                   `json:"branch_threshold,omitempty"`
}

// DoFPolicy maps segment names to the rotational degrees of freedom extracted for them.
// Segments without an entry use Default.
type DoFPolicy struct {
	Default  DoFRule            `json:"default"`
	Segments map[string]DoFRule `json:"segments,omitempty"`
}

// hands and feet keep two rotations, knees one
var (
	twoAxisSegments = []string{"MainD", "MainG", "PiedD", "PiedG", "HandR", "HandL", "FootR", "FootL"}
	hingeSegments   = []string{"JambeD", "JambeG", "LowerLegR", "LowerLegL"}
)

// DefaultDoFPolicy returns the usual policy restricted to the segments of tree: "xyz" everywhere,
// "zy" for hands and feet and "x" for knees.
func DefaultDoFPolicy(tree *referenceframe.Tree) DoFPolicy {
	p := DoFPolicy{
		Default:  DoFRule{Sequence: spatialmath.SequenceXYZ, BranchThreshold: DefaultBranchThreshold},
		Segments: map[string]DoFRule{},
	}
	for _, name := range tree.Names() {
		switch {
		case slices.Contains(twoAxisSegments, name):
			p.Segments[name] = DoFRule{Sequence: spatialmath.SequenceZY, BranchThreshold: DefaultBranchThreshold}
		case slices.Contains(hingeSegments, name):
			p.Segments[name] = DoFRule{Sequence: spatialmath.SequenceX, BranchThreshold: DefaultBranchThreshold}
		}
	}
	return p
}

// Rule returns the rule of the named segment with a zero threshold replaced by the default one.
func (p DoFPolicy) Rule(segment string) DoFRule {
	rule, ok := p.Segments[segment]
	if !ok {
		rule = p.Default
	}
	if rule.Sequence == "" {
		rule.Sequence = p.Default.Sequence
	}
	if rule.BranchThreshold == 0 {
		rule.BranchThreshold = p.Default.BranchThreshold
	}
	if rule.BranchThreshold == 0 {
		rule.BranchThreshold = DefaultBranchThreshold
	}
	return rule
}

// Validate checks every rule and that every named segment exists in tree.
func (p DoFPolicy) Validate(tree *referenceframe.Tree) error {
	var errs error
	if _, err := spatialmath.ParseEulerSequence(string(p.Default.Sequence)); err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, "default rule"))
	}
	names := lo.Keys(p.Segments)
	slices.Sort(names)
	for _, name := range names {
		if _, ok := tree.Index(name); !ok {
			errs = multierr.Append(errs, referenceframe.NewSegmentNotFoundError(name))
			continue
		}
		rule := p.Rule(name)
		if _, err := spatialmath.ParseEulerSequence(string(rule.Sequence)); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "segment %q", name))
		}
		if rule.BranchThreshold < 0 {
			errs = multierr.Append(errs, errors.Errorf("segment %q has a negative branch threshold", name))
		}
	}
	if p.Default.BranchThreshold < 0 {
		errs = multierr.Append(errs, errors.New("default rule has a negative branch threshold"))
	}
	return errs
}
