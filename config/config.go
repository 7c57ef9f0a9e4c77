// Package config defines the subject configuration driving an analysis run.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/trampolinelab/acrokin/capture"
	"github.com/trampolinelab/acrokin/kinematics"
	"github.com/trampolinelab/acrokin/referenceframe"
	"github.com/trampolinelab/acrokin/spatialmath"
)

// DefaultMaxParallelTrials bounds how many movement trials are processed at once when unset.
const DefaultMaxParallelTrials = 4

// A Config describes one subject: where its recordings are, how they are interpreted and where
// the results go.
type Config struct {
	Subject    string `json:"subject"`
	Laterality string `json:"laterality,omitempty"`
	Expertise  string `json:"expertise,omitempty"`

	// Source is "marker" or "sensor".
	Source string `json:"source"`
	YUp    bool   `json:"y_up,omitempty"`

	// Model is the bioMod file of the subject. Required for marker captures, optional otherwise.
	Model string `json:"model,omitempty"`
	// PatchedModel receives the model with rest transforms measured on the relax trial.
	PatchedModel string `json:"patched_model,omitempty"`

	// Preset names a built-in segment tree. Segments, when set, takes precedence.
	Preset   string                         `json:"preset,omitempty"`
	Segments []referenceframe.SegmentConfig `json:"segments,omitempty"`

	Averaging              string                `json:"averaging,omitempty"`
	StrictValidation       bool                  `json:"strict_validation,omitempty"`
	IncludeRootTranslation bool                  `json:"include_root_translation,omitempty"`
	DoF                    *kinematics.DoFPolicy `json:"dof,omitempty"`

	Relax  TrialConfig   `json:"relax"`
	Trials []TrialConfig `json:"trials"`

	OutputDir         string `json:"output_dir"`
	MaxParallelTrials int    `json:"max_parallel_trials,omitempty"`

	// Kalman enables the marker reconstruction of every movement trial.
	Kalman *kinematics.KalmanParams `json:"kalman,omitempty"`
	// JointCenters enables the trial record export of sensor captures.
	JointCenters   *kinematics.JointCenterOptions `json:"joint_centers,omitempty"`
	SegmentLengths []kinematics.LengthPair        `json:"segment_lengths,omitempty"`

	// ConfigFilePath is where the config was read from. Relative paths are resolved against its directory.
	ConfigFilePath string `json:"-"`
}

// TrialConfig locates one recording and the frames of interest in it.
type TrialConfig struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Start int    `json:"start,omitempty"`
	End   int    `json:"end,omitempty"`

	// Heading is the direction the subject faces during the trial, in degrees about the vertical.
	Heading   float64 `json:"heading,omitempty"`
	WallIndex []int   `json:"wall_index,omitempty"`
	// Gaze is an optional coordinate file holding the projected gaze series of the trial.
	Gaze string `json:"gaze,omitempty"`
}

// Interval is the frame interval of the trial.
func (tc TrialConfig) Interval() capture.Interval {
	return capture.Interval{Start: tc.Start, End: tc.End}
}

// Validate ensures all parts of the trial config are valid.
func (tc *TrialConfig) Validate(path string) error {
	if tc.Name == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if tc.Path == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "path")
	}
	if tc.Start < 0 || (tc.End > 0 && tc.End <= tc.Start) {
		return utils.NewConfigValidationError(path, errors.Errorf("invalid frame interval [%d, %d)", tc.Start, tc.End))
	}
	for _, w := range tc.WallIndex {
		if w < 0 {
			return utils.NewConfigValidationError(path, errors.Errorf("negative wall index %d", w))
		}
	}
	return nil
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.Subject == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "subject")
	}
	source, err := capture.ParseSource(cfg.Source)
	if err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if source == capture.SourceMarker && cfg.Model == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "model")
	}
	if cfg.PatchedModel != "" && cfg.Model == "" {
		return utils.NewConfigValidationError(path, errors.New("patched_model needs a model to patch"))
	}
	if cfg.OutputDir == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "output_dir")
	}
	if _, err := spatialmath.ParseMeanMethod(cfg.Averaging); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if cfg.MaxParallelTrials < 0 {
		return utils.NewConfigValidationError(path, errors.Errorf("max_parallel_trials must not be negative, got %d", cfg.MaxParallelTrials))
	}
	if cfg.Kalman != nil {
		if source != capture.SourceMarker {
			return utils.NewConfigValidationError(path, errors.New("kalman reconstruction needs a marker capture"))
		}
		if err := cfg.Kalman.Validate(); err != nil {
			return utils.NewConfigValidationError(fmt.Sprintf("%s.%s", path, "kalman"), err)
		}
	}
	if cfg.JointCenters != nil && source != capture.SourceSensor {
		return utils.NewConfigValidationError(path, errors.New("joint center export needs a sensor capture"))
	}

	if err := cfg.Relax.Validate(fmt.Sprintf("%s.%s", path, "relax")); err != nil {
		return err
	}
	seen := map[string]bool{cfg.Relax.Name: true}
	for idx, tc := range cfg.Trials {
		trialPath := fmt.Sprintf("%s.%s.%d", path, "trials", idx)
		if err := tc.Validate(trialPath); err != nil {
			return err
		}
		if seen[tc.Name] {
			return utils.NewConfigValidationError(trialPath, errors.Errorf("duplicate trial name %q", tc.Name))
		}
		seen[tc.Name] = true
	}
	if len(cfg.Trials) == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "trials")
	}

	if cfg.TreeFromModel() {
		return nil
	}
	tree, err := cfg.Tree()
	if err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if cfg.DoF != nil {
		if err := cfg.DoF.Validate(tree); err != nil {
			return utils.NewConfigValidationError(fmt.Sprintf("%s.%s", path, "dof"), err)
		}
	}
	return nil
}

// SourceKind is the parsed capture source.
func (cfg *Config) SourceKind() capture.Source {
	source, err := capture.ParseSource(cfg.Source)
	if err != nil {
		return capture.SourceMarker
	}
	return source
}

// TreeFromModel reports whether the segment tree is the one declared by the model file:
// a marker capture naming neither segments nor a preset.
func (cfg *Config) TreeFromModel() bool {
	return cfg.SourceKind() == capture.SourceMarker && len(cfg.Segments) == 0 && cfg.Preset == "" && cfg.Model != ""
}

// Tree builds the segment tree from the explicit segments, else the preset, else the default preset
// of the source. Callers check TreeFromModel first.
func (cfg *Config) Tree() (*referenceframe.Tree, error) {
	if len(cfg.Segments) > 0 {
		return referenceframe.NewTree(cfg.Subject, cfg.Segments)
	}
	preset := cfg.Preset
	if preset == "" {
		switch cfg.SourceKind() {
		case capture.SourceSensor:
			preset = referenceframe.SensorTreeName
		default:
			preset = referenceframe.MarkerTreeName
		}
	}
	return referenceframe.PresetTree(preset)
}

// ValidationMode is strict when either the config or the caller asks for it.
func (cfg *Config) ValidationMode(forceStrict bool) spatialmath.ValidationMode {
	if cfg.StrictValidation || forceStrict {
		return spatialmath.Strict
	}
	return spatialmath.Lenient
}

// ParallelTrials is MaxParallelTrials with the default applied.
func (cfg *Config) ParallelTrials() int {
	if cfg.MaxParallelTrials == 0 {
		return DefaultMaxParallelTrials
	}
	return cfg.MaxParallelTrials
}

// ResolvePath makes a relative path relative to the directory of the config file.
func (cfg *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || cfg.ConfigFilePath == "" {
		return p
	}
	return filepath.Join(filepath.Dir(cfg.ConfigFilePath), p)
}
