package spatialmath

import (
	"fmt"
	"math"

	"github.com/edaniels/golog"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"
)

// Tolerances for the orthogonality test, matching the usual allclose defaults.
const (
	orthoRelTol = 1e-5
	orthoAbsTol = 1e-8
)

// ValidationMode selects what happens when a matrix fails the rotation test.
type ValidationMode int

const (
	// Lenient logs a warning and keeps going.
	Lenient ValidationMode = iota
	// Strict turns every failure into an error.
	Strict
)

// NonRotationError reports a matrix that is not a proper rotation.
type NonRotationError struct {
	Segment string
	Index   int
	Det     float64
}

func (e *NonRotationError) Error() string {
	return fmt.Sprintf("matrix %d of segment %q is not a rotation (det=%.6f)", e.Index, e.Segment, e.Det)
}

// IsRotation reports whether the transpose of rm equals its inverse within tolerance
// and whether its determinant is one. Singular and undefined matrices are not rotations.
func IsRotation(rm RotationMatrix) bool {
	if !rm.IsDefined() {
		return false
	}
	var inv mat.Dense
	if err := inv.Inverse(rm.Dense()); err != nil {
		return false
	}
	tr := rm.Transpose()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			if !isClose(tr.At(r, c), inv.At(r, c)) {
				return false
			}
		}
	}
	return isClose(rm.Det(), 1)
}

func isClose(a, b float64) bool {
	return math.Abs(a-b) <= orthoAbsTol+orthoRelTol*math.Abs(b)
}

// Validator checks rotation matrices and reports failures according to its mode.
type Validator struct {
	mode   ValidationMode
	logger golog.Logger
}

// NewValidator returns a validator. A nil logger discards lenient warnings.
func NewValidator(mode ValidationMode, logger golog.Logger) *Validator {
	if logger == nil {
		logger = golog.NewLogger("validator")
	}
	return &Validator{mode: mode, logger: logger}
}

// Mode returns the validation mode.
func (v *Validator) Mode() ValidationMode {
	return v.mode
}

// Validate checks a single matrix. It returns whether the matrix passed, and an error only in strict mode.
func (v *Validator) Validate(rm RotationMatrix, segment string, index int) (bool, error) {
	if IsRotation(rm) {
		return true, nil
	}
	err := &NonRotationError{Segment: segment, Index: index, Det: rm.Det()}
	if v.mode == Strict {
		return false, err
	}
	v.logger.Warnw("matrix is not a rotation", "segment", segment, "index", index, "det", err.Det)
	return false, nil
}

// ValidateBatch checks every member of batch independently. Undefined matrices are skipped.
// It returns true only if all defined members pass; in strict mode every failure is combined into the error.
func (v *Validator) ValidateBatch(batch []RotationMatrix, segment string) (bool, error) {
	allOK := true
	var errs error
	for i, rm := range batch {
		if !rm.IsDefined() {
			continue
		}
		ok, err := v.Validate(rm, segment, i)
		allOK = allOK && ok
		errs = multierr.Append(errs, err)
	}
	return allOK, errs
}
