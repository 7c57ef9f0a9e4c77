package kinematics

import (
	"math"

	"github.com/trampolinelab/acrokin/utils"
)

// Unwrap removes jumps larger than pi between consecutive samples by adding multiples of 2pi,
// in place. NaN samples are skipped and stay NaN; the jump is measured across them.
func Unwrap(series []float64) {
	prev := math.NaN()
	correction := 0.
	for i, v := range series {
		if math.IsNaN(v) {
			continue
		}
		if !math.IsNaN(prev) {
			dd := v - prev
			ddmod := utils.PythonMod(dd+math.Pi, 2*math.Pi) - math.Pi
			if ddmod == -math.Pi && dd > 0 {
				ddmod = math.Pi
			}
			if math.Abs(dd) >= math.Pi {
				correction += ddmod - dd
			}
		}
		prev = v
		series[i] = v + correction
	}
}

// CorrectBranch re-centers an unwrapped series: the first sample whose magnitude exceeds threshold
// shifts the whole series by one turn towards zero. It reports whether a shift was applied.
func CorrectBranch(series []float64, threshold float64) bool {
	shift := 0.
	for _, v := range series {
		if v > threshold {
			shift = -2 * math.Pi
			break
		}
		if v < -threshold {
			shift = 2 * math.Pi
			break
		}
	}
	if shift == 0 {
		return false
	}
	for i := range series {
		series[i] += shift
	}
	return true
}
