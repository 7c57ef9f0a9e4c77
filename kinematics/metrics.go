package kinematics

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/trampolinelab/acrokin/referenceframe"
	"github.com/trampolinelab/acrokin/spatialmath"
)

// MarkerRMSD is, per frame, the root mean square distance between the observed markers and the
// markers the model places at the reconstructed coordinates. Occluded markers are ignored;
// a frame with none visible is NaN.
func MarkerRMSD(model *referenceframe.Model, q *mat.Dense, frames [][]r3.Vector) ([]float64, error) {
	rows, cols := q.Dims()
	if rows != model.NbQ() {
		return nil, errors.Errorf("coordinates have %d rows, model %q has %d", rows, model.Name(), model.NbQ())
	}
	if cols != len(frames) {
		return nil, errors.Errorf("coordinates have %d frames, markers have %d", cols, len(frames))
	}
	out := make([]float64, len(frames))
	for f, frame := range frames {
		positions, err := model.MarkerPositions(mat.Col(nil, f, q))
		if err != nil {
			return nil, err
		}
		if len(positions) != len(frame) {
			return nil, errors.Errorf("frame %d has %d markers, model %q has %d", f, len(frame), model.Name(), len(positions))
		}
		var sum float64
		var n int
		for m, p := range frame {
			if !spatialmath.PointIsDefined(p) {
				continue
			}
			sum += p.Sub(positions[m]).Norm2()
			n++
		}
		if n == 0 {
			out[f] = math.NaN()
			continue
		}
		out[f] = math.Sqrt(sum / float64(n))
	}
	return out, nil
}
