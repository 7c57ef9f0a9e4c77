package kinematics

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/trampolinelab/acrokin/control"
	"github.com/trampolinelab/acrokin/referenceframe"
	"github.com/trampolinelab/acrokin/spatialmath"
)

const (
	jacobianStep = 1e-6
	// bootstrapIterations is how many corrections are run on the first frame when no initial state is given.
	bootstrapIterations = 50
)

// KalmanParams configures the marker reconstructor.
type KalmanParams struct {
	Frequency   float64 `json:"frequency"`
	NoiseFactor float64 `json:"noise_factor"`
	ErrorFactor float64 `json:"error_factor"`
}

// DefaultKalmanParams samples at 200 Hz with a very trusted measurement.
func DefaultKalmanParams() KalmanParams {
	return KalmanParams{Frequency: 200, NoiseFactor: 1e-10, ErrorFactor: 1e-5}
}

// Validate checks that every parameter is positive.
func (p KalmanParams) Validate() error {
	if p.Frequency <= 0 {
		return errors.Errorf("kalman frequency must be positive, got %g", p.Frequency)
	}
	if p.NoiseFactor <= 0 || p.ErrorFactor <= 0 {
		return errors.Errorf("kalman noise and error factors must be positive, got %g and %g", p.NoiseFactor, p.ErrorFactor)
	}
	return nil
}

// InitialState seeds the reconstructor. Nil velocities and accelerations are zero.
type InitialState struct {
	Q     []float64 `json:"q"`
	Qdot  []float64 `json:"qdot,omitempty"`
	Qddot []float64 `json:"qddot,omitempty"`
}

// Reconstruction is the output of a marker reconstruction: one column per input frame.
type Reconstruction struct {
	Q     *mat.Dense
	Qdot  *mat.Dense
	Qddot *mat.Dense
	// SkippedFrames lists the frames with no visible marker, for which only the prediction was kept.
	SkippedFrames []int
}

// Reconstructor estimates the generalized coordinates of a skeletal model from marker clouds with
// an extended Kalman filter.
type Reconstructor struct {
	model   *referenceframe.Model
	filter  *control.ExtendedKalman
	initial *InitialState
	logger  golog.Logger
}

// NewReconstructor builds a reconstructor for model. A nil initial state starts from zero and
// is refined on the first frame before filtering.
func NewReconstructor(
	model *referenceframe.Model,
	params KalmanParams,
	initial *InitialState,
	logger golog.Logger,
) (*Reconstructor, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if model.NbQ() == 0 {
		return nil, errors.Errorf("model %q has no degree of freedom", model.Name())
	}
	filter, err := control.NewConstantAccelerationFilter(model.NbQ(), 1/params.Frequency, params.NoiseFactor, params.ErrorFactor)
	if err != nil {
		return nil, err
	}
	if initial != nil && len(initial.Q) != model.NbQ() {
		return nil, errors.Errorf("initial state has %d coordinates, model %q has %d", len(initial.Q), model.Name(), model.NbQ())
	}
	if logger == nil {
		logger = golog.NewLogger("reconstructor")
	}
	return &Reconstructor{model: model, filter: filter, initial: initial, logger: logger}, nil
}

// Reconstruct runs the filter over frames in order. frames[f][m] is marker m of the model at frame f;
// NaN coordinates mark an occluded marker.
func (r *Reconstructor) Reconstruct(ctx context.Context, frames [][]r3.Vector) (*Reconstruction, error) {
	if len(frames) == 0 {
		return nil, ErrEmptyTrial
	}
	nq := r.model.NbQ()
	nm := len(r.model.Markers())
	for f, frame := range frames {
		if len(frame) != nm {
			return nil, errors.Errorf("frame %d has %d markers, model %q has %d", f, len(frame), r.model.Name(), nm)
		}
	}

	state, err := r.initialState(frames)
	if err != nil {
		return nil, err
	}

	out := &Reconstruction{
		Q:     mat.NewDense(nq, len(frames), nil),
		Qdot:  mat.NewDense(nq, len(frames), nil),
		Qddot: mat.NewDense(nq, len(frames), nil),
	}
	for f, frame := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.filter.Predict(state)
		visible, err := r.correct(state, frame)
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d", f)
		}
		if visible == 0 {
			r.logger.Debugw("no visible marker, keeping prediction", "frame", f)
			out.SkippedFrames = append(out.SkippedFrames, f)
		}
		if !state.IsFinite() {
			return nil, errors.Errorf("kalman filter diverged at frame %d", f)
		}
		out.Q.SetCol(f, state.Q(nq))
		out.Qdot.SetCol(f, state.Qdot(nq))
		out.Qddot.SetCol(f, state.Qddot(nq))
	}
	if len(out.SkippedFrames) > 0 {
		r.logger.Infow("frames reconstructed from prediction only", "count", len(out.SkippedFrames))
	}
	return out, nil
}

func (r *Reconstructor) initialState(frames [][]r3.Vector) (*control.KalmanState, error) {
	if r.initial != nil {
		return r.filter.InitState(r.initial.Q, r.initial.Qdot, r.initial.Qddot)
	}
	state, err := r.filter.InitState(make([]float64, r.model.NbQ()), nil, nil)
	if err != nil {
		return nil, err
	}
	// settle on the first frame with the velocity held at zero
	for i := 0; i < bootstrapIterations; i++ {
		if _, err := r.correct(state, frames[0]); err != nil {
			return nil, errors.Wrap(err, "initial pose")
		}
		fresh, err := r.filter.InitState(state.Q(r.model.NbQ()), nil, nil)
		if err != nil {
			return nil, err
		}
		state = fresh
	}
	return state, nil
}

// correct applies the measurement of the visible markers of frame and returns how many were used.
func (r *Reconstructor) correct(state *control.KalmanState, frame []r3.Vector) (int, error) {
	visible := make([]int, 0, len(frame))
	for m, p := range frame {
		if spatialmath.PointIsDefined(p) {
			visible = append(visible, m)
		}
	}
	if len(visible) == 0 {
		return 0, nil
	}
	q := state.Q(r.model.NbQ())
	predicted, err := r.model.MarkerPositions(q)
	if err != nil {
		return 0, err
	}
	jac, err := r.markerJacobian(q, visible)
	if err != nil {
		return 0, err
	}
	z := make([]float64, 0, 3*len(visible))
	h := make([]float64, 0, 3*len(visible))
	for _, m := range visible {
		z = append(z, frame[m].X, frame[m].Y, frame[m].Z)
		h = append(h, predicted[m].X, predicted[m].Y, predicted[m].Z)
	}
	return len(visible), r.filter.Update(state, z, h, jac)
}

// markerJacobian differentiates the visible marker positions with respect to q by central differences.
func (r *Reconstructor) markerJacobian(q []float64, visible []int) (*mat.Dense, error) {
	nq := len(q)
	jac := mat.NewDense(3*len(visible), nq, nil)
	probe := append([]float64(nil), q...)
	for j := 0; j < nq; j++ {
		probe[j] = q[j] + jacobianStep
		plus, err := r.model.MarkerPositions(probe)
		if err != nil {
			return nil, err
		}
		probe[j] = q[j] - jacobianStep
		minus, err := r.model.MarkerPositions(probe)
		if err != nil {
			return nil, err
		}
		probe[j] = q[j]
		for row, m := range visible {
			d := plus[m].Sub(minus[m]).Mul(1 / (2 * jacobianStep))
			jac.Set(3*row, j, d.X)
			jac.Set(3*row+1, j, d.Y)
			jac.Set(3*row+2, j, d.Z)
		}
	}
	return jac, nil
}
