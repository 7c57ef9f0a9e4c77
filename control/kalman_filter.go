// Package control holds the state estimation filters used by the marker reconstructor.
package control

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// KalmanState is the estimate carried from one frame to the next.
// X is laid out as [q; qdot; qddot], P is its covariance.
type KalmanState struct {
	X *mat.VecDense // System State Matrix
	P *mat.SymDense // Covariance Matrix
}

// Q returns a copy of the generalized coordinates part of the state.
func (s *KalmanState) Q(nq int) []float64 {
	return vecSlice(s.X, 0, nq)
}

// Qdot returns a copy of the velocity part of the state.
func (s *KalmanState) Qdot(nq int) []float64 {
	return vecSlice(s.X, nq, 2*nq)
}

// Qddot returns a copy of the acceleration part of the state.
func (s *KalmanState) Qddot(nq int) []float64 {
	return vecSlice(s.X, 2*nq, 3*nq)
}

// IsFinite reports whether every entry of X and P is a finite number.
func (s *KalmanState) IsFinite() bool {
	for i := 0; i < s.X.Len(); i++ {
		if v := s.X.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	n := s.P.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if v := s.P.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

func vecSlice(v *mat.VecDense, from, to int) []float64 {
	out := make([]float64, to-from)
	for i := range out {
		out[i] = v.AtVec(from + i)
	}
	return out
}

// ExtendedKalman is an extended Kalman filter over nq coordinates with a constant acceleration
// model. Measurements depend on the coordinates only, through a Jacobian supplied per update.
type ExtendedKalman struct {
	nq          int
	transition  *mat.Dense
	process     *mat.SymDense
	noise       float64
	errorFactor float64
}

// NewConstantAccelerationFilter builds the filter for a sampling period te. noise is the variance
// of every measurement and errorFactor the initial variance of every state entry.
func NewConstantAccelerationFilter(nq int, te, noise, errorFactor float64) (*ExtendedKalman, error) {
	if nq <= 0 {
		return nil, errors.Errorf("need at least one coordinate, got %d", nq)
	}
	if te <= 0 || noise <= 0 || errorFactor <= 0 {
		return nil, errors.Errorf("sampling period, noise and error factor must be positive (%g, %g, %g)", te, noise, errorFactor)
	}
	n := 3 * nq
	f := mat.NewDense(n, n, nil)
	q := mat.NewSymDense(n, nil)
	// per coordinate blocks, white jerk driving the acceleration
	a := [3][3]float64{
		{1, te, te * te / 2},
		{0, 1, te},
		{0, 0, 1},
	}
	w := [3][3]float64{
		{math.Pow(te, 5) / 20, math.Pow(te, 4) / 8, math.Pow(te, 3) / 6},
		{math.Pow(te, 4) / 8, math.Pow(te, 3) / 3, te * te / 2},
		{math.Pow(te, 3) / 6, te * te / 2, te},
	}
	for i := 0; i < nq; i++ {
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				f.Set(r*nq+i, c*nq+i, a[r][c])
				if c >= r {
					q.SetSym(r*nq+i, c*nq+i, w[r][c])
				}
			}
		}
	}
	return &ExtendedKalman{nq: nq, transition: f, process: q, noise: noise, errorFactor: errorFactor}, nil
}

// NumQ is the number of coordinates.
func (k *ExtendedKalman) NumQ() int {
	return k.nq
}

// InitState returns the initial state with covariance errorFactor times identity.
// Nil velocity or acceleration slices mean zero.
func (k *ExtendedKalman) InitState(q, qdot, qddot []float64) (*KalmanState, error) {
	x := mat.NewVecDense(3*k.nq, nil)
	for part, values := range [][]float64{q, qdot, qddot} {
		if values == nil {
			continue
		}
		if len(values) != k.nq {
			return nil, errors.Errorf("initial state part %d has %d values, need %d", part, len(values), k.nq)
		}
		for i, v := range values {
			x.SetVec(part*k.nq+i, v)
		}
	}
	p := mat.NewSymDense(3*k.nq, nil)
	for i := 0; i < 3*k.nq; i++ {
		p.SetSym(i, i, k.errorFactor)
	}
	return &KalmanState{X: x, P: p}, nil
}

// Predict advances the state by one sampling period.
func (k *ExtendedKalman) Predict(s *KalmanState) {
	var x mat.VecDense
	x.MulVec(k.transition, s.X)

	var fp, fpft mat.Dense
	fp.Mul(k.transition, s.P)
	fpft.Mul(&fp, k.transition.T())
	fpft.Add(&fpft, k.process)

	s.X = &x
	s.P = symmetrize(&fpft)
}

// Update corrects the state with measurement z, given the predicted measurement h and its
// Jacobian jac (len(z) x nq) with respect to the coordinates. An empty measurement is a no-op.
func (k *ExtendedKalman) Update(s *KalmanState, z, h []float64, jac *mat.Dense) error {
	m := len(z)
	if len(h) != m {
		return errors.Errorf("measurement has %d values but prediction has %d", m, len(h))
	}
	if m == 0 {
		return nil
	}
	if r, c := jac.Dims(); r != m || c != k.nq {
		return errors.Errorf("jacobian is %dx%d, need %dx%d", r, c, m, k.nq)
	}
	n := 3 * k.nq
	full := mat.NewDense(m, n, nil)
	full.Slice(0, m, 0, k.nq).(*mat.Dense).Copy(jac)

	var pht mat.Dense
	pht.Mul(s.P, full.T())

	var hpht mat.Dense
	hpht.Mul(full, &pht)
	for i := 0; i < m; i++ {
		hpht.Set(i, i, hpht.At(i, i)+k.noise)
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(symmetrize(&hpht)); !ok {
		return errors.New("innovation covariance is not positive definite")
	}

	// K = P H^T S^-1, solved as S K^T = H P
	var kt mat.Dense
	if err := chol.SolveTo(&kt, pht.T()); err != nil {
		return errors.Wrap(err, "failed to solve for the kalman gain")
	}

	innovation := mat.NewVecDense(m, nil)
	for i := range z {
		innovation.SetVec(i, z[i]-h[i])
	}
	var dx mat.VecDense
	dx.MulVec(kt.T(), innovation)
	var x mat.VecDense
	x.AddVec(s.X, &dx)

	var khp mat.Dense
	khp.Mul(kt.T(), pht.T())
	var p mat.Dense
	p.Sub(s.P, &khp)

	s.X = &x
	s.P = symmetrize(&p)
	return nil
}

// symmetrize averages m with its transpose to absorb rounding drift.
func symmetrize(m mat.Matrix) *mat.SymDense {
	n, _ := m.Dims()
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, (m.At(i, j)+m.At(j, i))/2)
		}
	}
	return out
}
