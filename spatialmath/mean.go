package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/stat"
)

// MeanMethod selects how a batch of rotations is averaged.
type MeanMethod int

const (
	// MeanQuaternion takes the principal eigenvector of the summed quaternion outer products.
	MeanQuaternion MeanMethod = iota
	// MeanSVD projects the element-wise mean matrix back onto the rotation group.
	MeanSVD
)

// ParseMeanMethod converts a configuration name into a MeanMethod. The empty string selects MeanQuaternion.
func ParseMeanMethod(s string) (MeanMethod, error) {
	switch s {
	case "", "quaternion":
		return MeanQuaternion, nil
	case "svd":
		return MeanSVD, nil
	default:
		return 0, errors.Errorf("unknown averaging method %q", s)
	}
}

// ErrNoDefinedRotation is returned when every member of a batch is undefined.
var ErrNoDefinedRotation = errors.New("no defined rotation to average")

// MeanRotation averages a batch of rotations, ignoring undefined members.
// The result is always a proper rotation.
func MeanRotation(batch []RotationMatrix, method MeanMethod) (RotationMatrix, error) {
	defined := make([]RotationMatrix, 0, len(batch))
	for _, rm := range batch {
		if rm.IsDefined() {
			defined = append(defined, rm)
		}
	}
	if len(defined) == 0 {
		return UndefinedRotation(), ErrNoDefinedRotation
	}
	switch method {
	case MeanSVD:
		return meanSVD(defined)
	default:
		return meanQuaternion(defined)
	}
}

func meanQuaternion(batch []RotationMatrix) (RotationMatrix, error) {
	acc := mat.NewSymDense(4, nil)
	for _, rm := range batch {
		q := rm.Quaternion()
		v := mat.NewVecDense(4, []float64{q.Real, q.Imag, q.Jmag, q.Kmag})
		acc.SymRankOne(acc, 1, v)
	}
	var es mat.EigenSym
	if ok := es.Factorize(acc, true); !ok {
		return UndefinedRotation(), errors.New("eigen decomposition of quaternion accumulator failed")
	}
	var vectors mat.Dense
	es.VectorsTo(&vectors)
	// eigenvalues come back in ascending order
	q := quat.Number{
		Real: vectors.At(0, 3),
		Imag: vectors.At(1, 3),
		Jmag: vectors.At(2, 3),
		Kmag: vectors.At(3, 3),
	}
	return QuatToRotationMatrix(q), nil
}

func meanSVD(batch []RotationMatrix) (RotationMatrix, error) {
	sum := mat.NewDense(3, 3, nil)
	for _, rm := range batch {
		sum.Add(sum, rm.Dense())
	}
	sum.Scale(1/float64(len(batch)), sum)
	return projectToRotation(sum)
}

// projectToRotation returns the rotation closest to m in the Frobenius sense.
func projectToRotation(m mat.Matrix) (RotationMatrix, error) {
	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDFull); !ok {
		return UndefinedRotation(), errors.New("svd factorization failed")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	var uvt mat.Dense
	uvt.Mul(&u, v.T())
	d := mat.NewDiagDense(3, []float64{1, 1, math.Copysign(1, mat.Det(&uvt))})
	var out mat.Dense
	out.Product(&u, d, v.T())
	return NewRotationMatrixFromDense(&out), nil
}

// NearestRotation projects an arbitrary 3x3 matrix onto the closest proper rotation.
func NearestRotation(rm RotationMatrix) (RotationMatrix, error) {
	if !rm.IsDefined() {
		return UndefinedRotation(), ErrNoDefinedRotation
	}
	return projectToRotation(rm.Dense())
}

// MeanPosition averages the defined points. A batch with no defined point yields a NaN vector.
func MeanPosition(points []r3.Vector) r3.Vector {
	xs := make([]float64, 0, len(points))
	ys := make([]float64, 0, len(points))
	zs := make([]float64, 0, len(points))
	for _, p := range points {
		if !PointIsDefined(p) {
			continue
		}
		xs = append(xs, p.X)
		ys = append(ys, p.Y)
		zs = append(zs, p.Z)
	}
	if len(xs) == 0 {
		return UndefinedPoint()
	}
	return r3.Vector{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil), Z: stat.Mean(zs, nil)}
}
