package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// NormalizeQuaternion scales q to unit length. A zero or undefined quaternion yields an undefined one.
func NormalizeQuaternion(q quat.Number) quat.Number {
	norm := quat.Abs(q)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		nan := math.NaN()
		return quat.Number{Real: nan, Imag: nan, Jmag: nan, Kmag: nan}
	}
	return quat.Scale(1/norm, q)
}

// QuatToRotationMatrix converts a quaternion to a rotation matrix. The quaternion is normalized first.
func QuatToRotationMatrix(q quat.Number) RotationMatrix {
	q = NormalizeQuaternion(q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return RotationMatrix{[9]float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	}}
}

// rotationMatrixToQuat uses the branch on the largest diagonal term to stay well conditioned.
func rotationMatrixToQuat(rm RotationMatrix) quat.Number {
	m := rm.mat
	tr := m[0] + m[4] + m[8]
	var q quat.Number
	switch {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q = quat.Number{Real: s / 4, Imag: (m[7] - m[5]) / s, Jmag: (m[2] - m[6]) / s, Kmag: (m[3] - m[1]) / s}
	case m[0] > m[4] && m[0] > m[8]:
		s := math.Sqrt(1+m[0]-m[4]-m[8]) * 2
		q = quat.Number{Real: (m[7] - m[5]) / s, Imag: s / 4, Jmag: (m[1] + m[3]) / s, Kmag: (m[2] + m[6]) / s}
	case m[4] > m[8]:
		s := math.Sqrt(1+m[4]-m[0]-m[8]) * 2
		q = quat.Number{Real: (m[2] - m[6]) / s, Imag: (m[1] + m[3]) / s, Jmag: s / 4, Kmag: (m[5] + m[7]) / s}
	default:
		s := math.Sqrt(1+m[8]-m[0]-m[4]) * 2
		q = quat.Number{Real: (m[3] - m[1]) / s, Imag: (m[2] + m[6]) / s, Jmag: (m[5] + m[7]) / s, Kmag: s / 4}
	}
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	return q
}

// QuaternionAlmostEqual is an equality test for quaternions that treats q and -q as the same rotation.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	same := math.Abs(a.Real-b.Real) < tol && math.Abs(a.Imag-b.Imag) < tol &&
		math.Abs(a.Jmag-b.Jmag) < tol && math.Abs(a.Kmag-b.Kmag) < tol
	opposite := math.Abs(a.Real+b.Real) < tol && math.Abs(a.Imag+b.Imag) < tol &&
		math.Abs(a.Jmag+b.Jmag) < tol && math.Abs(a.Kmag+b.Kmag) < tol
	return same || opposite
}

// QuatToR4AA converts a quaternion to an R4 axis angle.
func QuatToR4AA(q quat.Number) *R4AA {
	denom := math.Sqrt(1 - q.Real*q.Real)
	if math.IsNaN(denom) || denom < 1e-12 {
		return NewR4AA()
	}
	return &R4AA{2 * math.Acos(q.Real), q.Imag / denom, q.Jmag / denom, q.Kmag / denom}
}
