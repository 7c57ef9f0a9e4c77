package spatialmath

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// RotationMatrix is a 3x3 matrix in row major order.
// m[3*r + c] is the element in the r'th row and c'th column.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrix creates the rotation matrix from a slice of 9 values in row major order.
func NewRotationMatrix(m []float64) (RotationMatrix, error) {
	if len(m) != 9 {
		return RotationMatrix{}, errors.Errorf("input slice has %d elements, need exactly 9", len(m))
	}
	var rm RotationMatrix
	copy(rm.mat[:], m)
	return rm, nil
}

// NewRotationMatrixFromRows builds a matrix whose rows are the given vectors.
func NewRotationMatrixFromRows(r0, r1, r2 r3.Vector) RotationMatrix {
	return RotationMatrix{[9]float64{
		r0.X, r0.Y, r0.Z,
		r1.X, r1.Y, r1.Z,
		r2.X, r2.Y, r2.Z,
	}}
}

// NewRotationMatrixFromDense copies the upper left 3x3 block of m.
func NewRotationMatrixFromDense(m mat.Matrix) RotationMatrix {
	var rm RotationMatrix
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			rm.mat[3*r+c] = m.At(r, c)
		}
	}
	return rm
}

// IdentityRotation returns the rotation that does nothing.
func IdentityRotation() RotationMatrix {
	return RotationMatrix{[9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// UndefinedRotation returns a matrix filled with NaN, used for frames where a segment could not be observed.
func UndefinedRotation() RotationMatrix {
	nan := math.NaN()
	return RotationMatrix{[9]float64{nan, nan, nan, nan, nan, nan, nan, nan, nan}}
}

// RotationAboutAxis returns the elementary rotation of theta radians about one of the coordinate axes.
func RotationAboutAxis(axis Axis, theta float64) RotationMatrix {
	s, c := math.Sincos(theta)
	switch axis {
	case AxisX:
		return RotationMatrix{[9]float64{1, 0, 0, 0, c, -s, 0, s, c}}
	case AxisY:
		return RotationMatrix{[9]float64{c, 0, s, 0, 1, 0, -s, 0, c}}
	case AxisZ:
		return RotationMatrix{[9]float64{c, -s, 0, s, c, 0, 0, 0, 1}}
	default:
		return UndefinedRotation()
	}
}

// At returns the element at the given row and column.
func (rm RotationMatrix) At(row, col int) float64 {
	return rm.mat[3*row+col]
}

// Row returns the row at the given index as a vector.
func (rm RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{X: rm.mat[3*row], Y: rm.mat[3*row+1], Z: rm.mat[3*row+2]}
}

// Col returns the column at the given index as a vector.
func (rm RotationMatrix) Col(col int) r3.Vector {
	return r3.Vector{X: rm.mat[col], Y: rm.mat[3+col], Z: rm.mat[6+col]}
}

// Values returns a copy of the underlying row major data.
func (rm RotationMatrix) Values() []float64 {
	out := make([]float64, 9)
	copy(out, rm.mat[:])
	return out
}

// Transpose returns the transpose, which is the inverse for a proper rotation.
func (rm RotationMatrix) Transpose() RotationMatrix {
	m := rm.mat
	return RotationMatrix{[9]float64{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}}
}

// Mul returns the product rm * other.
func (rm RotationMatrix) Mul(other RotationMatrix) RotationMatrix {
	var out RotationMatrix
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out.mat[3*r+c] = rm.mat[3*r]*other.mat[c] + rm.mat[3*r+1]*other.mat[3+c] + rm.mat[3*r+2]*other.mat[6+c]
		}
	}
	return out
}

// MulVec applies the rotation to v.
func (rm RotationMatrix) MulVec(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: rm.Row(0).Dot(v),
		Y: rm.Row(1).Dot(v),
		Z: rm.Row(2).Dot(v),
	}
}

// Det returns the determinant.
func (rm RotationMatrix) Det() float64 {
	return rm.Row(0).Dot(rm.Row(1).Cross(rm.Row(2)))
}

// IsDefined reports whether every element is a finite number.
func (rm RotationMatrix) IsDefined() bool {
	for _, v := range rm.mat {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Dense returns the matrix as a gonum dense matrix.
func (rm RotationMatrix) Dense() *mat.Dense {
	return mat.NewDense(3, 3, rm.Values())
}

// Quaternion returns the unit quaternion for this rotation.
func (rm RotationMatrix) Quaternion() quat.Number {
	return rotationMatrixToQuat(rm)
}

// RotationMatrix lets a RotationMatrix satisfy Orientation.
func (rm RotationMatrix) RotationMatrix() RotationMatrix {
	return rm
}

// AxisAngles returns the rotation in axis angle representation.
func (rm RotationMatrix) AxisAngles() *R4AA {
	return QuatToR4AA(rm.Quaternion())
}

// Homogeneous returns the 4x4 transform made of this rotation and the translation t.
func (rm RotationMatrix) Homogeneous(t r3.Vector) mgl64.Mat4 {
	m := mgl64.Ident4()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.Set(r, c, rm.At(r, c))
		}
	}
	m.Set(0, 3, t.X)
	m.Set(1, 3, t.Y)
	m.Set(2, 3, t.Z)
	return m
}

// FromHomogeneous splits a 4x4 rigid transform into its rotation and translation.
func FromHomogeneous(m mgl64.Mat4) (RotationMatrix, r3.Vector) {
	var rm RotationMatrix
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			rm.mat[3*r+c] = m.At(r, c)
		}
	}
	return rm, r3.Vector{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)}
}

// AlmostEqual compares element-wise with the given absolute tolerance.
func (rm RotationMatrix) AlmostEqual(other RotationMatrix, tol float64) bool {
	for i := range rm.mat {
		if math.Abs(rm.mat[i]-other.mat[i]) > tol {
			return false
		}
	}
	return true
}

func (rm RotationMatrix) String() string {
	return fmt.Sprintf("[%.6f %.6f %.6f; %.6f %.6f %.6f; %.6f %.6f %.6f]",
		rm.mat[0], rm.mat[1], rm.mat[2], rm.mat[3], rm.mat[4], rm.mat[5], rm.mat[6], rm.mat[7], rm.mat[8])
}

// YUpToZUp is the fixed rotation taking a Y-up world to a Z-up world: (x, y, z) -> (x, -z, y).
func YUpToZUp() RotationMatrix {
	return RotationMatrix{[9]float64{1, 0, 0, 0, 0, -1, 0, 1, 0}}
}
