package capture

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/trampolinelab/acrokin/spatialmath"
)

// ErrDegenerateMarkers is returned when markers cannot define a frame: fewer than three or all collinear.
var ErrDegenerateMarkers = errors.New("markers must be at least three and not collinear")

// RegisterRigid finds the rigid transform that best maps the local marker positions onto the
// observed ones in the least squares sense. The returned pose is the segment frame in global coordinates.
func RegisterRigid(local, observed []r3.Vector) (spatialmath.Pose, error) {
	if len(local) != len(observed) {
		return spatialmath.UndefinedPose(), errors.Errorf("have %d local markers but %d observed", len(local), len(observed))
	}
	if err := checkMarkerGeometry(local); err != nil {
		return spatialmath.UndefinedPose(), err
	}
	cl := centroid(local)
	co := centroid(observed)

	// cross covariance of the centered clouds
	h := mat.NewDense(3, 3, nil)
	for i := range local {
		l := local[i].Sub(cl)
		o := observed[i].Sub(co)
		lv := []float64{l.X, l.Y, l.Z}
		ov := []float64{o.X, o.Y, o.Z}
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				h.Set(r, c, h.At(r, c)+lv[r]*ov[c])
			}
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(h, mat.SVDFull); !ok {
		return spatialmath.UndefinedPose(), errors.New("svd factorization of marker covariance failed")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	var vut mat.Dense
	vut.Mul(&v, u.T())
	d := mat.NewDiagDense(3, []float64{1, 1, math.Copysign(1, mat.Det(&vut))})
	var r mat.Dense
	r.Product(&v, d, u.T())

	rot := spatialmath.NewRotationMatrixFromDense(&r)
	return spatialmath.NewPose(co.Sub(rot.MulVec(cl)), rot), nil
}

func centroid(points []r3.Vector) r3.Vector {
	var sum r3.Vector
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(len(points)))
}

// checkMarkerGeometry rejects marker sets that cannot fix all three rotational degrees of freedom.
func checkMarkerGeometry(points []r3.Vector) error {
	if len(points) < 3 {
		return ErrDegenerateMarkers
	}
	var scale float64
	for _, p := range points[1:] {
		scale = math.Max(scale, p.Sub(points[0]).Norm())
	}
	if scale == 0 {
		return ErrDegenerateMarkers
	}
	first := points[1].Sub(points[0])
	for _, p := range points[1:] {
		if p.Sub(points[0]).Norm() > first.Norm() {
			first = p.Sub(points[0])
		}
	}
	for _, p := range points[1:] {
		if first.Cross(p.Sub(points[0])).Norm() > 1e-9*scale*scale {
			return nil
		}
	}
	return ErrDegenerateMarkers
}
