package surface

import (
	"errors"
	"fmt"

	"github.com/recon3d/recon/internal/d3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrDegenerateNeighborhood reports that a neighborhood had too few
	// usable points, or that its least-squares system was rank deficient.
	ErrDegenerateNeighborhood = errors.New("surface: degenerate neighborhood")
	// ErrIllFormedNeighborhood reports that a neighborhood bounding box is
	// near-linear: one axis extent dwarfs both others. Fitting a plane to
	// such a neighborhood produces spurious normals in sparse scans.
	ErrIllFormedNeighborhood = errors.New("surface: ill-formed neighborhood bounding box")
)

// Plane is a tangent plane approximation at a query point.
// A, B, C are the normal-form coefficients of the plane
// A*x + B*y + C*z = D passing through Anchor; (A,B,C) equals Normal.
type Plane struct {
	A, B, C float64
	Normal  r3.Vec
	Anchor  r3.Vec
}

// DistanceTo returns the signed distance of v from the plane along its normal.
func (p Plane) DistanceTo(v r3.Vec) float64 {
	return r3.Dot(r3.Sub(v, p.Anchor), p.Normal)
}

const (
	// boxExtentRatio is the maximum allowed ratio between the largest
	// neighborhood bounding box extent and each of the two others.
	boxExtentRatio = 20.0
	// rankRatio: the second-smallest covariance eigenvalue must carry at
	// least this fraction of the largest, otherwise the point spread is
	// essentially one dimensional and the fit is rank deficient.
	rankRatio = 1e-9
)

// fitPlane computes the least-squares tangent plane through q and its
// neighbors, minimizing the sum of squared perpendicular distances.
// The normal orientation is arbitrary; callers resolve the sign.
func fitPlane(q r3.Vec, nb []r3.Vec) (Plane, error) {
	if len(nb) < 3 {
		return Plane{}, fmt.Errorf("%w: %d neighbors", ErrDegenerateNeighborhood, len(nb))
	}
	bb := d3.Box{Min: nb[0], Max: nb[0]}
	for _, p := range nb[1:] {
		bb = bb.Include(p)
	}
	size := bb.Size()
	if !boundingBoxOK(size.X, size.Y, size.Z) {
		return Plane{}, ErrIllFormedNeighborhood
	}

	// Covariance of the neighborhood (query point included) about its mean.
	mean := q
	for _, p := range nb {
		mean = r3.Add(mean, p)
	}
	mean = r3.Scale(1/float64(len(nb)+1), mean)
	var xx, xy, xz, yy, yz, zz float64
	accum := func(p r3.Vec) {
		d := r3.Sub(p, mean)
		xx += d.X * d.X
		xy += d.X * d.Y
		xz += d.X * d.Z
		yy += d.Y * d.Y
		yz += d.Y * d.Z
		zz += d.Z * d.Z
	}
	accum(q)
	for _, p := range nb {
		accum(p)
	}
	cov := mat.NewSymDense(3, []float64{
		xx, xy, xz,
		xy, yy, yz,
		xz, yz, zz,
	})

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return Plane{}, fmt.Errorf("%w: eigendecomposition failed", ErrDegenerateNeighborhood)
	}
	vals := eig.Values(nil) // ascending order.
	if vals[2] <= 0 || vals[1] <= rankRatio*vals[2] {
		return Plane{}, fmt.Errorf("%w: rank deficient point spread", ErrDegenerateNeighborhood)
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	// The eigenvector of the smallest eigenvalue is the plane normal.
	n := r3.Unit(r3.Vec{X: vecs.At(0, 0), Y: vecs.At(1, 0), Z: vecs.At(2, 0)})
	return Plane{A: n.X, B: n.Y, C: n.Z, Normal: n, Anchor: q}, nil
}

// boundingBoxOK checks that no neighborhood bounding box extent is
// disproportionately larger than both others, which would indicate a
// near-linear point arrangement. Flat boxes are fine: a planar patch has
// one small extent but two comparable large ones.
func boundingBoxOK(dx, dy, dz float64) bool {
	r := boxExtentRatio
	if dx > r*dy && dx > r*dz {
		return false
	}
	if dy > r*dx && dy > r*dz {
		return false
	}
	if dz > r*dx && dz > r*dy {
		return false
	}
	return true
}
