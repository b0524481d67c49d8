package surface

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestFitPlaneAxisAligned(t *testing.T) {
	q := r3.Vec{X: 0.5, Y: 0.5}
	var nb []r3.Vec
	for x := 0.0; x <= 1; x += 0.5 {
		for y := 0.0; y <= 1; y += 0.5 {
			nb = append(nb, r3.Vec{X: x, Y: y})
		}
	}
	plane, err := fitPlane(q, nb)
	if err != nil {
		t.Fatal(err)
	}
	const tol = 1e-12
	if math.Abs(plane.A) > tol || math.Abs(plane.B) > tol {
		t.Errorf("in-plane normal components not zero: A=%g B=%g", plane.A, plane.B)
	}
	if math.Abs(math.Abs(plane.C)-1) > tol {
		t.Errorf("normal z component not unit: C=%g", plane.C)
	}
	if plane.Anchor != q {
		t.Errorf("anchor %v, want query point %v", plane.Anchor, q)
	}
	got := plane.DistanceTo(r3.Vec{X: 0.5, Y: 0.5, Z: 2})
	if math.Abs(math.Abs(got)-2) > tol {
		t.Errorf("distance to offset point: got %g, want magnitude 2", got)
	}
	if plane.DistanceTo(q) != 0 {
		t.Errorf("distance to anchor not zero: %g", plane.DistanceTo(q))
	}
}

func TestFitPlaneTilted(t *testing.T) {
	// Points on the plane x+y+z=0.
	onPlane := func(u, v float64) r3.Vec {
		// Orthogonal in-plane directions (1,-1,0) and (1,1,-2).
		return r3.Add(
			r3.Scale(u, r3.Unit(r3.Vec{X: 1, Y: -1})),
			r3.Scale(v, r3.Unit(r3.Vec{X: 1, Y: 1, Z: -2})),
		)
	}
	q := onPlane(0, 0)
	var nb []r3.Vec
	for u := -1.0; u <= 1; u += 0.5 {
		for v := -1.0; v <= 1; v += 0.5 {
			if u == 0 && v == 0 {
				continue
			}
			nb = append(nb, onPlane(u, v))
		}
	}
	plane, err := fitPlane(q, nb)
	if err != nil {
		t.Fatal(err)
	}
	want := r3.Unit(r3.Vec{X: 1, Y: 1, Z: 1})
	dot := r3.Dot(plane.Normal, want)
	if math.Abs(math.Abs(dot)-1) > 1e-9 {
		t.Errorf("normal %v not parallel to %v (cos=%g)", plane.Normal, want, dot)
	}
}

func TestFitPlaneTooFewNeighbors(t *testing.T) {
	nb := []r3.Vec{{X: 1}, {Y: 1}}
	_, err := fitPlane(r3.Vec{}, nb)
	if !errors.Is(err, ErrDegenerateNeighborhood) {
		t.Errorf("got %v, want ErrDegenerateNeighborhood", err)
	}
}

func TestFitPlaneCollinear(t *testing.T) {
	var nb []r3.Vec
	for i := 1; i <= 6; i++ {
		nb = append(nb, r3.Vec{X: float64(i)})
	}
	_, err := fitPlane(r3.Vec{}, nb)
	if !errors.Is(err, ErrIllFormedNeighborhood) {
		t.Errorf("got %v, want ErrIllFormedNeighborhood", err)
	}
}

func TestFitPlaneCoincident(t *testing.T) {
	p := r3.Vec{X: 1, Y: 2, Z: 3}
	nb := []r3.Vec{p, p, p, p}
	_, err := fitPlane(p, nb)
	if !errors.Is(err, ErrDegenerateNeighborhood) {
		t.Errorf("got %v, want ErrDegenerateNeighborhood", err)
	}
}

func TestBoundingBoxOK(t *testing.T) {
	for _, test := range []struct {
		dx, dy, dz float64
		want       bool
	}{
		{1, 1, 1, true},
		{1, 1, 0, true},    // flat patch
		{1, 0.1, 0, true},  // flat, anisotropic but within ratio
		{1, 0, 0, false},   // line along x
		{0, 1e-3, 0, false},
		{100, 1, 1, false}, // near-line
		{1, 100, 1, false},
		{1, 1, 100, false},
		{0, 0, 0, true}, // coincident, caught later by rank check
	} {
		got := boundingBoxOK(test.dx, test.dy, test.dz)
		if got != test.want {
			t.Errorf("boundingBoxOK(%g, %g, %g) = %v, want %v",
				test.dx, test.dy, test.dz, got, test.want)
		}
	}
}
