// Package scan generates synthetic point cloud scans, mostly useful for
// exercising the reconstruction pipeline without a range scanner at
// hand. Points can be sampled from triangle soups, loaded from binary
// STL files or perturbed with noise to simulate sensor error.
package scan

import (
	"math"
	"math/rand"

	"github.com/fogleman/fauxgl"
	"gonum.org/v1/gonum/spatial/r3"
)

// FromTriangles samples the surface of a triangle soup at approximately
// the argument spacing between points. Shared vertices are emitted once.
func FromTriangles(model []r3.Triangle, spacing float64) []r3.Vec {
	if spacing <= 0 {
		panic("spacing must be positive")
	}
	seen := make(map[r3.Vec]struct{})
	var points []r3.Vec
	add := func(p r3.Vec) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		points = append(points, p)
	}
	for _, tri := range model {
		a, b, c := tri[0], tri[1], tri[2]
		// Subdivisions along the longest edge at the requested spacing.
		longest := math.Max(r3.Norm(r3.Sub(b, a)),
			math.Max(r3.Norm(r3.Sub(c, b)), r3.Norm(r3.Sub(a, c))))
		n := int(math.Ceil(longest / spacing))
		if n < 1 {
			n = 1
		}
		// Barycentric lattice over the triangle.
		for i := 0; i <= n; i++ {
			for j := 0; j <= n-i; j++ {
				u := float64(i) / float64(n)
				v := float64(j) / float64(n)
				p := r3.Add(r3.Scale(1-u-v, a),
					r3.Add(r3.Scale(u, b), r3.Scale(v, c)))
				add(p)
			}
		}
	}
	return points
}

// FromSTL loads the distinct vertices of a binary STL file as a point
// cloud.
func FromSTL(path string) ([]r3.Vec, error) {
	mesh, err := fauxgl.LoadSTL(path)
	if err != nil {
		return nil, err
	}
	seen := make(map[r3.Vec]struct{})
	var points []r3.Vec
	for _, tri := range mesh.Triangles {
		for _, vert := range []fauxgl.Vector{tri.V1.Position, tri.V2.Position, tri.V3.Position} {
			p := r3.Vec{X: vert.X, Y: vert.Y, Z: vert.Z}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			points = append(points, p)
		}
	}
	return points, nil
}

// Jitter returns a copy of points displaced by uniform noise in
// [-amplitude, amplitude] per axis. The argument slice is not modified.
func Jitter(points []r3.Vec, amplitude float64, seed int64) []r3.Vec {
	rnd := rand.New(rand.NewSource(seed))
	out := make([]r3.Vec, len(points))
	for i, p := range points {
		out[i] = r3.Add(p, r3.Vec{
			X: amplitude * (2*rnd.Float64() - 1),
			Y: amplitude * (2*rnd.Float64() - 1),
			Z: amplitude * (2*rnd.Float64() - 1),
		})
	}
	return out
}
