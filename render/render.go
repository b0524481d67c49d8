// Package render extracts triangulated isosurfaces from scalar fields
// using table-driven marching tetrahedra with vertex welding, and reads
// and writes the binary STL encoding of the result.
package render

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Field3 is the scalar field sampled during extraction: negative inside
// the surface, positive outside, zero on it. Evaluate must be
// deterministic and safe for concurrent calls.
type Field3 interface {
	Evaluate(v r3.Vec) float64
	Bounds() r3.Box
}

// Renderer streams the triangles of an extracted surface.
type Renderer interface {
	ReadTriangles(t []r3.Triangle) (int, error)
}
