package render

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is an indexed triangle mesh: Triangles holds triples of indices
// into Vertices. Because extraction welds shared intersection edges,
// triangles meeting along a physical edge reference the same vertex
// indices and the surface is free of cracks.
type Mesh struct {
	Vertices  []r3.Vec
	Triangles [][3]int
}

// Triangles3 expands the indexed mesh into a flat triangle slice.
func (m Mesh) Triangles3() []r3.Triangle {
	out := make([]r3.Triangle, len(m.Triangles))
	for i, t := range m.Triangles {
		out[i] = r3.Triangle{m.Vertices[t[0]], m.Vertices[t[1]], m.Vertices[t[2]]}
	}
	return out
}
