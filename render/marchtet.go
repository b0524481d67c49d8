package render

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidCaseCode reports a tetrahedron sign code or local edge id
// outside its documented range. This is a fatal contract violation:
// the sign classification input was malformed and the error must not
// be swallowed.
var ErrInvalidCaseCode = errors.New("render: invalid marching tetrahedra case code")

// caseCode builds the 4-bit sign code of a tetrahedron, bit i set when
// corner i evaluates outside the surface.
func caseCode(val [4]float64) int {
	code := 0
	for i, v := range val {
		if v > 0 {
			code |= 1 << i
		}
	}
	return code
}

// interpolateCrossing returns the zero crossing on the segment p0-p1
// whose endpoints evaluate to v0 and v1, at parametric position
// t = v0/(v0-v1).
func interpolateCrossing(p0, p1 r3.Vec, v0, v1 float64) r3.Vec {
	t := v0 / (v0 - v1)
	return r3.Add(p0, r3.Scale(t, r3.Sub(p1, p0)))
}

// marchCell extracts the surface of one grid cell: every tetrahedron of
// the cube decomposition is classified against the corner field values
// and triangulated by table lookup. Crossing vertices are resolved
// through the weld cache so that edges shared with other tetrahedra or
// neighboring cells reuse the identical vertex handle. Extracted index
// triples are appended to tris.
func marchCell(cell ivec, corner *[8]r3.Vec, val *[8]float64, w *weldCache, tris [][3]int) ([][3]int, error) {
	for t := 0; t < 6; t++ {
		tet := cubeTetrahedra[t]
		code := caseCode([4]float64{val[tet[0]], val[tet[1]], val[tet[2]], val[tet[3]]})
		if code < 0 || code > 15 {
			return tris, fmt.Errorf("%w: tetrahedron %d code %d", ErrInvalidCaseCode, t, code)
		}
		row := &tetraTriangles[code]
		for k := 0; k+2 < len(row) && row[k] >= 0; k += 3 {
			var handles [3]int
			for v := 0; v < 3; v++ {
				e := int(row[k+v])
				if e < 0 || e > 5 {
					return tris, fmt.Errorf("%w: tetrahedron %d local edge %d", ErrInvalidCaseCode, t, e)
				}
				c0 := tet[tetraEdgeCorners[e][0]]
				c1 := tet[tetraEdgeCorners[e][1]]
				key := canonicalEdge(cell, tetraEdgeIDs[t][e])
				handles[v] = w.getOrCreate(key, func() r3.Vec {
					return interpolateCrossing(corner[c0], corner[c1], val[c0], val[c1])
				})
			}
			tris = append(tris, handles)
		}
	}
	return tris, nil
}
