package render

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestTriangulationTableEdges(t *testing.T) {
	maxTris := 0
	for code, row := range tetraTriangles {
		n := 0
		terminated := false
		for _, e := range row {
			if e < 0 {
				terminated = true
				continue
			}
			if terminated {
				t.Errorf("case %d references edge %d after terminator", code, e)
			}
			if e > 5 {
				t.Errorf("case %d references local edge %d outside [0,5]", code, e)
			}
			n++
		}
		if n%3 != 0 {
			t.Errorf("case %d lists %d edges, not a whole number of triangles", code, n)
		}
		if n/3 > maxTris {
			maxTris = n / 3
		}
	}
	if maxTris*6 != maxCellTriangles {
		t.Errorf("mismatch cell triangle bound. got %d per tetrahedron. want %d", maxTris, maxCellTriangles/6)
	}
	if n := len(tetraTriangles[0]); tetraTriangles[0][0] != -1 || tetraTriangles[15][n-1] != -1 {
		t.Error("all-inside and all-outside cases must produce no geometry")
	}
}

func TestCubeDecompositionPartition(t *testing.T) {
	var unit [8]r3.Vec
	for i, off := range cornerOffsets {
		unit[i] = r3.Vec{X: float64(off.x), Y: float64(off.y), Z: float64(off.z)}
	}
	used := make(map[int]bool)
	total := 0.0
	for i, tet := range cubeTetrahedra {
		a := unit[tet[0]]
		e1 := r3.Sub(unit[tet[1]], a)
		e2 := r3.Sub(unit[tet[2]], a)
		e3 := r3.Sub(unit[tet[3]], a)
		vol := math.Abs(r3.Dot(e1, r3.Cross(e2, e3))) / 6
		if vol <= 0 {
			t.Errorf("tetrahedron %d is flat", i)
		}
		total += vol
		for _, c := range tet {
			used[c] = true
		}
	}
	if math.Abs(total-1) > 1e-12 {
		t.Errorf("tetrahedra volumes sum to %g, want unit cube volume 1", total)
	}
	if len(used) != 8 {
		t.Errorf("decomposition touches %d cube corners, want 8", len(used))
	}
}

func TestEdgeIDTableRange(t *testing.T) {
	seen := make(map[int]bool)
	for ti, row := range tetraEdgeIDs {
		for e, id := range row {
			if id < 0 || id > 18 {
				t.Errorf("tetrahedron %d edge %d: global id %d outside [0,18]", ti, e, id)
			}
			seen[id] = true
		}
	}
	if len(seen) != 19 {
		t.Errorf("edge id table covers %d global ids, want 19", len(seen))
	}
}

// Every alias of a global edge must canonicalize to the same key,
// no matter which cell resolves it. This is the adjacency-table
// invariant the weld cache correctness rests on.
func TestEdgeAliasCanonicalization(t *testing.T) {
	cell := ivec{5, 6, 7}
	for e := 0; e < 19; e++ {
		want := canonicalEdge(cell, e)
		for j := 0; j < 3; j++ {
			nb := edgeNeighbors[e][j]
			if nb < 0 {
				continue
			}
			alias := cell.Add(neighborOffset(nb))
			got := canonicalEdge(alias, edgeNeighborSlots[e][j])
			if got != want {
				t.Errorf("edge %d alias %d: canonical key %+v from neighbor, %+v from owner", e, j, got, want)
			}
		}
	}
}

func TestEdgeNeighborReciprocity(t *testing.T) {
	for e := 0; e < 19; e++ {
		for j := 0; j < 3; j++ {
			nb := edgeNeighbors[e][j]
			if nb < 0 {
				continue
			}
			off := neighborOffset(nb)
			ne := edgeNeighborSlots[e][j]
			found := false
			for j2 := 0; j2 < 3; j2++ {
				nb2 := edgeNeighbors[ne][j2]
				if nb2 < 0 {
					continue
				}
				back := neighborOffset(nb2)
				if back.x == -off.x && back.y == -off.y && back.z == -off.z &&
					edgeNeighborSlots[ne][j2] == e {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("edge %d alias (offset %+v, slot %d) has no reciprocal entry", e, off, ne)
			}
		}
	}
}

func TestTetraEdgeCornersMatchTriangulation(t *testing.T) {
	// Every edge listed for a single-corner case must touch that corner.
	single := map[int]int{1: 0, 2: 1, 4: 2, 8: 3}
	for code, corner := range single {
		row := tetraTriangles[code]
		for k := 0; k < 3; k++ {
			e := int(row[k])
			c := tetraEdgeCorners[e]
			if c[0] != corner && c[1] != corner {
				t.Errorf("case %d: edge %d joins corners %v, does not touch corner %d", code, e, c, corner)
			}
		}
	}
}
