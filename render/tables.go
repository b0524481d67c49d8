package render

// Marching tetrahedra lookup tables. Each grid cell is decomposed into
// 6 tetrahedra that exactly partition the cube volume; triangle
// extraction is dispatched per tetrahedron on a 4-bit corner sign code.
// The tables are fixed data: any index outside the documented ranges is
// a contract violation and fails loudly rather than being clamped.
//
// Cube corners are numbered
//
//	   7-------6
//	  /|      /|     z
//	 4-------5 |     | y
//	 | 3-----|-2     |/
//	 |/      |/      +--x
//	 0-------1
//
// i.e. 0:(0,0,0) 1:(1,0,0) 2:(1,1,0) 3:(0,1,0) 4:(0,0,1) 5:(1,0,1)
// 6:(1,1,1) 7:(0,1,1).

// maxCellTriangles is the most triangles a single cell can emit:
// 6 tetrahedra times at most 2 triangles each.
const maxCellTriangles = 12

// cubeTetrahedra partitions the 8 cube corners into 6 tetrahedra.
// Adjacent tetrahedra share faces only; their volumes sum to the cube.
var cubeTetrahedra = [6][4]int{
	{0, 1, 3, 4}, // 0
	{3, 1, 2, 4}, // 1
	{4, 2, 3, 7}, // 2
	{1, 5, 2, 4}, // 3
	{4, 5, 2, 7}, // 4
	{2, 5, 6, 7}, // 5
}

// tetraEdgeCorners gives the two tetrahedron corners (0-3) joined by
// each local edge id (0-5).
var tetraEdgeCorners = [6][2]int{
	{0, 1}, // 0
	{1, 3}, // 1
	{0, 3}, // 2
	{0, 2}, // 3
	{1, 2}, // 4
	{2, 3}, // 5
}

// tetraTriangles maps the 4-bit corner sign code of a tetrahedron to
// its triangulation: local edge ids grouped in threes, -1 terminated.
// Cases 0 and 15 produce no geometry.
var tetraTriangles = [16][7]int8{
	{-1, -1, -1, -1, -1, -1, -1}, // 0
	{0, 3, 2, -1, -1, -1, -1},    // 1
	{0, 1, 4, -1, -1, -1, -1},    // 2
	{2, 1, 3, 3, 1, 4, -1},       // 3
	{3, 4, 5, -1, -1, -1, -1},    // 4
	{2, 0, 5, 5, 0, 4, -1},       // 5
	{3, 0, 1, 3, 1, 5, -1},       // 6
	{2, 1, 5, -1, -1, -1, -1},    // 7
	{2, 5, 1, -1, -1, -1, -1},    // 8
	{3, 1, 0, 3, 5, 1, -1},       // 9
	{2, 5, 0, 5, 4, 0, -1},       // 10
	{3, 5, 4, -1, -1, -1, -1},    // 11
	{2, 3, 1, 3, 4, 1, -1},       // 12
	{0, 4, 1, -1, -1, -1, -1},    // 13
	{0, 2, 3, -1, -1, -1, -1},    // 14
	{-1, -1, -1, -1, -1, -1, -1}, // 15
}

// tetraEdgeIDs maps a (tetrahedron, local edge) pair to the global
// intersection edge id (0-18) identifying the physical cube edge,
// face diagonal or body diagonal the crossing vertex lies on. The same
// physical edge reached from any tetrahedron resolves to the same id,
// which is what lets the weld cache create exactly one vertex for it.
var tetraEdgeIDs = [6][6]int{
	{0, 12, 8, 3, 16, 14},  // 0
	{16, 12, 14, 2, 1, 18}, // 1
	{18, 13, 7, 14, 2, 10}, // 2
	{9, 4, 12, 1, 15, 18},  // 3
	{4, 17, 7, 18, 15, 13}, // 4
	{15, 17, 13, 11, 5, 6}, // 5
}

// edgeNeighbors lists, per global edge id, up to 3 neighbor cells that
// share the same physical edge. Entries encode the neighbor offset in a
// 3x3x3 block as 9*(dx+1) + 3*(dy+1) + (dz+1); -1 means no further
// alias. Global ids 0-11 are cube edges shared by 4 cells, 12-17 are
// face diagonals shared by 2 cells, 18 is the body diagonal.
var edgeNeighbors = [19][3]int{
	{12, 10, 9},  // 0
	{22, 12, 21}, // 1
	{16, 12, 15}, // 2
	{4, 3, 12},   // 3
	{14, 10, 11}, // 4
	{23, 22, 14}, // 5
	{14, 16, 17}, // 6
	{4, 5, 14},   // 7
	{4, 1, 10},   // 8
	{22, 19, 10}, // 9
	{4, 7, 16},   // 10
	{22, 25, 16}, // 11
	{10, -1, -1}, // 12
	{16, -1, -1}, // 13
	{4, -1, -1},  // 14
	{22, -1, -1}, // 15
	{12, -1, -1}, // 16
	{14, -1, -1}, // 17
	{-1, -1, -1}, // 18
}

// edgeNeighborSlots gives, column-aligned with edgeNeighbors, the
// global edge id under which the neighbor cell knows the same physical
// edge.
var edgeNeighborSlots = [19][3]int{
	{4, 2, 6},    // 0
	{3, 5, 7},    // 1
	{0, 6, 4},    // 2
	{1, 5, 7},    // 3
	{0, 6, 2},    // 4
	{3, 7, 1},    // 5
	{2, 4, 0},    // 6
	{5, 1, 3},    // 7
	{9, 11, 10},  // 8
	{8, 10, 11},  // 9
	{11, 9, 8},   // 10
	{10, 8, 9},   // 11
	{13, -1, -1}, // 12
	{12, -1, -1}, // 13
	{15, -1, -1}, // 14
	{14, -1, -1}, // 15
	{17, -1, -1}, // 16
	{16, -1, -1}, // 17
	{-1, -1, -1}, // 18
}

// cornerOffsets positions the 8 cube corners of a cell relative to its
// integer grid coordinate, in table corner order.
var cornerOffsets = [8]ivec{
	{0, 0, 0}, // 0
	{1, 0, 0}, // 1
	{1, 1, 0}, // 2
	{0, 1, 0}, // 3
	{0, 0, 1}, // 4
	{1, 0, 1}, // 5
	{1, 1, 1}, // 6
	{0, 1, 1}, // 7
}

// neighborOffset decodes an edgeNeighbors entry into a cell offset.
func neighborOffset(code int) ivec {
	return ivec{code/9 - 1, (code / 3 % 3) - 1, code%3 - 1}
}
