package render

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// ivec is an integer cell coordinate.
type ivec struct {
	x, y, z int
}

func (a ivec) Add(b ivec) ivec { return ivec{a.x + b.x, a.y + b.y, a.z + b.z} }

// edgeKey identifies a physical intersection edge: the global edge id
// scoped to the cell that owns it.
type edgeKey struct {
	cell ivec
	edge int
}

func (a edgeKey) less(b edgeKey) bool {
	if a.cell.z != b.cell.z {
		return a.cell.z < b.cell.z
	}
	if a.cell.y != b.cell.y {
		return a.cell.y < b.cell.y
	}
	if a.cell.x != b.cell.x {
		return a.cell.x < b.cell.x
	}
	return a.edge < b.edge
}

// canonicalEdge resolves (cell, global edge id) to the single key all
// aliases of the same physical edge agree on: the least key over the
// neighbor cells listed in the adjacency tables. A cube edge has 3
// aliases, a face diagonal 1, the body diagonal none.
func canonicalEdge(cell ivec, edge int) edgeKey {
	best := edgeKey{cell: cell, edge: edge}
	for j := 0; j < 3; j++ {
		nb := edgeNeighbors[edge][j]
		if nb < 0 {
			break
		}
		alias := edgeKey{
			cell: cell.Add(neighborOffset(nb)),
			edge: edgeNeighborSlots[edge][j],
		}
		if alias.less(best) {
			best = alias
		}
	}
	return best
}

// weldCache materializes at most one vertex per physical intersection
// edge. Vertices live in an arena addressed by stable integer handles;
// a key to handle map guards creation. Concurrent cell workers race on
// getOrCreate, so the map and arena share one mutex: losers of the race
// observe the winner's handle instead of creating a duplicate. This is
// what keeps the extracted mesh free of cracks along shared edges.
type weldCache struct {
	mu     sync.Mutex
	lookup map[edgeKey]int
	verts  []r3.Vec
}

func newWeldCache() *weldCache {
	return &weldCache{lookup: make(map[edgeKey]int)}
}

// getOrCreate returns the vertex handle for key, calling at to compute
// the position only on first touch.
func (w *weldCache) getOrCreate(key edgeKey, at func() r3.Vec) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if h, ok := w.lookup[key]; ok {
		return h
	}
	h := len(w.verts)
	w.verts = append(w.verts, at())
	w.lookup[key] = h
	return h
}

// at returns the position of a welded vertex by handle.
func (w *weldCache) at(h int) r3.Vec {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.verts[h]
}

// len returns the number of welded vertices created so far.
func (w *weldCache) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.verts)
}

// vertices returns the arena. Callers must not mutate it and must not
// call it while extraction workers are running.
func (w *weldCache) vertices() []r3.Vec {
	return w.verts
}
