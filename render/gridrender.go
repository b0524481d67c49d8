package render

import (
	"io"
	"math"
	"sync"

	"github.com/recon3d/recon/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// grid renders a Field3 with marching tetrahedra over a uniform grid.
type grid struct {
	fc   fieldCache
	weld *weldCache
	// cells left to visit, in grid order.
	todo []ivec
	// extracted triangles as welded vertex handle triples.
	tris      [][3]int
	unwritten triangleBuffer
	// concurrent goroutine processing.
	concurrent int
}

// NewGridRenderer returns a marching tetrahedra renderer sampling s on
// a uniform grid with at most meshCells cells along the longest
// bounding box axis. concurrent > 1 extracts that many cells in
// parallel; cell workers share only the weld cache, whose get-or-create
// is atomic per key.
func NewGridRenderer(s Field3, meshCells, concurrent int) *grid {
	if meshCells < 2 {
		panic("meshCells must be 2 or larger")
	}
	// Scale the bounding box about the center to make sure the boundaries
	// aren't on the object surface.
	bb := d3.Box(s.Bounds()).ScaleAboutCenter(1.01)
	resolution := d3.Max(bb.Size()) / float64(meshCells)
	size := bb.Size()
	div := ivec{
		x: int(math.Ceil(size.X / resolution)),
		y: int(math.Ceil(size.Y / resolution)),
		z: int(math.Ceil(size.Z / resolution)),
	}
	cells := make([]ivec, 0, div.x*div.y*div.z)
	for z := 0; z < div.z; z++ {
		for y := 0; y < div.y; y++ {
			for x := 0; x < div.x; x++ {
				cells = append(cells, ivec{x, y, z})
			}
		}
	}
	return &grid{
		fc:         *newFieldCache(s, bb.Min, resolution),
		weld:       newWeldCache(),
		todo:       cells,
		unwritten:  triangleBuffer{buf: make([]r3.Triangle, 0, 1024)},
		concurrent: concurrent,
	}
}

// ReadTriangles writes triangles extracted from the field into the
// argument buffer. Returns the number of triangles written and io.EOF
// once the grid is exhausted.
func (g *grid) ReadTriangles(dst []r3.Triangle) (n int, err error) {
	if len(dst) == 0 {
		panic("cannot write to empty triangle slice")
	}
	if g.unwritten.Len() > 0 {
		n += g.unwritten.Read(dst[n:])
		if n == len(dst) {
			return n, nil
		}
	}
	if len(g.todo) == 0 && g.unwritten.Len() == 0 {
		// Done rendering model.
		return n, io.EOF
	}
	var nt int
	if g.concurrent <= 1 {
		nt, err = g.readTriangles(dst[n:])
	} else {
		nt, err = g.readTrianglesConcurrent(dst[n:])
	}
	n += nt
	return n, err
}

// Mesh returns the indexed mesh extracted so far: the welded vertex
// arena plus vertex handle triples. Call it after ReadTriangles has
// returned io.EOF for the complete surface.
func (g *grid) Mesh() Mesh {
	return Mesh{Vertices: g.weld.vertices(), Triangles: g.tris}
}

// readTriangles is the single threaded implementation of ReadTriangles.
func (g *grid) readTriangles(dst []r3.Triangle) (n int, err error) {
	cellsProcessed := 0
	for _, cell := range g.todo {
		if n == len(dst) {
			// Finished writing all the buffer.
			break
		}
		if n+maxCellTriangles > len(dst) {
			// Not enough room in buffer for every triangle this cell could emit.
			tmp := make([]r3.Triangle, maxCellTriangles)
			nt, tris, err := g.processCell(tmp, cell)
			if err != nil {
				return n, err
			}
			g.tris = append(g.tris, tris...)
			g.unwritten.Write(tmp[:nt])
			cellsProcessed++
			break
		}
		nt, tris, err := g.processCell(dst[n:], cell)
		if err != nil {
			return n, err
		}
		g.tris = append(g.tris, tris...)
		cellsProcessed++
		n += nt
	}
	g.todo = g.todo[cellsProcessed:]
	return n, nil
}

// readTrianglesConcurrent fans cell extraction out over g.concurrent
// workers per batch. Workers share the field cache and the weld cache,
// both locked internally; triangle accumulation stays per worker and is
// merged after the batch barrier.
func (g *grid) readTrianglesConcurrent(dst []r3.Triangle) (n int, err error) {
	type result struct {
		nt   int
		tris [][3]int
		err  error
	}
	for n < len(dst) && len(g.todo) > 0 {
		if n+maxCellTriangles > len(dst) {
			if n == 0 {
				// Buffer smaller than a cell's worst case; take the
				// single threaded spill path so progress is made.
				return g.readTriangles(dst)
			}
			// No room for a full cell; leave the rest for the next call.
			break
		}
		batch := g.concurrent
		if batch > len(g.todo) {
			batch = len(g.todo)
		}
		if room := (len(dst) - n) / maxCellTriangles; batch > room {
			batch = room
		}
		results := make([]result, batch)
		var wg sync.WaitGroup
		for w := 0; w < batch; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				slot := dst[n+w*maxCellTriangles : n+(w+1)*maxCellTriangles]
				nt, tris, err := g.processCell(slot, g.todo[w])
				results[w] = result{nt: nt, tris: tris, err: err}
			}(w)
		}
		wg.Wait()
		// Compact worker output so dst has no gaps.
		compacted := n
		for w := 0; w < batch; w++ {
			if results[w].err != nil {
				return n, results[w].err
			}
			start := n + w*maxCellTriangles
			copy(dst[compacted:], dst[start:start+results[w].nt])
			compacted += results[w].nt
			g.tris = append(g.tris, results[w].tris...)
		}
		n = compacted
		g.todo = g.todo[batch:]
	}
	return n, nil
}

// processCell evaluates the 8 corners of one cell and extracts its
// triangles. Written triangles go to dst; the welded index triples are
// returned for the caller to merge.
func (g *grid) processCell(dst []r3.Triangle, cell ivec) (n int, tris [][3]int, err error) {
	var corner [8]r3.Vec
	var val [8]float64
	inside, outside := false, false
	for i, off := range cornerOffsets {
		corner[i], val[i] = g.fc.Evaluate(cell.Add(off))
		if math.IsInf(val[i], 0) || math.IsNaN(val[i]) {
			// Field undefined at this corner. Crossing interpolation
			// needs two finite endpoint values, so the cell extracts
			// no geometry.
			return 0, nil, nil
		}
		if val[i] > 0 {
			outside = true
		} else {
			inside = true
		}
	}
	if !inside || !outside {
		// Cell does not straddle the surface.
		return 0, nil, nil
	}
	tris, err = marchCell(cell, &corner, &val, g.weld, nil)
	if err != nil {
		return 0, nil, err
	}
	for _, t := range tris {
		dst[n] = r3.Triangle{g.weld.at(t[0]), g.weld.at(t[1]), g.weld.at(t[2])}
		n++
	}
	return n, tris, nil
}

// fieldCache memoizes field evaluations at grid corner coordinates.
// Every interior corner is shared by 8 cells, so caching roughly
// halves evaluation counts on top of making concurrent cell workers
// observe a consistent field.
type fieldCache struct {
	mu         sync.Mutex // lock the cache during reads/writes.
	cache      map[ivec]float64
	origin     r3.Vec // minimum corner of the sampled bounding box.
	resolution float64
	s          Field3
}

func newFieldCache(s Field3, origin r3.Vec, resolution float64) *fieldCache {
	return &fieldCache{
		cache:      make(map[ivec]float64),
		origin:     origin,
		resolution: resolution,
		s:          s,
	}
}

// Evaluate returns the position and field value of a grid corner.
func (fc *fieldCache) Evaluate(vi ivec) (r3.Vec, float64) {
	v := r3.Add(fc.origin, r3.Scale(fc.resolution, r3.Vec{
		X: float64(vi.x), Y: float64(vi.y), Z: float64(vi.z),
	}))
	dist, found := fc.read(vi)
	if found {
		return v, dist
	}
	dist = fc.s.Evaluate(v)
	fc.write(vi, dist)
	return v, dist
}

// read from the cache.
func (fc *fieldCache) read(vi ivec) (float64, bool) {
	fc.mu.Lock()
	dist, found := fc.cache[vi]
	fc.mu.Unlock()
	return dist, found
}

// write to the cache.
func (fc *fieldCache) write(vi ivec, dist float64) {
	fc.mu.Lock()
	fc.cache[vi] = dist
	fc.mu.Unlock()
}
