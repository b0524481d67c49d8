// Package surface manages unorganized point clouds for surface
// reconstruction: it estimates oriented per-point normals from local
// tangent planes and evaluates the signed implicit field those planes
// define. Nearest-neighbor queries go through the Index contract so any
// spatial index can back a Cloud; the default is a gonum k-d tree.
package surface

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/recon3d/recon/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrNoTangentPlane reports that a field query found no valid tangent
// plane among the nearest points, for example because all of them were
// flagged during normal estimation.
var ErrNoTangentPlane = errors.New("surface: no valid tangent plane near query")

// Options configures Cloud construction. The zero value selects the
// defaults documented on each field.
type Options struct {
	// KNormals is the neighborhood size for initial tangent plane
	// estimation. Defaults to 10.
	KNormals int
	// KInterpolation is the neighborhood size for normal interpolation.
	// Defaults to 10.
	KInterpolation int
	// KDistance is the number of anchor candidates consulted per signed
	// distance query. Defaults to 10.
	KDistance int
	// Normals supplies externally computed unit normals, one per point.
	// When set, estimation and interpolation are skipped entirely.
	Normals []r3.Vec
	// Index overrides the default k-d tree neighbor index. It must be
	// built over the same points passed to New.
	Index Index
	// Workers bounds the goroutines used for the estimation and
	// interpolation passes. Defaults to runtime.NumCPU().
	Workers int
}

// Cloud holds an unorganized point set with per-point oriented normals
// and evaluates the signed distance field induced by the local tangent
// planes. Once constructed a Cloud is immutable and safe for concurrent
// queries.
type Cloud struct {
	points   []r3.Vec
	normals  []r3.Vec
	flagged  []bool
	centroid r3.Vec
	bb       d3.Box
	index    Index
	kd       int
}

// New builds a Cloud from points. Unless Options.Normals is supplied it
// runs the two normal passes: per-point tangent plane estimation
// followed, after a full barrier, by neighborhood interpolation.
// Points whose neighborhood defeats the plane fit are flagged and
// excluded from the field rather than failing construction.
func New(points []r3.Vec, opts Options) (*Cloud, error) {
	if len(points) == 0 {
		return nil, errors.New("surface: empty point set")
	}
	kn := defaultK(opts.KNormals)
	ki := defaultK(opts.KInterpolation)
	kd := defaultK(opts.KDistance)
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	index := opts.Index
	if index == nil {
		index = NewKDIndex(points)
	}
	if index.Len() != len(points) {
		return nil, fmt.Errorf("surface: index covers %d points, want %d", index.Len(), len(points))
	}

	c := &Cloud{
		points:  points,
		normals: make([]r3.Vec, len(points)),
		flagged: make([]bool, len(points)),
		bb:      d3.Box{Min: points[0], Max: points[0]},
		index:   index,
		kd:      kd,
	}
	sum := r3.Vec{}
	for _, p := range points {
		sum = r3.Add(sum, p)
		c.bb = c.bb.Include(p)
	}
	c.centroid = r3.Scale(1/float64(len(points)), sum)

	if opts.Normals != nil {
		if len(opts.Normals) != len(points) {
			return nil, fmt.Errorf("surface: got %d normals for %d points", len(opts.Normals), len(points))
		}
		copy(c.normals, opts.Normals)
		return c, nil
	}
	c.estimateNormals(kn, workers)
	c.interpolateNormals(ki, workers)
	return c, nil
}

func defaultK(k int) int {
	if k <= 0 {
		return 10
	}
	return k
}

// Points returns the point array. Callers must not mutate it.
func (c *Cloud) Points() []r3.Vec { return c.points }

// Normals returns the oriented unit normal array, index-aligned with
// Points. Flagged points carry a zero normal.
func (c *Cloud) Normals() []r3.Vec { return c.normals }

// Centroid returns the point set centroid used as orientation reference.
func (c *Cloud) Centroid() r3.Vec { return c.centroid }

// Flagged reports whether point i was excluded during normal estimation.
func (c *Cloud) Flagged(i int) bool { return c.flagged[i] }

// NumFlagged returns the count of points excluded during estimation.
func (c *Cloud) NumFlagged() (n int) {
	for _, f := range c.flagged {
		if f {
			n++
		}
	}
	return n
}

// estimateNormals computes the initial tangent plane normal of every
// point. Each worker writes only its own normal slots; the point array
// and index are read-only, so no synchronization is needed beyond the
// final barrier.
func (c *Cloud) estimateNormals(kn, workers int) {
	c.parallel(workers, func(start, end int) {
		nb := make([]r3.Vec, 0, kn)
		for i := start; i < end; i++ {
			nb = nb[:0]
			// kn+1 since the query point is its own nearest neighbor.
			for _, got := range c.index.Nearest(c.points[i], kn+1) {
				if got.ID == i {
					continue
				}
				nb = append(nb, c.points[got.ID])
			}
			if len(nb) > kn {
				// Duplicate points can displace the self match, leaving
				// one neighbor too many.
				nb = nb[:kn]
			}
			plane, err := fitPlane(c.points[i], nb)
			if err != nil {
				// Recoverable: exclude the point, keep going.
				c.flagged[i] = true
				c.normals[i] = r3.Vec{}
				continue
			}
			c.normals[i] = c.orient(plane.Normal, c.points[i])
		}
	})
}

// orientEps bounds the cosine below which the centroid direction is
// considered tangent to the fitted plane and thus useless as an
// orientation reference.
const orientEps = 1e-9

// orient resolves the sign ambiguity of a fitted normal so it points
// away from the bulk of the data: flipped when facing the centroid.
// When the centroid lies on the fitted plane (flat datasets) the sign
// of the normal's largest magnitude component decides, which keeps the
// convention deterministic and consistent across neighboring points.
func (c *Cloud) orient(n, p r3.Vec) r3.Vec {
	outward := r3.Sub(p, c.centroid)
	d := r3.Dot(n, outward)
	if math.Abs(d) > orientEps*r3.Norm(outward) {
		if d < 0 {
			return r3.Scale(-1, n)
		}
		return n
	}
	abs := d3.AbsElem(n)
	var lead float64
	switch d3.Max(abs) {
	case abs.X:
		lead = n.X
	case abs.Y:
		lead = n.Y
	default:
		lead = n.Z
	}
	if lead < 0 {
		return r3.Scale(-1, n)
	}
	return n
}

// interpolateNormals consolidates every normal as the normalized mean
// of its KInterpolation neighbors' estimated normals, smoothing noise
// and propagating orientation consistency. It reads a snapshot of the
// fully estimated field and writes into a fresh array, making the pass
// a pure function of the current normal field.
func (c *Cloud) interpolateNormals(ki, workers int) {
	out := make([]r3.Vec, len(c.normals))
	c.parallel(workers, func(start, end int) {
		for i := start; i < end; i++ {
			if c.flagged[i] {
				continue
			}
			sum := r3.Vec{}
			for _, got := range c.index.Nearest(c.points[i], ki) {
				if c.flagged[got.ID] {
					continue
				}
				sum = r3.Add(sum, c.normals[got.ID])
			}
			if r3.Norm(sum) == 0 {
				out[i] = c.normals[i]
				continue
			}
			out[i] = r3.Unit(sum)
		}
	})
	c.normals = out
}

// parallel runs fn over [0, len(points)) split into contiguous chunks
// across at most workers goroutines and waits for all of them.
func (c *Cloud) parallel(workers int, fn func(start, end int)) {
	n := len(c.points)
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}

// Distance returns the signed distance of v from the nearest tangent
// plane along its normal, and the euclidean distance from v to that
// plane's anchor point. The euclidean distance is a quality metric only
// and takes no part in inside/outside classification. Flagged points
// never anchor a plane; the query falls through to the next nearest
// candidate and fails with ErrNoTangentPlane when none remains.
func (c *Cloud) Distance(v r3.Vec) (projected, euclidean float64, err error) {
	for _, got := range c.index.Nearest(v, c.kd) {
		if c.flagged[got.ID] {
			continue
		}
		diff := r3.Sub(v, c.points[got.ID])
		return r3.Dot(diff, c.normals[got.ID]), r3.Norm(diff), nil
	}
	return 0, 0, fmt.Errorf("%w: %v", ErrNoTangentPlane, v)
}

// Evaluate returns the projected signed distance of v, satisfying the
// scalar field contract consumed by the render package. Queries with no
// valid tangent plane in reach evaluate to +Inf, i.e. outside.
func (c *Cloud) Evaluate(v r3.Vec) float64 {
	projected, _, err := c.Distance(v)
	if err != nil {
		return math.Inf(1)
	}
	return projected
}

// Bounds returns the bounding box of the point set.
func (c *Cloud) Bounds() r3.Box {
	return r3.Box(c.bb)
}
