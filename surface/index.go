package surface

import (
	"sort"

	"github.com/recon3d/recon/internal/d3"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	_ Index            = (*KDIndex)(nil)
	_ kdtree.Interface = kdPoints{}
	_ kdtree.Bounder   = kdPoints{}
)

// Neighbor is a single result of a k-nearest-neighbor query.
type Neighbor struct {
	// ID is the index of the neighbor in the point set the index was built from.
	ID int
	// Dist2 is the squared euclidean distance from the query location.
	Dist2 float64
}

// Index answers k-nearest-neighbor queries over a fixed point set.
// Results are ordered by ascending distance with ties broken by
// point index so queries are deterministic. Implementations must be
// safe for concurrent queries.
type Index interface {
	Len() int
	Nearest(q r3.Vec, k int) []Neighbor
}

// KDIndex is the default Index implementation backed by a
// gonum spatial/kdtree.
type KDIndex struct {
	tree kdtree.Tree
	n    int
}

// NewKDIndex builds a k-d tree over the argument points.
// The point slice is not retained.
func NewKDIndex(points []r3.Vec) *KDIndex {
	pts := make(kdPoints, len(points))
	for i, p := range points {
		pts[i] = kdPoint{Vec: p, id: i}
	}
	tree := kdtree.New(pts, true)
	return &KDIndex{tree: *tree, n: len(points)}
}

// Len returns the number of indexed points.
func (x *KDIndex) Len() int { return x.n }

// Nearest returns up to k indexed points closest to q.
func (x *KDIndex) Nearest(q r3.Vec, k int) []Neighbor {
	if k <= 0 || x.n == 0 {
		return nil
	}
	if k > x.n {
		k = x.n
	}
	keep := kdtree.NewNKeeper(k)
	x.tree.NearestSet(keep, kdPoint{Vec: q})
	nb := make([]Neighbor, 0, k)
	for _, got := range keep.Heap {
		if got.Comparable == nil {
			continue // unfilled keeper slot.
		}
		p := got.Comparable.(kdPoint)
		nb = append(nb, Neighbor{ID: p.id, Dist2: got.Dist})
	}
	sort.Slice(nb, func(i, j int) bool {
		if nb[i].Dist2 != nb[j].Dist2 {
			return nb[i].Dist2 < nb[j].Dist2
		}
		return nb[i].ID < nb[j].ID
	})
	return nb
}

type kdPoint struct {
	r3.Vec
	id int
}

// Compare returns the signed distance of a from the plane passing through
// b and perpendicular to the dimension d.
func (a kdPoint) Compare(b kdtree.Comparable, d kdtree.Dim) float64 {
	q := b.(kdPoint)
	switch d {
	case 0:
		return a.X - q.X
	case 1:
		return a.Y - q.Y
	}
	return a.Z - q.Z
}

// Dims returns the number of dimensions described in the Comparable.
func (a kdPoint) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between the receiver and
// the parameter.
func (a kdPoint) Distance(b kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(a.Vec, b.(kdPoint).Vec))
}

type kdPoints []kdPoint

func (p kdPoints) Index(i int) kdtree.Comparable { return p[i] }

// Len returns the length of the list.
func (p kdPoints) Len() int { return len(p) }

// Pivot partitions the list based on the dimension specified.
func (p kdPoints) Pivot(d kdtree.Dim) int {
	sl := kdSlice{dim: int(d), points: p}
	return kdtree.Partition(sl, kdtree.MedianOfMedians(sl))
}

// Slice returns a slice of the list using zero-based half
// open indexing equivalent to built-in slice indexing.
func (p kdPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}

func (p kdPoints) Bounds() *kdtree.Bounding {
	if len(p) == 0 {
		return nil
	}
	min := p[0].Vec
	max := p[0].Vec
	for _, q := range p[1:] {
		min = d3.MinElem(min, q.Vec)
		max = d3.MaxElem(max, q.Vec)
	}
	return &kdtree.Bounding{
		Min: kdPoint{Vec: min},
		Max: kdPoint{Vec: max},
	}
}

type kdSlice struct {
	dim    int
	points kdPoints
}

func (s kdSlice) Less(i, j int) bool {
	return s.points[i].Compare(s.points[j], kdtree.Dim(s.dim)) < 0
}
func (s kdSlice) Swap(i, j int) {
	s.points[i], s.points[j] = s.points[j], s.points[i]
}
func (s kdSlice) Len() int {
	return len(s.points)
}
func (s kdSlice) Slice(start, end int) kdtree.SortSlicer {
	s.points = s.points[start:end]
	return s
}
