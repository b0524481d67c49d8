// Package recon reconstructs triangulated surface meshes from
// unorganized 3-D point clouds. Tangent planes fitted over k-nearest
// neighborhoods define a signed distance field which is polygonized by
// the marching tetrahedra extractor in the render package. See the
// surface and render packages for the building blocks; Reconstruct ties
// them into the default pipeline.
package recon

import (
	"io"

	"github.com/recon3d/recon/render"
	"github.com/recon3d/recon/surface"
	"gonum.org/v1/gonum/spatial/r3"
)

// Params configures Reconstruct. The zero value selects the defaults
// documented on each field.
type Params struct {
	// NormalNeighbors is the neighborhood size for tangent plane
	// estimation. Defaults to 10.
	NormalNeighbors int
	// InterpolationNeighbors is the neighborhood size for normal
	// interpolation. Defaults to 10.
	InterpolationNeighbors int
	// DistanceNeighbors is the number of anchor candidates per signed
	// distance query. Defaults to 10.
	DistanceNeighbors int
	// Normals supplies externally computed unit normals, one per point,
	// skipping estimation and interpolation.
	Normals []r3.Vec
	// MeshCells is the grid resolution along the longest bounding box
	// axis. Defaults to 64.
	MeshCells int
	// Workers bounds parallelism for the normal passes and cell
	// extraction. Defaults to runtime.NumCPU() for the normal passes
	// and single threaded extraction.
	Workers int
}

// Reconstruct builds the surface mesh of the point cloud: normals are
// estimated and interpolated, the tangent plane field is sampled over a
// uniform grid and polygonized with welded vertices.
func Reconstruct(points []r3.Vec, p Params) (render.Mesh, error) {
	cloud, err := surface.New(points, surface.Options{
		KNormals:       p.NormalNeighbors,
		KInterpolation: p.InterpolationNeighbors,
		KDistance:      p.DistanceNeighbors,
		Normals:        p.Normals,
		Workers:        p.Workers,
	})
	if err != nil {
		return render.Mesh{}, err
	}
	meshCells := p.MeshCells
	if meshCells <= 0 {
		meshCells = 64
	}
	g := render.NewGridRenderer(cloud, meshCells, p.Workers)
	buf := make([]r3.Triangle, 1024)
	for {
		_, err := g.ReadTriangles(buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return render.Mesh{}, err
		}
	}
	return g.Mesh(), nil
}
