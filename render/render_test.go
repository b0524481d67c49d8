package render_test

import (
	"os"
	"runtime/pprof"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	sdfxrender "github.com/deadsy/sdfx/render"
	"github.com/recon3d/recon/render"
)

const (
	benchQuality = 100
)

func BenchmarkSDFXSphere(b *testing.B) {
	stdout := os.Stdout
	defer func() {
		os.Stdout = stdout // pesky sdfx prints out stuff
	}()
	os.Stdout, _ = os.Open(os.DevNull)
	const output = "sdfx_sphere.stl"
	object, _ := sdf.Sphere3D(1)
	for i := 0; i < b.N; i++ {
		sdfxrender.ToSTL(object, benchQuality, output, &sdfxrender.MarchingCubesOctree{})
	}
	os.Remove(output)
}

func BenchmarkSphere(b *testing.B) {
	const output = "our_sphere.stl"
	for i := 0; i < b.N; i++ {
		render.CreateSTL(output, render.NewGridRenderer(sphereField{r: 1}, benchQuality, 1))
	}
	os.Remove(output)
}

func BenchmarkSphereConcurrent(b *testing.B) {
	const output = "our_sphere_mt.stl"
	for i := 0; i < b.N; i++ {
		render.CreateSTL(output, render.NewGridRenderer(sphereField{r: 1}, benchQuality, 4))
	}
	os.Remove(output)
}

func testStressProfile(t *testing.T) {
	const stlName = "stress.stl"
	startProf(t, "stress.prof")
	err := render.CreateSTL(stlName, render.NewGridRenderer(sphereField{r: 1}, 400, 4))
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(stlName)
	pprof.StopCPUProfile()
}

func startProf(t testing.TB, name string) {
	fp, err := os.Create(name)
	if err != nil {
		t.Fatal(err)
	}
	err = pprof.StartCPUProfile(fp)
	if err != nil {
		t.Fatal(err)
	}
}
