package renderer

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/model3d/render3d"
	"github.com/unixpickle/nerf-dataset/camera"
	"gonum.org/v1/gonum/mat"
)

const cubeOBJ = `# unit cube
mtllib cube.mtl
v -1 -1 -1
v 1 -1 -1
v 1 1 -1
v -1 1 -1
v -1 -1 1
v 1 -1 1
v 1 1 1
v -1 1 1
usemtl red
f 1 4 3 2
f 5 6 7 8
f 1 2 6 5
f 4 8 7 3
f 1 5 8 4
f 2/1 3/2 7/3 6/4
`

const cubeMTL = `newmtl red
Ns 10
Ka 0 0 0
Kd 1.0 0.0 0.0
`

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestReadMesh(t *testing.T) {
	dir := t.TempDir()
	// Offset and scale the cube so that normalization matters.
	shifted := "v 3 3 3\nv 7 3 3\nv 7 5 3\nv 3 5 3\nf 1 2 3 4\nf -1 -2 -3\n"
	mesh, err := ReadMesh(writeFile(t, dir, "shifted.obj", shifted))
	require.NoError(t, err)
	assert.Len(t, mesh.TriangleSlice(), 3)
	assert.InDelta(t, 1, mesh.Max().X, 1e-9)
	assert.InDelta(t, -1, mesh.Min().X, 1e-9)
	assert.InDelta(t, 0.5, mesh.Max().Y, 1e-9)
	assert.InDelta(t, 0, mesh.Max().Z, 1e-9)

	mesh, err = ReadMesh(writeFile(t, dir, "cube.obj", cubeOBJ))
	require.NoError(t, err)
	assert.Len(t, mesh.TriangleSlice(), 12)
}

func TestReadMeshErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadMesh(filepath.Join(dir, "missing.obj"))
	assert.ErrorIs(t, err, ErrMissingResource)

	_, err = ReadMesh(writeFile(t, dir, "empty.obj", "# nothing here\nv 1 2 3\n"))
	assert.ErrorIs(t, err, ErrMissingResource)

	for _, name := range []string{"empty.stl", "blank.obj"} {
		_, err = ReadMesh(writeFile(t, dir, name, ""))
		assert.ErrorIs(t, err, ErrMissingResource, name)
	}

	_, err = ReadMesh(writeFile(t, dir, "point.obj", "v 1 1 1\nf 1 1 1\n"))
	assert.ErrorIs(t, err, ErrNumericDegeneracy)

	_, err = ReadMesh(writeFile(t, dir, "bad.obj", "v 1 1 1\nf 1 2 3\n"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingResource)

	_, err = ReadMesh(writeFile(t, dir, "model.ply", "ply\n"))
	assert.Error(t, err)
}

func TestReadDiffuse(t *testing.T) {
	dir := t.TempDir()
	def := render3d.NewColor(0.3)

	c, err := ReadDiffuse(writeFile(t, dir, "cube.mtl", cubeMTL), def)
	require.NoError(t, err)
	assert.Equal(t, render3d.NewColorRGB(1, 0, 0), c)

	c, err = ReadDiffuse(writeFile(t, dir, "plain.mtl", "newmtl x\nNs 1\n"), def)
	require.NoError(t, err)
	assert.Equal(t, def, c)

	_, err = ReadDiffuse(filepath.Join(dir, "missing.mtl"), def)
	assert.ErrorIs(t, err, ErrMissingResource)
}

func testRig(size int) *camera.Rig {
	return &camera.Rig{
		Distance:    6,
		FieldOfView: 53.962828459664856,
		Near:        0.1,
		Far:         100,
		ImageSize:   size,
	}
}

func TestRayCasterRender(t *testing.T) {
	dir := t.TempDir()
	objPath := writeFile(t, dir, "cube.obj", cubeOBJ)
	mtlPath := writeFile(t, dir, "cube.mtl", cubeMTL)

	rc := NewRayCaster(32)
	require.NoError(t, rc.SetUpObject(objPath, mtlPath))

	rig := testRig(32)
	background := render3d.NewColor(0.5)
	sampler := &camera.RandomAngles{Rand: rand.New(rand.NewSource(1))}
	for i := 0; i < 3; i++ {
		shot := rig.Shoot(sampler.Sample())
		img, err := rc.Render(shot.Frame(), background)
		require.NoError(t, err)
		require.Equal(t, 32, img.Width)
		require.Equal(t, 32, img.Height)

		centre := img.Data[16*32+16]
		assert.NotEqual(t, background, centre)
		assert.Greater(t, centre.X, 0.0)
		assert.Zero(t, centre.Y)
		assert.Zero(t, centre.Z)
		for _, idx := range []int{0, 31, 31 * 32, 32*32 - 1} {
			assert.Equal(t, background, img.Data[idx])
		}
	}

	rc.ReleaseObject()
	_, err := rc.Render(rig.Shoot(camera.Angles{}).Frame(), background)
	assert.Error(t, err)
}

func TestRayCasterLinearShading(t *testing.T) {
	dir := t.TempDir()
	objPath := writeFile(t, dir, "cube.obj", cubeOBJ)

	rc := NewRayCaster(9)
	rc.DefaultColor = render3d.NewColor(0.5)
	rc.Ambient = 1
	rc.Diffuse = 0
	require.NoError(t, rc.SetUpObject(objPath, ""))

	img, err := rc.Render(testRig(9).Shoot(camera.Angles{}).Frame(), render3d.NewColor(0))
	require.NoError(t, err)
	assertCoordsClose(t, render3d.NewColor(0.5), img.Data[4*9+4])

	rc.Ambient = 4
	img, err = rc.Render(testRig(9).Shoot(camera.Angles{}).Frame(), render3d.NewColor(0))
	require.NoError(t, err)
	assertCoordsClose(t, render3d.NewColor(1), img.Data[4*9+4])
}

func TestRayCasterSetUpFailure(t *testing.T) {
	dir := t.TempDir()
	objPath := writeFile(t, dir, "cube.obj", cubeOBJ)

	rc := NewRayCaster(8)
	require.NoError(t, rc.SetUpObject(objPath, ""))

	err := rc.SetUpObject(filepath.Join(dir, "missing.obj"), "")
	assert.ErrorIs(t, err, ErrMissingResource)
	_, err = rc.Render(testRig(8).Shoot(camera.Angles{}).Frame(), render3d.NewColor(0))
	assert.Error(t, err, "failed setup must not keep the previous object")

	err = rc.SetUpObject(objPath, filepath.Join(dir, "missing.mtl"))
	assert.ErrorIs(t, err, ErrMissingResource)
}

func TestRenderRaysMatchPoses(t *testing.T) {
	// The renderer only sees the view-projection, while datasets
	// store poses. Both must describe the same rays.
	const size = 16
	rig := testRig(size)
	focal, err := rig.Focal()
	require.NoError(t, err)
	sampler := &camera.RandomAngles{Rand: rand.New(rand.NewSource(2)), InPlane: true}
	for i := 0; i < 10; i++ {
		shot := rig.Shoot(sampler.Sample())
		var inv mat.Dense
		require.NoError(t, inv.Inverse(shot.ViewProjection))
		for _, px := range [][2]int{{0, 0}, {3, 11}, {15, 15}, {8, 8}} {
			ndcX := 2*(float64(px[0])+0.5)/size - 1
			ndcY := 1 - 2*(float64(px[1])+0.5)/size
			rendered := unproject(&inv, ndcX, ndcY).Sub(shot.Eye).Normalize()
			expected := camera.PixelRay(shot.Pose, focal, size, size,
				float64(px[0])+0.5, float64(px[1])+0.5).Direction.Normalize()
			assertCoordsClose(t, expected, rendered)
		}
	}
}

func assertCoordsClose(t *testing.T, expected, actual model3d.Coord3D) {
	t.Helper()
	assert.InDelta(t, expected.X, actual.X, 1e-6)
	assert.InDelta(t, expected.Y, actual.Y, 1e-6)
	assert.InDelta(t, expected.Z, actual.Z, 1e-6)
}
