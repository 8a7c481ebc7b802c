package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeNetObjects(t *testing.T) {
	dir := t.TempDir()
	for _, id := range []string{"zz9", "1a0b", "5c2"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, id, "models"), 0755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "taxonomy.json"), []byte("{}"), 0644))

	objs, err := ShapeNetObjects(dir)
	require.NoError(t, err)
	require.Len(t, objs, 3)
	assert.Equal(t, "1a0b", objs[0].ID)
	assert.Equal(t, "5c2", objs[1].ID)
	assert.Equal(t, "zz9", objs[2].ID)
	assert.Equal(t, filepath.Join(dir, "5c2", "models", "model_normalized.obj"), objs[1].GeometryPath)
	assert.Equal(t, filepath.Join(dir, "5c2", "models", "model_normalized.mtl"), objs[1].MaterialPath)

	_, err = ShapeNetObjects(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestMeshObjects(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"teapot.stl", "car.obj", "car.mtl", "plane.OBJ", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.obj"), 0755))

	objs, err := MeshObjects(dir)
	require.NoError(t, err)
	require.Len(t, objs, 3)
	assert.Equal(t, &Object{
		ID:           "car",
		GeometryPath: filepath.Join(dir, "car.obj"),
		MaterialPath: filepath.Join(dir, "car.mtl"),
	}, objs[0])
	assert.Equal(t, "plane", objs[1].ID)
	assert.Empty(t, objs[1].MaterialPath)
	assert.Equal(t, "teapot", objs[2].ID)
	assert.Empty(t, objs[2].MaterialPath)
}

func TestMeshObjectsDuplicateID(t *testing.T) {
	for _, names := range [][]string{{"car.obj", "car.OBJ"}, {"car.stl", "car.obj"}} {
		dir := t.TempDir()
		for _, name := range names {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
		}
		_, err := MeshObjects(dir)
		assert.ErrorIs(t, err, ErrConfig, "%v", names)
		assert.ErrorContains(t, err, `"car"`)
	}
}
