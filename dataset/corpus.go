package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// An Object is one entry of a shape corpus.
type Object struct {
	ID           string
	GeometryPath string

	// MaterialPath may be empty if the object has no material.
	MaterialPath string
}

// ShapeNetObjects lists the objects of a ShapeNetCore
// category directory, ordered by identifier.
//
// Objects are listed even if their model files are missing;
// that is detected when the renderer sets them up.
func ShapeNetObjects(categoryDir string) ([]*Object, error) {
	entries, err := os.ReadDir(categoryDir)
	if err != nil {
		return nil, err
	}
	var res []*Object
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		base := filepath.Join(categoryDir, entry.Name(), "models", "model_normalized")
		res = append(res, &Object{
			ID:           entry.Name(),
			GeometryPath: base + ".obj",
			MaterialPath: base + ".mtl",
		})
	}
	sortObjects(res)
	return res, nil
}

// MeshObjects lists the STL and OBJ files in a directory. The
// identifier of each object is its file name without the
// extension, and OBJ files use a sibling MTL file if present.
//
// Two mesh files with the same identifier, such as car.stl and
// car.obj, are an error since each object needs its own output
// directory.
func MeshObjects(dir string) ([]*Object, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var res []*Object
	byID := map[string]*Object{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".stl" && ext != ".obj" {
			continue
		}
		obj := &Object{
			ID:           strings.TrimSuffix(name, filepath.Ext(name)),
			GeometryPath: filepath.Join(dir, name),
		}
		if ext == ".obj" {
			mtl := filepath.Join(dir, obj.ID+".mtl")
			if _, err := os.Stat(mtl); err == nil {
				obj.MaterialPath = mtl
			}
		}
		if prev, ok := byID[obj.ID]; ok {
			return nil, fmt.Errorf("%w: %s and %s share the object identifier %q",
				ErrConfig, prev.GeometryPath, obj.GeometryPath, obj.ID)
		}
		byID[obj.ID] = obj
		res = append(res, obj)
	}
	sortObjects(res)
	return res, nil
}

func sortObjects(objs []*Object) {
	sort.SliceStable(objs, func(i, j int) bool {
		return objs[i].ID < objs[j].ID
	})
}
