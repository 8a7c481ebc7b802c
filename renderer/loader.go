package renderer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/model3d/render3d"
)

var (
	// ErrMissingResource is returned when an object's files are
	// absent or contain no geometry.
	ErrMissingResource = errors.New("missing or empty object resource")

	// ErrNumericDegeneracy is returned when an object cannot be
	// normalized because it has no extent.
	ErrNumericDegeneracy = errors.New("degenerate object geometry")
)

// ReadMesh loads an STL or Wavefront OBJ file and normalizes
// it to be centred at the origin with a maximum coordinate of 1.
func ReadMesh(path string) (*model3d.Mesh, error) {
	r, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingResource, path)
		}
		return nil, err
	}
	defer r.Close()

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".stl" && ext != ".obj" {
		return nil, fmt.Errorf("unsupported mesh format: %s", path)
	}
	if info, err := r.Stat(); err != nil {
		return nil, err
	} else if info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrMissingResource, path)
	}

	var triangles []*model3d.Triangle
	if ext == ".stl" {
		triangles, err = model3d.ReadSTL(r)
	} else {
		triangles, err = readOBJ(r)
	}
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %s is truncated: %v", ErrMissingResource, path, err)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(triangles) == 0 {
		return nil, fmt.Errorf("%w: %s has no triangles", ErrMissingResource, path)
	}
	mesh, err := normalizeMesh(model3d.NewMeshTriangles(triangles))
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", path, err)
	}
	return mesh, nil
}

func normalizeMesh(mesh *model3d.Mesh) (*model3d.Mesh, error) {
	mesh = mesh.Translate(mesh.Min().Mid(mesh.Max()).Scale(-1))
	m := mesh.Max()
	size := math.Max(math.Max(m.X, m.Y), m.Z)
	if size == 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		return nil, fmt.Errorf("%w: extent is %f", ErrNumericDegeneracy, size)
	}
	return mesh.Scale(1 / size), nil
}

// readOBJ reads the vertices and faces of a Wavefront OBJ
// file. Polygons are split into triangle fans.
func readOBJ(r io.Reader) ([]*model3d.Triangle, error) {
	var vertices []model3d.Coord3D
	var triangles []*model3d.Triangle

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: vertex needs three coordinates", lineNum)
			}
			var c [3]float64
			for i := range c {
				x, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}
				c[i] = x
			}
			vertices = append(vertices, model3d.NewCoord3DArray(c))
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least three vertices", lineNum)
			}
			face := make([]model3d.Coord3D, len(fields)-1)
			for i, field := range fields[1:] {
				idx, err := strconv.Atoi(strings.Split(field, "/")[0])
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}
				if idx < 0 {
					idx += len(vertices)
				} else {
					idx--
				}
				if idx < 0 || idx >= len(vertices) {
					return nil, fmt.Errorf("line %d: vertex index out of range", lineNum)
				}
				face[i] = vertices[idx]
			}
			for i := 1; i+1 < len(face); i++ {
				triangles = append(triangles, &model3d.Triangle{face[0], face[i], face[i+1]})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return triangles, nil
}

// ReadDiffuse reads the diffuse colour (Kd) of the first
// material in a Wavefront MTL file.
//
// If the file defines no diffuse colour, def is returned.
func ReadDiffuse(path string, def render3d.Color) (render3d.Color, error) {
	r, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return def, fmt.Errorf("%w: %s", ErrMissingResource, path)
		}
		return def, err
	}
	defer r.Close()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] != "Kd" {
			continue
		}
		var c [3]float64
		for i := range c {
			x, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return def, fmt.Errorf("read %s: %w", path, err)
			}
			c[i] = x
		}
		return render3d.NewColorRGB(c[0], c[1], c[2]), nil
	}
	return def, scanner.Err()
}
