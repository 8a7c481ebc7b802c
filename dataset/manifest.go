package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/nerf-dataset/camera"
	"github.com/unixpickle/nerf-dataset/npy"
	"gonum.org/v1/gonum/mat"
)

const (
	PosesFile   = "poses.npz"
	ObjectsFile = "objs.txt"
)

// A Manifest describes a finished dataset.
//
// Poses[i][j] is the camera-to-world pose of sample j of the
// object Objects[i].
type Manifest struct {
	Poses          [][]*mat.Dense
	Focal          float64
	CameraDistance float64
	Objects        []string
}

// Assemble creates a manifest, checking that every object has
// the same number of 4x4 poses.
func Assemble(poses [][]*mat.Dense, focal, cameraDistance float64,
	objects []string) (*Manifest, error) {
	if len(poses) == 0 {
		return nil, fmt.Errorf("%w: no objects were captured", ErrConfig)
	}
	if len(poses) != len(objects) {
		return nil, fmt.Errorf("%w: %d pose tensors for %d objects", ErrConfig, len(poses),
			len(objects))
	}
	samples := len(poses[0])
	for i, objPoses := range poses {
		if len(objPoses) != samples || samples == 0 {
			return nil, fmt.Errorf("%w: object %s has %d poses, expected %d", ErrConfig,
				objects[i], len(objPoses), samples)
		}
		for _, pose := range objPoses {
			if r, c := pose.Dims(); r != 4 || c != 4 {
				return nil, fmt.Errorf("%w: object %s has a %dx%d pose", ErrConfig, objects[i], r, c)
			}
		}
	}
	return &Manifest{
		Poses:          poses,
		Focal:          focal,
		CameraDistance: cameraDistance,
		Objects:        append([]string{}, objects...),
	}, nil
}

// Samples gets the number of poses per object.
func (m *Manifest) Samples() int {
	if len(m.Poses) == 0 {
		return 0
	}
	return len(m.Poses[0])
}

// Eyes gets the camera position of every pose.
func (m *Manifest) Eyes() [][]model3d.Coord3D {
	res := make([][]model3d.Coord3D, len(m.Poses))
	for i, objPoses := range m.Poses {
		res[i] = make([]model3d.Coord3D, len(objPoses))
		for j, pose := range objPoses {
			res[i][j] = camera.PoseOrigin(pose)
		}
	}
	return res
}

// Save writes poses.npz followed by objs.txt into dir. The
// presence of objs.txt marks a complete dataset.
func (m *Manifest) Save(dir string) error {
	samples := m.Samples()
	flat := make([]float64, 0, len(m.Poses)*samples*16)
	for _, objPoses := range m.Poses {
		for _, pose := range objPoses {
			for r := 0; r < 4; r++ {
				flat = append(flat, mat.Row(nil, r, pose)...)
			}
		}
	}

	w, err := npy.Create(filepath.Join(dir, PosesFile))
	if err != nil {
		return err
	}
	arrays := []struct {
		name  string
		array *npy.Array
	}{
		{"poses", npy.NewFloat64([]int{len(m.Poses), samples, 4, 4}, flat)},
		{"focal", npy.Scalar(m.Focal)},
		{"camera_distance", npy.Scalar(m.CameraDistance)},
	}
	for _, a := range arrays {
		if err := w.Add(a.name, a.array); err != nil {
			w.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	objects := strings.Join(m.Objects, "\n") + "\n"
	return os.WriteFile(filepath.Join(dir, ObjectsFile), []byte(objects), 0644)
}

// LoadManifest reads a dataset written by Manifest.Save.
func LoadManifest(dir string) (*Manifest, error) {
	arrays, err := npy.ReadNPZ(filepath.Join(dir, PosesFile))
	if err != nil {
		return nil, err
	}
	poses, focal, distance := arrays["poses"], arrays["focal"], arrays["camera_distance"]
	for name, a := range map[string]*npy.Array{"poses": poses, "focal": focal,
		"camera_distance": distance} {
		if a == nil || a.Descr != npy.Float64 {
			return nil, fmt.Errorf("load manifest: missing float64 array %s", name)
		}
	}
	if len(poses.Shape) != 4 || poses.Shape[2] != 4 || poses.Shape[3] != 4 {
		return nil, fmt.Errorf("load manifest: unexpected poses shape %v", poses.Shape)
	}
	if len(focal.Float64s) != 1 || len(distance.Float64s) != 1 {
		return nil, fmt.Errorf("load manifest: focal and camera_distance must be scalars")
	}

	data, err := os.ReadFile(filepath.Join(dir, ObjectsFile))
	if err != nil {
		return nil, err
	}
	objects := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(objects) != poses.Shape[0] {
		return nil, fmt.Errorf("load manifest: %d objects listed for %d pose tensors",
			len(objects), poses.Shape[0])
	}

	m := &Manifest{
		Poses:          make([][]*mat.Dense, poses.Shape[0]),
		Focal:          focal.Float64s[0],
		CameraDistance: distance.Float64s[0],
		Objects:        objects,
	}
	for i := range m.Poses {
		m.Poses[i] = make([]*mat.Dense, poses.Shape[1])
		for j := range m.Poses[i] {
			offset := (i*poses.Shape[1] + j) * 16
			m.Poses[i][j] = mat.NewDense(4, 4, append([]float64{}, poses.Float64s[offset:offset+16]...))
		}
	}
	return m, nil
}

// Generate captures the objects, assembles the resulting
// poses and saves the manifest into the data directory.
func Generate(c *Capture, objects []*Object) (*Manifest, error) {
	result, err := c.Run(objects)
	if err != nil {
		return nil, err
	}
	m, err := Assemble(result.Poses, result.Focal, c.Config.CameraDistance, result.Objects)
	if err != nil {
		return nil, err
	}
	if err := m.Save(c.Config.DataDir); err != nil {
		return nil, err
	}
	return m, nil
}
