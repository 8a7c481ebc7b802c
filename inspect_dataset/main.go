// Command inspect_dataset checks the poses of a generated
// dataset and visualizes where its cameras were placed.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/nerf-dataset/dataset"
	"gonum.org/v1/gonum/mat"
)

func main() {
	var dataDir string
	var tolerance float64
	var plotPath string
	var camerasPath string
	var thickness float64
	var delta float64
	flag.StringVar(&dataDir, "data-dir", "data", "dataset directory")
	flag.Float64Var(&tolerance, "tolerance", 1e-6, "allowed error in pose invariants")
	flag.StringVar(&plotPath, "plot", "", "optional PNG path for a camera coverage plot")
	flag.StringVar(&camerasPath, "cameras", "", "optional STL path for a mesh of camera positions")
	flag.Float64Var(&thickness, "thickness", 0.05, "radius of each camera in the mesh")
	flag.Float64Var(&delta, "delta", 0.02, "marching cubes delta")
	flag.Parse()

	log.Println("Loading manifest...")
	manifest, err := dataset.LoadManifest(dataDir)
	essentials.Must(err)
	log.Printf("Found %d objects with %d samples each (focal=%f, distance=%f).",
		len(manifest.Objects), manifest.Samples(), manifest.Focal, manifest.CameraDistance)

	log.Println("Checking poses...")
	problems := CheckManifest(manifest, dataDir, tolerance)
	for _, p := range problems {
		log.Println(p)
	}

	var eyes []model3d.Coord3D
	for _, objEyes := range manifest.Eyes() {
		eyes = append(eyes, objEyes...)
	}

	if plotPath != "" {
		log.Println("Plotting coverage...")
		essentials.Must(SaveCoverage(plotPath, eyes))
	}

	if camerasPath != "" {
		log.Println("Creating camera mesh...")
		tree := model3d.NewCoordTree(eyes)
		r := manifest.CameraDistance + thickness
		solid := model3d.CheckedFuncSolid(
			model3d.XYZ(-r, -r, -r),
			model3d.XYZ(r, r, r),
			func(c model3d.Coord3D) bool {
				return tree.Dist(c) < thickness
			},
		)
		mesh := model3d.MarchingCubesSearch(solid, delta, 8)
		log.Println("Saving mesh...")
		essentials.Must(mesh.SaveGroupedSTL(camerasPath))
	}

	if len(problems) > 0 {
		essentials.Die(fmt.Sprintf("found %d problems", len(problems)))
	}
	log.Println("Dataset is consistent.")
}

// CheckManifest verifies the invariants of a loaded dataset
// and returns a description of every violation.
func CheckManifest(m *dataset.Manifest, dataDir string, tolerance float64) []string {
	var problems []string
	eyes := m.Eyes()
	for i, id := range m.Objects {
		if _, err := os.Stat(filepath.Join(dataDir, id)); err != nil {
			problems = append(problems, fmt.Sprintf("object %s: %v", id, err))
		}
		for j, pose := range m.Poses[i] {
			if !isOrthonormal(pose, tolerance) {
				problems = append(problems, fmt.Sprintf(
					"object %s sample %d: rotation is not orthonormal", id, j))
			}
			if row := mat.Row(nil, 3, pose); row[0] != 0 || row[1] != 0 || row[2] != 0 || row[3] != 1 {
				problems = append(problems, fmt.Sprintf(
					"object %s sample %d: bad last row %v", id, j, row))
			}
			if norm := eyes[i][j].Norm(); math.Abs(norm-m.CameraDistance) > tolerance*m.CameraDistance {
				problems = append(problems, fmt.Sprintf(
					"object %s sample %d: camera is %f from the origin", id, j, norm))
			}
		}
	}
	return problems
}

func isOrthonormal(pose *mat.Dense, tolerance float64) bool {
	var product mat.Dense
	rotation := pose.Slice(0, 3, 0, 3)
	product.Mul(rotation.T(), rotation)
	identity := mat.NewDiagDense(3, []float64{1, 1, 1})
	return mat.EqualApprox(&product, identity, tolerance)
}
