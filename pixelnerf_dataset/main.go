// Command pixelnerf_dataset renders every object of a shape
// corpus from random viewpoints and saves the camera poses
// needed to train a pixelNeRF model.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"

	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/model3d/render3d"
	"github.com/unixpickle/nerf-dataset/camera"
	"github.com/unixpickle/nerf-dataset/dataset"
	"github.com/unixpickle/nerf-dataset/renderer"
)

func main() {
	cfg := dataset.DefaultConfig()
	var layout string
	var seed int64
	var turntable bool
	var turntableElevation float64
	var catalogPath string
	var ambient, diffuse float64
	var verbose bool
	background := VectorFlag{Value: model3d.XYZ(0.5, 0.5, 0.5)}
	lightDir := VectorFlag{Value: model3d.XYZ(0, -1, -1)}

	flag.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "output directory, which must not exist")
	flag.IntVar(&cfg.Samples, "samples", cfg.Samples, "number of renderings per object")
	flag.IntVar(&cfg.ImageSize, "image-size", cfg.ImageSize, "side length of images to render")
	flag.Float64Var(&cfg.FieldOfView, "fov", cfg.FieldOfView, "field of view in degrees")
	flag.Float64Var(&cfg.CameraDistance, "camera-distance", cfg.CameraDistance,
		"distance from the camera to the origin")
	flag.Float64Var(&cfg.Near, "near", cfg.Near, "near clipping plane")
	flag.Float64Var(&cfg.Far, "far", cfg.Far, "far clipping plane")
	flag.StringVar(&cfg.ImageFormat, "format", cfg.ImageFormat, "image format ('png' or 'npy')")
	flag.BoolVar(&cfg.InPlane, "in-plane", false, "randomly roll cameras about their viewing axis")
	flag.Var(&background, "background", "sRGB background color, as 'r,g,b' or a gray level")
	flag.Var(&lightDir, "light-dir", "direction of the directional light, as 'x,y,z'")
	flag.Float64Var(&ambient, "ambient", 0.5, "ambient light intensity")
	flag.Float64Var(&diffuse, "diffuse", 0.5, "directional light intensity")
	flag.StringVar(&layout, "layout", "shapenet", "corpus layout ('shapenet' or 'mesh')")
	flag.Int64Var(&seed, "seed", 0, "seed for camera sampling")
	flag.BoolVar(&turntable, "turntable", false, "evenly rotate around the object instead of sampling")
	flag.Float64Var(&turntableElevation, "turntable-elevation", 30,
		"camera elevation in degrees for -turntable")
	flag.StringVar(&catalogPath, "catalog", "", "optional SQLite database to record object outcomes in")
	flag.BoolVar(&verbose, "verbose", false, "log every object")

	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: pixelnerf_dataset [flags] <corpus-dir>")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "The corpus is a ShapeNetCore category directory, or a")
		fmt.Fprintln(os.Stderr, "directory of STL/OBJ files with -layout=mesh.")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Flags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	flag.Parse()
	if len(flag.Args()) != 1 {
		flag.Usage()
	}
	cfg.Background = render3d.NewColorRGB(background.Value.X, background.Value.Y, background.Value.Z)

	if err := cfg.Validate(); err != nil {
		essentials.Die(err)
	}
	focal, err := cfg.Rig().Focal()
	essentials.Must(err)

	log.Println("Listing objects...")
	corpusDir := flag.Args()[0]
	var objects []*dataset.Object
	switch layout {
	case "shapenet":
		objects, err = dataset.ShapeNetObjects(corpusDir)
	case "mesh":
		objects, err = dataset.MeshObjects(corpusDir)
	default:
		essentials.Die("unknown layout: " + layout)
	}
	essentials.Must(err)
	log.Printf("Found %d objects.", len(objects))

	var angles camera.AngleSampler
	if turntable {
		angles = &camera.TurntableAngles{
			Elevation: turntableElevation * math.Pi / 180,
			Total:     cfg.Samples,
		}
	} else {
		angles = &camera.RandomAngles{
			Rand:    rand.New(rand.NewSource(seed)),
			InPlane: cfg.InPlane,
		}
	}

	rc := renderer.NewRayCaster(cfg.ImageSize)
	rc.LightDirection = lightDir.Value
	rc.Ambient = ambient
	rc.Diffuse = diffuse

	capture := &dataset.Capture{
		Config:   cfg,
		Renderer: rc,
		Angles:   angles,
		Verbose:  verbose,
	}

	var catalog *dataset.Catalog
	if catalogPath != "" {
		catalog, err = dataset.OpenCatalog(catalogPath)
		essentials.Must(err)
		runID, err := catalog.BeginRun(cfg, focal)
		if err != nil {
			catalog.Close()
			essentials.Die(err)
		}
		log.Printf("Recording run %s in %s", runID, catalogPath)
		capture.Recorder = catalog
	}

	log.Printf("Rendering %d samples per object (focal length %f)...", cfg.Samples, focal)
	manifest, err := dataset.Generate(capture, objects)
	if catalog != nil {
		if catalogErr := closeCatalog(catalog, manifest, err); catalogErr != nil {
			log.Printf("Failed to update catalog: %v", catalogErr)
			if err == nil {
				err = catalogErr
			}
		}
	}
	essentials.Must(err)
	log.Printf("Captured %d of %d objects into %s", len(manifest.Objects), len(objects), cfg.DataDir)
}

// closeCatalog finishes the catalog's current run, recording
// runErr if the run failed, and closes the catalog.
func closeCatalog(catalog *dataset.Catalog, manifest *dataset.Manifest, runErr error) error {
	var err error
	if runErr != nil {
		err = catalog.FailRun(runErr)
	} else {
		err = catalog.FinishRun(len(manifest.Objects))
	}
	return errors.Join(err, catalog.Close())
}
