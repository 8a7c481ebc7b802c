package dataset

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/unixpickle/model3d/render3d"
	"github.com/unixpickle/nerf-dataset/camera"
	"github.com/unixpickle/nerf-dataset/npy"
	"github.com/unixpickle/nerf-dataset/renderer"
	"gonum.org/v1/gonum/mat"
)

// A Renderer draws one object at a time.
//
// SetUpObject must not hold any object state when it fails.
// Errors wrapping renderer.ErrMissingResource or
// renderer.ErrNumericDegeneracy cause the object to be skipped;
// any other error aborts the capture.
type Renderer interface {
	SetUpObject(geometryPath, materialPath string) error
	Render(frame *camera.Frame, background render3d.Color) (*render3d.Image, error)
	ReleaseObject()
}

const (
	StatusCaptured = "captured"
	StatusSkipped  = "skipped"
)

// An ObjectRecord is the outcome of capturing one object.
type ObjectRecord struct {
	// Position is the index of the object in the corpus.
	Position int
	ID       string
	Status   string
	Reason   string
	Samples  int
}

// A Recorder is notified of each object's outcome, in order.
type Recorder interface {
	RecordObject(rec *ObjectRecord) error
}

// CaptureResult holds the poses of every captured object, in
// capture order.
type CaptureResult struct {
	Focal   float64
	Poses   [][]*mat.Dense
	Objects []string
	Skipped []*ObjectRecord
}

// Capture renders every object of a corpus from sampled
// viewpoints.
//
// The Renderer is owned by the Capture for the duration of
// Run and is driven from a single goroutine.
type Capture struct {
	Config   *Config
	Renderer Renderer
	Angles   camera.AngleSampler

	// Recorder may be nil.
	Recorder Recorder

	// Verbose logs every object, not just skipped ones.
	Verbose bool
}

// Run creates the data directory and captures the objects.
//
// The data directory must not exist yet. An interrupted run
// leaves a partial directory behind; the manifest files are
// only written by Manifest.Save, after all objects.
func (c *Capture) Run(objects []*Object) (*CaptureResult, error) {
	if err := c.Config.Validate(); err != nil {
		return nil, err
	}
	rig := c.Config.Rig()
	focal, err := rig.Focal()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := os.Mkdir(c.Config.DataDir, 0755); err != nil {
		return nil, err
	}

	result := &CaptureResult{Focal: focal}
	for i, obj := range objects {
		if c.Verbose {
			log.Printf("Capturing object %d/%d: %s", i+1, len(objects), obj.ID)
		}
		rec := &ObjectRecord{Position: i, ID: obj.ID}

		err := c.Renderer.SetUpObject(obj.GeometryPath, obj.MaterialPath)
		if err != nil {
			if !errors.Is(err, renderer.ErrMissingResource) &&
				!errors.Is(err, renderer.ErrNumericDegeneracy) {
				return nil, fmt.Errorf("set up %s: %w", obj.ID, err)
			}
			log.Printf("Skipping object %s: %v", obj.ID, err)
			rec.Status = StatusSkipped
			rec.Reason = err.Error()
			result.Skipped = append(result.Skipped, rec)
			if err := c.record(rec); err != nil {
				return nil, err
			}
			continue
		}

		poses, err := c.captureObject(rig, obj)
		if err != nil {
			return nil, fmt.Errorf("capture %s: %w", obj.ID, err)
		}
		result.Poses = append(result.Poses, poses)
		result.Objects = append(result.Objects, obj.ID)

		rec.Status = StatusCaptured
		rec.Samples = len(poses)
		if err := c.record(rec); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// captureObject renders all samples of an object which has
// already been set up, releasing it on every return path.
func (c *Capture) captureObject(rig *camera.Rig, obj *Object) ([]*mat.Dense, error) {
	defer c.Renderer.ReleaseObject()

	objDir := filepath.Join(c.Config.DataDir, obj.ID)
	if err := os.Mkdir(objDir, 0755); err != nil {
		return nil, err
	}
	poses := make([]*mat.Dense, 0, c.Config.Samples)
	for i := 0; i < c.Config.Samples; i++ {
		shot := rig.Shoot(c.Angles.Sample())
		img, err := c.Renderer.Render(shot.Frame(), c.Config.Background)
		if err != nil {
			return nil, err
		}
		name := SampleName(i, c.Config.Samples, c.Config.ImageFormat)
		if err := SaveImage(filepath.Join(objDir, name), img); err != nil {
			return nil, err
		}
		poses = append(poses, shot.Pose)
	}
	return poses, nil
}

func (c *Capture) record(rec *ObjectRecord) error {
	if c.Recorder == nil {
		return nil
	}
	if err := c.Recorder.RecordObject(rec); err != nil {
		return fmt.Errorf("record %s: %w", rec.ID, err)
	}
	return nil
}

// SampleName gets the file name of the i-th of n samples.
// Indices are zero-padded to the width of n-1.
func SampleName(i, n int, format string) string {
	width := len(strconv.Itoa(n - 1))
	return fmt.Sprintf("%0*d.%s", width, i, format)
}

// SaveImage writes a rendering as a PNG, or as an npy array
// of shape (height, width, 3) with uint8 components, depending
// on the file extension.
//
// Both formats store gamma-corrected sRGB values, so the same
// rendering produces the same bytes either way.
func SaveImage(path string, img *render3d.Image) error {
	switch filepath.Ext(path) {
	case "." + FormatPNG:
		return img.Save(path)
	case "." + FormatNPY:
		rgba := img.RGBA()
		data := make([]uint8, 0, img.Width*img.Height*3)
		for y := 0; y < img.Height; y++ {
			row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+img.Width*4]
			for x := 0; x < img.Width; x++ {
				data = append(data, row[x*4:x*4+3]...)
			}
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		arr := npy.NewUint8([]int{img.Height, img.Width, 3}, data)
		if err := arr.Write(f); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	default:
		return fmt.Errorf("unsupported image extension: %s", path)
	}
}
