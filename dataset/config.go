package dataset

import (
	"errors"
	"fmt"

	"github.com/unixpickle/model3d/render3d"
	"github.com/unixpickle/nerf-dataset/camera"
)

// ErrConfig is wrapped by every error caused by an unusable
// configuration, including a dataset with no objects.
var ErrConfig = errors.New("configuration error")

const (
	FormatPNG = "png"
	FormatNPY = "npy"
)

// Config is the static configuration of a capture run.
type Config struct {
	DataDir string

	// Samples is the number of viewpoints per object.
	Samples int

	// ImageSize is the side length of the square images.
	ImageSize int

	// FieldOfView is the angle of view in degrees.
	FieldOfView float64

	CameraDistance float64
	Near           float64
	Far            float64

	Background render3d.Color

	// ImageFormat is FormatPNG or FormatNPY.
	ImageFormat string

	// InPlane adds a random roll about the viewing axis.
	InPlane bool
}

// DefaultConfig creates the configuration used for the
// pixelNeRF car renders.
func DefaultConfig() *Config {
	return &Config{
		DataDir:        "data",
		Samples:        50,
		ImageSize:      128,
		FieldOfView:    53.962828459664856,
		CameraDistance: 2.25,
		Near:           0.1,
		Far:            100,
		Background:     render3d.NewColorRGB(0.5, 0.5, 0.5),
		ImageFormat:    FormatPNG,
	}
}

// Rig creates the camera rig described by c.
func (c *Config) Rig() *camera.Rig {
	return &camera.Rig{
		Distance:    c.CameraDistance,
		FieldOfView: c.FieldOfView,
		Near:        c.Near,
		Far:         c.Far,
		ImageSize:   c.ImageSize,
	}
}

// Validate checks the configuration before anything is
// written to disk.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: no data directory", ErrConfig)
	}
	if c.Samples <= 0 {
		return fmt.Errorf("%w: samples must be positive, got %d", ErrConfig, c.Samples)
	}
	if c.ImageFormat != FormatPNG && c.ImageFormat != FormatNPY {
		return fmt.Errorf("%w: unknown image format %q", ErrConfig, c.ImageFormat)
	}
	if err := c.Rig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return nil
}
