package camera

import (
	"errors"
	"fmt"
	"math"
)

var ErrFieldOfView = errors.New("field of view must be strictly between 0 and 180 degrees")

// FocalLength computes the pinhole focal length in pixels
// for square images with the given side length and field of
// view (in degrees).
func FocalLength(imageSize int, fov float64) (float64, error) {
	if imageSize <= 0 {
		return 0, fmt.Errorf("invalid image size: %d", imageSize)
	}
	if !(fov > 0 && fov < 180) {
		return 0, fmt.Errorf("%w: got %f", ErrFieldOfView, fov)
	}
	return (float64(imageSize) / 2) / math.Tan(fov*math.Pi/180/2), nil
}

// FieldOfView is the inverse of FocalLength, returning the
// field of view in degrees.
func FieldOfView(imageSize int, focal float64) float64 {
	return 2 * math.Atan(float64(imageSize)/2/focal) * 180 / math.Pi
}
