// Package camera places cameras on an orbit around the origin
// and converts their placement into the view and pose matrices
// stored in a dataset.
//
// Every matrix in this package follows one convention.
// Rotations are right-handed and Y-up, acting on column vectors:
//
//	R = Ry(azimuth) * Rx(elevation) * Rz(inPlane)
//
// The camera starts at (0, 0, distance), so the elevation tilts
// it off the XZ plane before the azimuth swings it around Y.
//
// View matrices are look-at transforms stored with the
// translation in the last row, so that a world point p maps to
// [p 1] * View. The columns of their upper 3x3 block are the
// camera's side, up and backward axes in world coordinates,
// which is why ExtractPose can copy that block as-is.
package camera

import (
	"math"

	"github.com/unixpickle/model3d/model3d"
)

// Rotation creates the rotation matrix for a camera on the
// orbit described by a.
func Rotation(a Angles) *model3d.Matrix3 {
	return RotationY(a.Azimuth).Mul(RotationX(a.Elevation)).Mul(RotationZ(a.InPlane))
}

// RotationX creates a right-handed rotation about the x-axis.
func RotationX(theta float64) *model3d.Matrix3 {
	s, c := math.Sincos(theta)
	return &model3d.Matrix3{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	}
}

// RotationY creates a right-handed rotation about the y-axis.
func RotationY(theta float64) *model3d.Matrix3 {
	s, c := math.Sincos(theta)
	return &model3d.Matrix3{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	}
}

// RotationZ creates a right-handed rotation about the z-axis.
func RotationZ(theta float64) *model3d.Matrix3 {
	s, c := math.Sincos(theta)
	return &model3d.Matrix3{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}
}

// AnglesOf recovers the azimuth and elevation of a camera at
// eye, assuming no in-plane rotation.
//
// The elevation is always in [-pi/2, pi/2], so the result may
// differ from the sampled angles while describing the same eye.
func AnglesOf(eye model3d.Coord3D) Angles {
	norm := eye.Norm()
	if norm == 0 {
		return Angles{}
	}
	return Angles{
		Azimuth:   math.Atan2(eye.X, eye.Z),
		Elevation: math.Asin(math.Max(-1, math.Min(1, -eye.Y/norm))),
	}
}
