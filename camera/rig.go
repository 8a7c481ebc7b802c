package camera

import (
	"errors"

	"github.com/unixpickle/model3d/model3d"
	"gonum.org/v1/gonum/mat"
)

// A Rig describes the cameras shared by every sample of a
// dataset: an orbit of fixed radius around the origin, and
// a fixed square image.
type Rig struct {
	Distance    float64
	FieldOfView float64
	Near        float64
	Far         float64
	ImageSize   int
}

// A Shot is a single sampled camera.
type Shot struct {
	Angles         Angles
	Rotation       *model3d.Matrix3
	Eye            model3d.Coord3D
	View           *mat.Dense
	ViewProjection *mat.Dense
	Pose           *mat.Dense
}

// Frame gets the renderer input for the shot.
func (s *Shot) Frame() *Frame {
	return &Frame{ViewProjection: s.ViewProjection, Eye: s.Eye}
}

// Validate checks that the rig can produce cameras.
func (r *Rig) Validate() error {
	if _, err := r.Focal(); err != nil {
		return err
	}
	if !(r.Distance > 0) {
		return errors.New("camera distance must be positive")
	}
	if !(r.Near > 0) || !(r.Far > r.Near) {
		return errors.New("clip planes must satisfy 0 < near < far")
	}
	return nil
}

// Focal computes the focal length in pixels.
func (r *Rig) Focal() (float64, error) {
	return FocalLength(r.ImageSize, r.FieldOfView)
}

// Shoot places a camera at the given angles.
func (r *Rig) Shoot(a Angles) *Shot {
	rotation := Rotation(a)
	eye, view := Compose(rotation, InitialOffset(r.Distance), Target(), Up())
	proj := Perspective(r.FieldOfView, 1, r.Near, r.Far)
	return &Shot{
		Angles:         a,
		Rotation:       rotation,
		Eye:            eye,
		View:           view,
		ViewProjection: ViewProjection(view, proj),
		Pose:           ExtractPose(view),
	}
}
