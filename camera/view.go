package camera

import (
	"math"

	"github.com/unixpickle/model3d/model3d"
	"gonum.org/v1/gonum/mat"
)

// Below this length, the cross product of the viewing
// direction and the up vector is treated as degenerate.
const degenerateEpsilon = 1e-8

// InitialOffset is the camera position before rotation.
func InitialOffset(distance float64) model3d.Coord3D {
	return model3d.XYZ(0, 0, distance)
}

// Target is the point every camera looks at.
func Target() model3d.Coord3D {
	return model3d.Coord3D{}
}

// Up is the up reference for look-at matrices.
func Up() model3d.Coord3D {
	return model3d.XYZ(0, 1, 0)
}

// Compose rotates the initial offset into the camera's world
// position and builds a look-at view matrix from there.
//
// When the viewing direction is (nearly) parallel to up, the
// rotated up vector r*up is used instead, which stays
// perpendicular to the orbit.
func Compose(r *model3d.Matrix3, offset, target, up model3d.Coord3D) (eye model3d.Coord3D,
	view *mat.Dense) {
	eye = r.MulColumn(offset)
	return eye, lookAt(eye, target, up, r.MulColumn(up))
}

// LookAt creates a right-handed view matrix for a camera at
// eye looking toward target.
//
// If up is (nearly) parallel to the viewing direction, the
// world axis least aligned with it is used instead.
func LookAt(eye, target, up model3d.Coord3D) *mat.Dense {
	forward := target.Sub(eye)
	fallback := model3d.XYZ(1, 0, 0)
	if math.Abs(forward.Y) < math.Abs(forward.X) {
		fallback = model3d.XYZ(0, 1, 0)
		if math.Abs(forward.Z) < math.Abs(forward.Y) {
			fallback = model3d.XYZ(0, 0, 1)
		}
	} else if math.Abs(forward.Z) < math.Abs(forward.X) {
		fallback = model3d.XYZ(0, 0, 1)
	}
	return lookAt(eye, target, up, fallback)
}

func lookAt(eye, target, up, fallbackUp model3d.Coord3D) *mat.Dense {
	forward := target.Sub(eye)
	if n := forward.Norm(); n > 0 {
		forward = forward.Scale(1 / n)
	} else {
		forward = model3d.XYZ(0, 0, -1)
	}
	side := forward.Cross(up)
	if side.Norm() < degenerateEpsilon {
		side = forward.Cross(fallbackUp)
	}
	side = side.Normalize()
	newUp := side.Cross(forward).Normalize()

	return mat.NewDense(4, 4, []float64{
		side.X, newUp.X, -forward.X, 0,
		side.Y, newUp.Y, -forward.Y, 0,
		side.Z, newUp.Z, -forward.Z, 0,
		-side.Dot(eye), -newUp.Dot(eye), forward.Dot(eye), 1,
	})
}

// Perspective creates a projection matrix for the row-vector
// convention used by view matrices.
//
// The fov is the vertical field of view in degrees.
func Perspective(fov, aspect, near, far float64) *mat.Dense {
	yMax := near * math.Tan(fov*math.Pi/360)
	xMax := yMax * aspect

	e := near / xMax
	f := near / yMax
	c := -(far + near) / (far - near)
	d := -2 * far * near / (far - near)
	return mat.NewDense(4, 4, []float64{
		e, 0, 0, 0,
		0, f, 0, 0,
		0, 0, c, -1,
		0, 0, d, 0,
	})
}

// ViewProjection combines a view and a projection matrix.
func ViewProjection(view, proj mat.Matrix) *mat.Dense {
	var res mat.Dense
	res.Mul(view, proj)
	return &res
}

// A Frame is everything a renderer is told about a camera.
type Frame struct {
	ViewProjection *mat.Dense
	Eye            model3d.Coord3D
}
