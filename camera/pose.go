package camera

import (
	"github.com/unixpickle/model3d/model3d"
	"gonum.org/v1/gonum/mat"
)

// ExtractPose converts a view matrix into the camera-to-world
// pose stored in datasets.
//
// The rotation block is copied from the view matrix unchanged;
// its columns are already the camera axes in world space. The
// translation is recovered from the view matrix's last row.
func ExtractPose(view *mat.Dense) *mat.Dense {
	rotation := view.Slice(0, 3, 0, 3)
	viewTrans := mat.NewVecDense(3, []float64{view.At(3, 0), view.At(3, 1), view.At(3, 2)})

	var trans mat.VecDense
	trans.MulVec(rotation, viewTrans)
	trans.ScaleVec(-1, &trans)

	pose := mat.NewDense(4, 4, nil)
	pose.Slice(0, 3, 0, 3).(*mat.Dense).Copy(rotation)
	pose.Slice(0, 3, 3, 4).(*mat.Dense).Copy(&trans)
	pose.Set(3, 3, 1)
	return pose
}

// PoseOrigin gets the camera position from a pose.
func PoseOrigin(pose mat.Matrix) model3d.Coord3D {
	return model3d.XYZ(pose.At(0, 3), pose.At(1, 3), pose.At(2, 3))
}

// PoseRotation gets the camera-to-world rotation of a pose.
func PoseRotation(pose mat.Matrix) *model3d.Matrix3 {
	var res model3d.Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			res[i*3+j] = pose.At(i, j)
		}
	}
	return &res
}

// PixelRay creates the world-space ray through the image
// point (x, y) of a width x height image.
//
// Coordinates are continuous, so the centre of pixel (i, j)
// is (i+0.5, j+0.5). The camera looks down its -z axis with y
// pointing up, while image rows grow downward.
func PixelRay(pose mat.Matrix, focal float64, width, height int, x, y float64) *model3d.Ray {
	dir := model3d.XYZ(
		(x-float64(width)/2)/focal,
		-(y-float64(height)/2)/focal,
		-1,
	)
	return &model3d.Ray{
		Origin:    PoseOrigin(pose),
		Direction: PoseRotation(pose).MulColumn(dir),
	}
}
