package camera

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/model3d/model3d"
	"gonum.org/v1/gonum/mat"
)

func testRig() *Rig {
	return &Rig{
		Distance:    2.25,
		FieldOfView: 53.962828459664856,
		Near:        0.1,
		Far:         100,
		ImageSize:   128,
	}
}

// transformPoint applies a row-vector transform and performs
// the homogeneous divide.
func transformPoint(m mat.Matrix, p model3d.Coord3D) model3d.Coord3D {
	var out mat.Dense
	out.Mul(mat.NewDense(1, 4, []float64{p.X, p.Y, p.Z, 1}), m)
	w := out.At(0, 3)
	return model3d.XYZ(out.At(0, 0)/w, out.At(0, 1)/w, out.At(0, 2)/w)
}

func TestLookAt(t *testing.T) {
	eye := model3d.XYZ(1, 2, 3)
	view := LookAt(eye, Target(), Up())
	assertCoordsClose(t, model3d.Coord3D{}, transformPoint(view, eye))
	assertCoordsClose(t, model3d.XYZ(0, 0, -eye.Norm()), transformPoint(view, Target()))

	// The camera's up axis leans toward world up.
	up := model3d.XYZ(view.At(0, 1), view.At(1, 1), view.At(2, 1))
	assert.Greater(t, up.Y, 0.0)
}

func TestComposeDegenerate(t *testing.T) {
	for _, elevation := range []float64{math.Pi / 2, -math.Pi / 2, math.Pi/2 + 1e-12} {
		for _, azimuth := range []float64{0, 0.7, -3} {
			a := Angles{Azimuth: azimuth, Elevation: elevation}
			eye, view := Compose(Rotation(a), InitialOffset(2), Target(), Up())
			raw := view.RawMatrix().Data
			for _, x := range raw {
				require.False(t, math.IsNaN(x) || math.IsInf(x, 0), "bad view for %v: %v", a, raw)
			}
			assertOrthonormal(t, view.Slice(0, 3, 0, 3))
			assertCoordsClose(t, eye, PoseOrigin(ExtractPose(view)))
		}
	}

	view := LookAt(model3d.XYZ(0, 5, 0), Target(), Up())
	for _, x := range view.RawMatrix().Data {
		require.False(t, math.IsNaN(x))
	}
	assertOrthonormal(t, view.Slice(0, 3, 0, 3))
}

func TestExtractPose(t *testing.T) {
	rig := testRig()
	sampler := &RandomAngles{Rand: rand.New(rand.NewSource(5)), InPlane: true}
	for i := 0; i < 100; i++ {
		shot := rig.Shoot(sampler.Sample())
		pose := shot.Pose
		assertCoordsClose(t, shot.Eye, PoseOrigin(pose))
		assert.InDelta(t, rig.Distance, PoseOrigin(pose).Norm(), 1e-9)
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				assert.Equal(t, shot.View.At(r, c), pose.At(r, c))
			}
		}
		assert.Equal(t, []float64{0, 0, 0, 1}, mat.Row(nil, 3, pose))
		assertOrthonormal(t, pose.Slice(0, 3, 0, 3))

		// The camera's origin in camera space maps to the eye.
		var origin mat.VecDense
		origin.MulVec(pose, mat.NewVecDense(4, []float64{0, 0, 0, 1}))
		assertCoordsClose(t, shot.Eye, model3d.XYZ(origin.AtVec(0), origin.AtVec(1), origin.AtVec(2)))
	}
}

func TestPixelRayCentre(t *testing.T) {
	rig := testRig()
	focal, err := rig.Focal()
	require.NoError(t, err)
	sampler := &RandomAngles{Rand: rand.New(rand.NewSource(6))}
	for i := 0; i < 20; i++ {
		shot := rig.Shoot(sampler.Sample())
		ray := PixelRay(shot.Pose, focal, rig.ImageSize, rig.ImageSize, 64, 64)
		assertCoordsClose(t, shot.Eye, ray.Origin)
		expected := Target().Sub(shot.Eye).Normalize()
		assertCoordsClose(t, expected, ray.Direction.Normalize())
	}
}

func TestPixelRayProjection(t *testing.T) {
	// Points along a pose-derived pixel ray must project back
	// onto the same pixel through the view-projection.
	rig := testRig()
	focal, err := rig.Focal()
	require.NoError(t, err)
	size := float64(rig.ImageSize)
	rng := rand.New(rand.NewSource(7))
	sampler := &RandomAngles{Rand: rng, InPlane: true}
	for i := 0; i < 20; i++ {
		shot := rig.Shoot(sampler.Sample())
		x, y := size*rng.Float64(), size*rng.Float64()
		ray := PixelRay(shot.Pose, focal, rig.ImageSize, rig.ImageSize, x, y)
		for _, depth := range []float64{0.5, 2, 4} {
			p := ray.Origin.Add(ray.Direction.Scale(depth))
			ndc := transformPoint(shot.ViewProjection, p)
			assert.InDelta(t, x, (ndc.X+1)/2*size, 1e-6)
			assert.InDelta(t, y, (1-ndc.Y)/2*size, 1e-6)
		}
	}
}

func TestRigValidate(t *testing.T) {
	assert.NoError(t, testRig().Validate())

	for _, mutate := range []func(r *Rig){
		func(r *Rig) { r.FieldOfView = 0 },
		func(r *Rig) { r.FieldOfView = 180 },
		func(r *Rig) { r.ImageSize = 0 },
		func(r *Rig) { r.Distance = 0 },
		func(r *Rig) { r.Near = 0 },
		func(r *Rig) { r.Far = r.Near },
	} {
		r := testRig()
		mutate(r)
		assert.Error(t, r.Validate())
	}

	r := testRig()
	r.FieldOfView = 180
	assert.ErrorIs(t, r.Validate(), ErrFieldOfView)
}

func assertOrthonormal(t *testing.T, m mat.Matrix) {
	t.Helper()
	var product mat.Dense
	product.Mul(m.T(), m)
	assert.True(t, mat.EqualApprox(&product, eye3(), 1e-9), "not orthonormal: %v", mat.Formatted(m))
}

func eye3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}
