// Package renderer renders normalized meshes from cameras
// described by a view-projection matrix and an eye position.
package renderer

import (
	"errors"
	"fmt"
	"math"

	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/model3d/render3d"
	"github.com/unixpickle/nerf-dataset/camera"
	"gonum.org/v1/gonum/mat"
)

// A RayCaster renders one object at a time with a directional
// light and an ambient term.
//
// A RayCaster holds mutable per-object state and must not be
// used from multiple goroutines.
type RayCaster struct {
	Width  int
	Height int

	// LightDirection is the direction light travels in.
	LightDirection model3d.Coord3D
	Ambient        float64
	Diffuse        float64

	// DefaultColor is used for objects without a material.
	DefaultColor render3d.Color

	collider model3d.Collider
	color    render3d.Color
}

// NewRayCaster creates a renderer for square images.
func NewRayCaster(size int) *RayCaster {
	return &RayCaster{
		Width:          size,
		Height:         size,
		LightDirection: model3d.XYZ(0, -1, -1).Normalize(),
		Ambient:        0.5,
		Diffuse:        0.5,
		DefaultColor:   render3d.NewColor(0.8),
	}
}

// SetUpObject loads an object's geometry and, if materialPath
// is non-empty, its diffuse colour.
//
// Errors wrap ErrMissingResource or ErrNumericDegeneracy when
// the object cannot be used. On error, no object is loaded.
func (r *RayCaster) SetUpObject(geometryPath, materialPath string) error {
	r.ReleaseObject()

	mesh, err := ReadMesh(geometryPath)
	if err != nil {
		return err
	}
	color := r.DefaultColor
	if materialPath != "" {
		color, err = ReadDiffuse(materialPath, r.DefaultColor)
		if err != nil {
			return err
		}
	}
	r.collider = model3d.MeshToCollider(mesh)
	r.color = color
	return nil
}

// ReleaseObject drops the current object, if there is one.
func (r *RayCaster) ReleaseObject() {
	r.collider = nil
	r.color = render3d.Color{}
}

// Render draws the current object, filling pixels that miss
// it with the background colour.
//
// Rays are obtained by unprojecting each pixel centre through
// the inverse of the frame's view-projection matrix.
func (r *RayCaster) Render(frame *camera.Frame, background render3d.Color) (*render3d.Image, error) {
	if r.collider == nil {
		return nil, errors.New("render: no object is set up")
	}
	var inv mat.Dense
	if err := inv.Inverse(frame.ViewProjection); err != nil {
		return nil, fmt.Errorf("render: invert view-projection: %w", err)
	}

	light := r.LightDirection.Normalize()
	img := render3d.NewImage(r.Width, r.Height)
	for y := 0; y < r.Height; y++ {
		ndcY := 1 - 2*(float64(y)+0.5)/float64(r.Height)
		for x := 0; x < r.Width; x++ {
			ndcX := 2*(float64(x)+0.5)/float64(r.Width) - 1
			far := unproject(&inv, ndcX, ndcY)
			ray := &model3d.Ray{
				Origin:    frame.Eye,
				Direction: far.Sub(frame.Eye),
			}
			img.Data[y*r.Width+x] = r.shade(ray, light, background)
		}
	}
	return img, nil
}

func (r *RayCaster) shade(ray *model3d.Ray, light model3d.Coord3D,
	background render3d.Color) render3d.Color {
	collision, ok := r.collider.FirstRayCollision(ray)
	if !ok {
		return background
	}
	normal := collision.Normal.Normalize()
	if normal.Dot(ray.Direction) > 0 {
		normal = normal.Scale(-1)
	}
	brightness := r.Ambient + r.Diffuse*math.Max(0, -normal.Dot(light))
	// Shading happens in linear space, like render3d.Color.
	c := r.color.Scale(brightness)
	return render3d.Color{X: math.Min(1, c.X), Y: math.Min(1, c.Y), Z: math.Min(1, c.Z)}
}

// unproject maps a point on the far clipping plane back into
// world space.
func unproject(inv *mat.Dense, ndcX, ndcY float64) model3d.Coord3D {
	var out mat.Dense
	out.Mul(mat.NewDense(1, 4, []float64{ndcX, ndcY, 1, 1}), inv)
	w := out.At(0, 3)
	return model3d.XYZ(out.At(0, 0)/w, out.At(0, 1)/w, out.At(0, 2)/w)
}
