package main

import (
	"fmt"
	"image/color"
	"math"

	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/nerf-dataset/camera"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// CoveragePoints converts camera positions into (azimuth,
// elevation) pairs in degrees.
func CoveragePoints(eyes []model3d.Coord3D) plotter.XYs {
	pts := make(plotter.XYs, len(eyes))
	for i, eye := range eyes {
		a := camera.AnglesOf(eye)
		pts[i] = plotter.XY{
			X: a.Azimuth * 180 / math.Pi,
			Y: a.Elevation * 180 / math.Pi,
		}
	}
	return pts
}

// SaveCoverage writes a scatter plot of camera azimuths and
// elevations to an image file.
func SaveCoverage(path string, eyes []model3d.Coord3D) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Camera coverage (%d cameras)", len(eyes))
	p.X.Label.Text = "Azimuth (degrees)"
	p.Y.Label.Text = "Elevation (degrees)"
	p.X.Min, p.X.Max = -180, 180
	p.Y.Min, p.Y.Max = -90, 90
	p.Add(plotter.NewGrid())

	scatter, err := plotter.NewScatter(CoveragePoints(eyes))
	if err != nil {
		return fmt.Errorf("create scatter: %w", err)
	}
	scatter.GlyphStyle.Color = color.RGBA{R: 30, G: 90, B: 200, A: 255}
	scatter.GlyphStyle.Radius = vg.Points(1.5)
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(scatter)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}
