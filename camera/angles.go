package camera

import (
	"math"
	"math/rand"
)

// Angles orient a camera orbiting the origin.
//
// All values are in radians. See Rotation for how they are
// turned into a rotation matrix.
type Angles struct {
	Azimuth   float64
	Elevation float64
	InPlane   float64
}

// An AngleSampler produces the viewpoint for each sample of
// an object, in sampling order.
type AngleSampler interface {
	Sample() Angles
}

// RandomAngles draws azimuth and elevation independently
// and uniformly from [-pi, pi].
type RandomAngles struct {
	// Rand is the source of randomness. If nil, the global
	// source from math/rand is used.
	Rand *rand.Rand

	// InPlane enables a uniformly random roll about the
	// viewing axis. It is zero otherwise.
	InPlane bool
}

func (r *RandomAngles) Sample() Angles {
	a := Angles{
		Azimuth:   r.uniform(),
		Elevation: r.uniform(),
	}
	if r.InPlane {
		a.InPlane = r.uniform()
	}
	return a
}

func (r *RandomAngles) uniform() float64 {
	var f float64
	if r.Rand != nil {
		f = r.Rand.Float64()
	} else {
		f = rand.Float64()
	}
	return math.Pi * (2*f - 1)
}

// SequenceAngles replays a fixed list of angles, cycling
// back to the start once it is exhausted.
type SequenceAngles struct {
	Angles []Angles

	idx int
}

func (s *SequenceAngles) Sample() Angles {
	if len(s.Angles) == 0 {
		return Angles{}
	}
	a := s.Angles[s.idx%len(s.Angles)]
	s.idx++
	return a
}

// TurntableAngles moves the camera around the vertical axis
// in Total even steps at a fixed elevation.
type TurntableAngles struct {
	Elevation float64
	Total     int

	idx int
}

func (t *TurntableAngles) Sample() Angles {
	total := t.Total
	if total <= 0 {
		total = 1
	}
	theta := math.Pi * 2 * float64(t.idx%total) / float64(total)
	t.idx++
	return Angles{Azimuth: theta, Elevation: t.Elevation}
}
