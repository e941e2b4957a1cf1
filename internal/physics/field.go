package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/biljard/internal/body"
	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r2"
)

// GravityField approximates the pull of many black holes with a Barnes-Hut
// quadtree. Holes with a finite reach are always summed exactly, since the
// tree cannot cut off an aggregate at a per-hole distance.
//
// barneshut.Plane only summarises unit masses correctly, so holes are
// grouped by mass into unit-mass planes and each group's pull is scaled by
// its mass.
type GravityField struct {
	settings Settings
	groups   []massGroup
	bounded  []body.BlackHole
}

type massGroup struct {
	mass  float64
	plane *barneshut.Plane
}

type pointMass struct {
	pos  r2.Vec
	mass float64
}

func (p pointMass) Coord2() r2.Vec { return p.pos }
func (p pointMass) Mass() float64  { return p.mass }

func NewGravityField(s Settings, holes []body.BlackHole) (*GravityField, error) {
	f := &GravityField{settings: s}

	var masses []float64
	byMass := make(map[float64][]barneshut.Particle2)
	for _, h := range holes {
		if err := h.Validate(); err != nil {
			return nil, err
		}
		if h.Reach > 0 {
			f.bounded = append(f.bounded, h)
			continue
		}
		if _, ok := byMass[h.Mass]; !ok {
			masses = append(masses, h.Mass)
		}
		byMass[h.Mass] = append(byMass[h.Mass], pointMass{pos: h.Pos, mass: 1})
	}

	for _, m := range masses {
		plane, err := barneshut.NewPlane(byMass[m])
		if err != nil {
			return nil, fmt.Errorf("physics: building gravity field: %w", err)
		}
		f.groups = append(f.groups, massGroup{mass: m, plane: plane})
	}
	return f, nil
}

// Acceleration returns the approximate gravitational acceleration on ball.
// With GravityTheta 0 the result matches CalculateGravity up to rounding.
func (f *GravityField) Acceleration(ball body.Ball) (r2.Vec, error) {
	acc, err := f.settings.CalculateGravity(ball, f.bounded)
	if err != nil {
		return r2.Vec{}, err
	}

	var degenerate bool
	pull := func(_, _ barneshut.Particle2, _, m2 float64, v r2.Vec) r2.Vec {
		d2 := r2.Norm2(v)
		if d2 == 0 {
			degenerate = true
			return r2.Vec{}
		}
		return r2.Scale(m2/(d2*math.Sqrt(d2)), v)
	}

	probe := pointMass{pos: ball.Pos, mass: 1}
	for _, g := range f.groups {
		a := g.plane.ForceOn(probe, f.settings.GravityTheta, pull)
		if degenerate {
			return r2.Vec{}, fmt.Errorf("ball %d: %w: ball centre on a black hole", ball.ID, ErrDegenerateInput)
		}
		acc = r2.Add(acc, r2.Scale(f.settings.G*g.mass, a))
	}
	return acc, nil
}
