package body

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// BlackHole is a static gravity source. A Reach of zero or less means the
// hole attracts every ball on the table.
type BlackHole struct {
	Pos    r2.Vec
	Mass   float64
	Radius float64
	Reach  float64
}

func NewBlackHole(pos r2.Vec, mass, radius, reach float64) (BlackHole, error) {
	h := BlackHole{Pos: pos, Mass: mass, Radius: radius, Reach: reach}
	if err := h.Validate(); err != nil {
		return BlackHole{}, err
	}
	return h, nil
}

func (h BlackHole) Validate() error {
	if !(h.Mass > 0) {
		return fmt.Errorf("%w: black hole mass %v", ErrInvalidGeometry, h.Mass)
	}
	if h.Radius < 0 {
		return fmt.Errorf("%w: black hole radius %v", ErrInvalidGeometry, h.Radius)
	}
	if !finite(h.Pos) {
		return fmt.Errorf("%w: black hole position is not finite", ErrInvalidGeometry)
	}
	return nil
}

// InReach reports whether the hole's gravity acts at distance d.
func (h BlackHole) InReach(d float64) bool {
	return h.Reach <= 0 || d < h.Reach
}

// Swallows reports whether b has crossed into the hole.
func (h BlackHole) Swallows(b Ball) bool {
	return r2.Norm(r2.Sub(h.Pos, b.Pos)) < h.Radius+b.Radius
}

// Pocket is a capture zone. A ball is removed from play once it touches it.
type Pocket struct {
	Pos    r2.Vec
	Radius float64
}

// NewPocket returns a pocket, or ErrInvalidGeometry if radius is negative.
func NewPocket(pos r2.Vec, radius float64) (Pocket, error) {
	p := Pocket{Pos: pos, Radius: radius}
	if err := p.Validate(); err != nil {
		return Pocket{}, err
	}
	return p, nil
}

// Validate returns ErrInvalidGeometry if the radius is negative or the
// position is not finite.
func (p Pocket) Validate() error {
	if p.Radius < 0 || !finite(p.Pos) {
		return fmt.Errorf("%w: pocket at %v radius %v", ErrInvalidGeometry, p.Pos, p.Radius)
	}
	return nil
}

// Captures reports whether b touches the pocket.
func (p Pocket) Captures(b Ball) bool {
	return r2.Norm(r2.Sub(p.Pos, b.Pos)) <= p.Radius+b.Radius
}
