package body

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// Wall is a static boundary. Normal is a unit vector pointing toward the
// side balls are allowed on; walls are one-sided. For an infinite wall A is
// a point on the line and B a second point along it, so Direction is still
// defined.
type Wall struct {
	A        r2.Vec
	B        r2.Vec
	Normal   r2.Vec
	Infinite bool
}

// NewSegment returns a finite wall from a to b. The playing side is to the
// left when walking from a to b.
func NewSegment(a, b r2.Vec) (Wall, error) {
	if !finite(a) || !finite(b) {
		return Wall{}, fmt.Errorf("%w: wall endpoints must be finite", ErrInvalidGeometry)
	}
	d := r2.Sub(b, a)
	if r2.Norm2(d) == 0 {
		return Wall{}, fmt.Errorf("%w: wall endpoints coincide at %v", ErrInvalidGeometry, a)
	}
	u := r2.Unit(d)
	return Wall{A: a, B: b, Normal: r2.Vec{X: -u.Y, Y: u.X}}, nil
}

// NewLine returns an infinite wall through point facing normal.
func NewLine(point, normal r2.Vec) (Wall, error) {
	if !finite(point) || !finite(normal) {
		return Wall{}, fmt.Errorf("%w: line must be finite", ErrInvalidGeometry)
	}
	if r2.Norm2(normal) == 0 {
		return Wall{}, fmt.Errorf("%w: line normal is zero", ErrInvalidGeometry)
	}
	n := r2.Unit(normal)
	tangent := r2.Vec{X: n.Y, Y: -n.X}
	return Wall{A: point, B: r2.Add(point, tangent), Normal: n, Infinite: true}, nil
}

// Validate returns ErrInvalidGeometry for a zero-length wall or a normal that
// is not a finite unit vector.
func (w Wall) Validate() error {
	if r2.Norm2(r2.Sub(w.B, w.A)) == 0 {
		return fmt.Errorf("%w: wall endpoints coincide", ErrInvalidGeometry)
	}
	n := r2.Norm(w.Normal)
	if !finite(w.Normal) || n < 1-1e-9 || n > 1+1e-9 {
		return fmt.Errorf("%w: wall normal %v is not a unit vector", ErrInvalidGeometry, w.Normal)
	}
	return nil
}

// Direction is the unit tangent from A to B.
func (w Wall) Direction() r2.Vec { return r2.Unit(r2.Sub(w.B, w.A)) }

func (w Wall) Length() float64 { return r2.Norm(r2.Sub(w.B, w.A)) }

// Distance returns the signed distance from p to the wall's line, positive
// on the playing side.
func (w Wall) Distance(p r2.Vec) float64 {
	return r2.Dot(r2.Sub(p, w.A), w.Normal)
}

// Project returns the position of p's projection along the wall measured
// from A, in the same units as Length.
func (w Wall) Project(p r2.Vec) float64 {
	return r2.Dot(r2.Sub(p, w.A), w.Direction())
}
