package body

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Ball is a circular body moving freely on the table.
type Ball struct {
	ID     int
	Pos    r2.Vec
	Vel    r2.Vec
	Radius float64
	Mass   float64
}

// NewBall returns a stationary ball, or ErrInvalidGeometry if radius or mass
// is not strictly positive.
func NewBall(id int, pos r2.Vec, radius, mass float64) (Ball, error) {
	b := Ball{ID: id, Pos: pos, Radius: radius, Mass: mass}
	if err := b.Validate(); err != nil {
		return Ball{}, err
	}
	return b, nil
}

// Validate returns ErrInvalidGeometry if the radius or mass is not strictly
// positive or any coordinate is not finite.
func (b Ball) Validate() error {
	if !(b.Radius > 0) || math.IsInf(b.Radius, 0) {
		return fmt.Errorf("%w: ball %d radius %v", ErrInvalidGeometry, b.ID, b.Radius)
	}
	if !(b.Mass > 0) || math.IsInf(b.Mass, 0) {
		return fmt.Errorf("%w: ball %d mass %v", ErrInvalidGeometry, b.ID, b.Mass)
	}
	if !finite(b.Pos) || !finite(b.Vel) {
		return fmt.Errorf("%w: ball %d has non-finite kinematics", ErrInvalidGeometry, b.ID)
	}
	return nil
}

// Advance moves the ball along its current velocity for dt seconds.
func (b Ball) Advance(dt float64) Ball {
	b.Pos = r2.Add(b.Pos, r2.Scale(dt, b.Vel))
	return b
}

// Accelerate applies a constant acceleration for dt seconds.
func (b Ball) Accelerate(a r2.Vec, dt float64) Ball {
	b.Vel = r2.Add(b.Vel, r2.Scale(dt, a))
	return b
}

func (b Ball) Speed() float64 { return r2.Norm(b.Vel) }

func (b Ball) Momentum() r2.Vec { return r2.Scale(b.Mass, b.Vel) }

func (b Ball) KineticEnergy() float64 {
	return 0.5 * b.Mass * r2.Norm2(b.Vel)
}

func (b Ball) IsMoving() bool { return b.Vel.X != 0 || b.Vel.Y != 0 }

func finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
