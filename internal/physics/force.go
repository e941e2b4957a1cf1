package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/biljard/internal/body"
	"gonum.org/v1/gonum/spatial/r2"
)

// GravityAcceleration returns G*mass/distance², the magnitude of the
// acceleration a point mass produces at distance. A zero distance returns
// +Inf together with ErrDegenerateInput.
func (s Settings) GravityAcceleration(mass, distance float64) (float64, error) {
	if distance == 0 {
		return math.Inf(1), fmt.Errorf("%w: zero distance to point mass", ErrDegenerateInput)
	}
	if !(distance > 0) {
		return 0, fmt.Errorf("%w: distance %v", body.ErrInvalidGeometry, distance)
	}
	if !(mass > 0) {
		return 0, fmt.Errorf("%w: attracting mass %v", body.ErrInvalidGeometry, mass)
	}
	return s.G * mass / (distance * distance), nil
}

// CalculateGravity sums the pull of every black hole in reach of ball,
// each directed from the ball toward the hole.
func (s Settings) CalculateGravity(ball body.Ball, holes []body.BlackHole) (r2.Vec, error) {
	var acc r2.Vec
	for _, h := range holes {
		d := r2.Sub(h.Pos, ball.Pos)
		dist := r2.Norm(d)
		if !h.InReach(dist) {
			continue
		}
		mag, err := s.GravityAcceleration(h.Mass, dist)
		if err != nil {
			return r2.Vec{}, fmt.Errorf("ball %d: %w", ball.ID, err)
		}
		acc = r2.Add(acc, r2.Scale(mag/dist, d))
	}
	return acc, nil
}

// CalculateFriction returns an acceleration of magnitude s.Friction opposing
// the ball's velocity, or the zero vector for a stationary ball.
func (s Settings) CalculateFriction(ball body.Ball) (r2.Vec, error) {
	if err := ball.Validate(); err != nil {
		return r2.Vec{}, err
	}
	if !ball.IsMoving() {
		return r2.Vec{}, nil
	}
	return r2.Scale(-s.Friction, r2.Unit(ball.Vel)), nil
}

// ApplyFriction slows vel by friction*dt without letting it pass through
// zero: a velocity smaller than the loss comes to rest.
func ApplyFriction(vel r2.Vec, friction, dt float64) r2.Vec {
	speed := r2.Norm(vel)
	loss := friction * dt
	if speed <= loss {
		return r2.Vec{}
	}
	return r2.Scale((speed-loss)/speed, vel)
}
