package physics

import (
	"fmt"

	"github.com/san-kum/biljard/internal/body"
	"gonum.org/v1/gonum/spatial/r2"
)

// BallBallCollision advances a and b by dt at their current velocities,
// which should bring them into contact, and then exchanges momentum along
// the line between their centres as a perfectly elastic collision.
// Tangential velocity components are unchanged.
//
// Swapping the arguments swaps the results bit for bit.
func BallBallCollision(a, b body.Ball, dt float64) (body.Ball, body.Ball, error) {
	if err := a.Validate(); err != nil {
		return a, b, err
	}
	if err := b.Validate(); err != nil {
		return a, b, err
	}

	a, b = a.Advance(dt), b.Advance(dt)

	d := r2.Sub(a.Pos, b.Pos)
	if r2.Norm2(d) == 0 {
		return a, b, fmt.Errorf("balls %d and %d: %w: coincident centres", a.ID, b.ID, ErrDegenerateInput)
	}
	n := r2.Unit(d)

	p := 2 * (r2.Dot(a.Vel, n) - r2.Dot(b.Vel, n)) / (a.Mass + b.Mass)
	a.Vel = r2.Sub(a.Vel, r2.Scale(p*b.Mass, n))
	b.Vel = r2.Add(b.Vel, r2.Scale(p*a.Mass, n))

	return a, b, nil
}

// BallWallCollision mirrors the ball's velocity across the wall surface at
// the contact point.
func BallWallCollision(ball body.Ball, w body.Wall) (r2.Vec, error) {
	return BallWallCollisionRestitution(ball, w, 1)
}

// BallWallCollisionRestitution reverses the normal component of the ball's
// velocity scaled by e, leaving the tangential component unchanged.
func BallWallCollisionRestitution(ball body.Ball, w body.Wall, e float64) (r2.Vec, error) {
	if err := ball.Validate(); err != nil {
		return ball.Vel, err
	}
	n, err := ContactNormal(ball, w)
	if err != nil {
		return ball.Vel, err
	}
	vn := r2.Dot(ball.Vel, n)
	return r2.Sub(ball.Vel, r2.Scale((1+e)*vn, n)), nil
}
