package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/biljard/internal/body"
	"gonum.org/v1/gonum/spatial/r2"
)

// TimeToBallBallCollision returns the earliest t >= 0 at which a and b,
// moving at constant velocity, touch; +Inf if they never do. Balls that
// break their shape invariants give ErrInvalidGeometry.
//
// Overlapping balls that are still closing report 0. Overlapping balls that
// are separating or at rest relative to each other report +Inf rather than
// 0, so a contact that has been resolved is not reported again.
func TimeToBallBallCollision(a, b body.Ball) (float64, error) {
	if err := a.Validate(); err != nil {
		return math.NaN(), err
	}
	if err := b.Validate(); err != nil {
		return math.NaN(), err
	}
	return contactTime(r2.Sub(a.Pos, b.Pos), r2.Sub(a.Vel, b.Vel), a.Radius+b.Radius), nil
}

// TimeToWallCollision returns the earliest t >= 0 at which ball touches w,
// or +Inf. The face of a wall is one-sided: a ball moving parallel to or
// away from it never hits the face, and neither does a ball entirely behind
// it.
//
// The endpoints of a segment are point obstacles from every side. They
// catch a ball whose centre is beyond the segment's ends at contact,
// including one sliding along the segment's line.
func TimeToWallCollision(ball body.Ball, w body.Wall) (float64, error) {
	if err := ball.Validate(); err != nil {
		return math.NaN(), err
	}
	if err := w.Validate(); err != nil {
		return math.NaN(), err
	}

	vn := r2.Dot(ball.Vel, w.Normal)
	if d := w.Distance(ball.Pos); vn < 0 && d >= -ball.Radius {
		t := 0.0
		if d > ball.Radius {
			t = (d - ball.Radius) / -vn
		}
		if w.Infinite {
			return t, nil
		}
		if s := w.Project(ball.Advance(t).Pos); s >= 0 && s <= w.Length() {
			return t, nil
		}
	}
	if w.Infinite {
		return math.Inf(1), nil
	}
	return endpointTime(ball, w), nil
}

// endpointTime is the earliest contact with either end of segment w at
// which the ball's centre lies beyond that end. Contacts with the centre
// over the segment belong to the face.
func endpointTime(ball body.Ball, w body.Wall) float64 {
	best := math.Inf(1)
	if t := contactTime(r2.Sub(ball.Pos, w.A), ball.Vel, ball.Radius); !math.IsInf(t, 1) &&
		w.Project(ball.Advance(t).Pos) < 0 {
		best = t
	}
	if t := contactTime(r2.Sub(ball.Pos, w.B), ball.Vel, ball.Radius); t < best &&
		w.Project(ball.Advance(t).Pos) > w.Length() {
		best = t
	}
	return best
}

// ContactNormal returns the unit direction in which w pushes ball at
// contact: the wall normal on the face, or the direction from the nearest
// endpoint when the ball is beyond the segment's ends.
func ContactNormal(ball body.Ball, w body.Wall) (r2.Vec, error) {
	if w.Infinite {
		return w.Normal, nil
	}

	var end r2.Vec
	switch s := w.Project(ball.Pos); {
	case s < 0:
		end = w.A
	case s > w.Length():
		end = w.B
	default:
		return w.Normal, nil
	}

	d := r2.Sub(ball.Pos, end)
	if r2.Norm2(d) == 0 {
		return r2.Vec{}, fmt.Errorf("ball %d: %w: centre on wall endpoint", ball.ID, ErrDegenerateInput)
	}
	return r2.Unit(d), nil
}

// contactTime solves |dp + t*dv| = r for the smallest t >= 0, where dp and
// dv are relative position and velocity.
func contactTime(dp, dv r2.Vec, r float64) float64 {
	c := r2.Norm2(dp) - r*r
	k := r2.Dot(dp, dv)

	if c <= 0 {
		if k < 0 {
			return 0
		}
		return math.Inf(1)
	}
	if k >= 0 {
		return math.Inf(1)
	}

	a := r2.Norm2(dv)
	disc := k*k - a*c
	if disc < 0 {
		return math.Inf(1)
	}
	// c/(-k+sqrt(disc)) is the smaller root without the cancellation of
	// (-k-sqrt(disc))/a when the trajectories barely graze.
	return c / (-k + math.Sqrt(disc))
}
