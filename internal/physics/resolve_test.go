package physics

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/biljard/internal/body"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestBallBallCollisionEqualMass(t *testing.T) {
	a := ball(0, 0, 1, 0)
	b := ball(4, 0, -1, 0)

	a, b, err := BallBallCollision(a, b, 1)
	if err != nil {
		t.Fatalf("BallBallCollision: %v", err)
	}

	if a.Pos != (r2.Vec{X: 1}) || b.Pos != (r2.Vec{X: 3}) {
		t.Errorf("expected positions (1,0) and (3,0), got %v and %v", a.Pos, b.Pos)
	}
	if a.Vel != (r2.Vec{X: -1}) || b.Vel != (r2.Vec{X: 1}) {
		t.Errorf("expected swapped velocities, got %v and %v", a.Vel, b.Vel)
	}
}

func TestBallBallCollisionDiagonal(t *testing.T) {
	a := ball(0, 0, 1, 1)
	b := ball(4, 4, -1, -1)

	dt := ballTime(t, a, b)
	a, b, err := BallBallCollision(a, b, dt)
	if err != nil {
		t.Fatalf("BallBallCollision: %v", err)
	}

	if r2.Norm(r2.Sub(a.Vel, r2.Vec{X: -1, Y: -1})) > 1e-12 {
		t.Errorf("expected a to bounce back along the diagonal, got %v", a.Vel)
	}
	if r2.Norm(r2.Sub(b.Vel, r2.Vec{X: 1, Y: 1})) > 1e-12 {
		t.Errorf("expected b to bounce back along the diagonal, got %v", b.Vel)
	}
}

func TestBallBallCollisionUnequalMass(t *testing.T) {
	a := body.Ball{Pos: r2.Vec{X: -1}, Vel: r2.Vec{X: 2}, Radius: 1, Mass: 1}
	b := body.Ball{Pos: r2.Vec{X: 1}, Radius: 1, Mass: 3}

	a, b, err := BallBallCollision(a, b, 0)
	if err != nil {
		t.Fatalf("BallBallCollision: %v", err)
	}
	if math.Abs(a.Vel.X+1) > 1e-12 || math.Abs(b.Vel.X-1) > 1e-12 {
		t.Errorf("expected velocities -1 and 1, got %v and %v", a.Vel.X, b.Vel.X)
	}
}

func TestBallBallCollisionTangential(t *testing.T) {
	// Glancing hit along x: the y components must survive untouched.
	a := body.Ball{Pos: r2.Vec{}, Vel: r2.Vec{X: 1, Y: 3}, Radius: 1, Mass: 0.1}
	b := body.Ball{Pos: r2.Vec{X: 2}, Vel: r2.Vec{X: -2, Y: -5}, Radius: 1, Mass: 0.1}

	a, b, err := BallBallCollision(a, b, 0)
	if err != nil {
		t.Fatalf("BallBallCollision: %v", err)
	}
	if a.Vel != (r2.Vec{X: -2, Y: 3}) || b.Vel != (r2.Vec{X: 1, Y: -5}) {
		t.Errorf("expected (-2,3) and (1,-5), got %v and %v", a.Vel, b.Vel)
	}
}

func TestBallBallCollisionConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		a := body.Ball{
			Pos:    r2.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64()},
			Vel:    r2.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64()},
			Radius: 1,
			Mass:   0.1 + rng.Float64(),
		}
		b := body.Ball{
			Pos:    r2.Vec{X: 5 + rng.NormFloat64(), Y: rng.NormFloat64()},
			Vel:    r2.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64()},
			Radius: 1,
			Mass:   0.1 + rng.Float64(),
		}

		p0 := r2.Add(a.Momentum(), b.Momentum())
		e0 := a.KineticEnergy() + b.KineticEnergy()

		a2, b2, err := BallBallCollision(a, b, 0)
		if err != nil {
			t.Fatalf("BallBallCollision: %v", err)
		}

		p1 := r2.Add(a2.Momentum(), b2.Momentum())
		e1 := a2.KineticEnergy() + b2.KineticEnergy()
		if r2.Norm(r2.Sub(p1, p0)) > 1e-12*(1+r2.Norm(p0)) {
			t.Errorf("momentum not conserved: %v -> %v", p0, p1)
		}
		if math.Abs(e1-e0) > 1e-12*(1+e0) {
			t.Errorf("energy not conserved: %v -> %v", e0, e1)
		}

		b3, a3, err := BallBallCollision(b, a, 0)
		if err != nil {
			t.Fatalf("BallBallCollision swapped: %v", err)
		}
		if a3 != a2 || b3 != b2 {
			t.Errorf("swapping arguments changed the result: %v %v vs %v %v", a2, b2, a3, b3)
		}
	}
}

func TestBallBallCollisionErrors(t *testing.T) {
	a := ball(1, 1, 0, 0)
	if _, _, err := BallBallCollision(a, a, 0); !errors.Is(err, ErrDegenerateInput) {
		t.Errorf("coincident centres: expected ErrDegenerateInput, got %v", err)
	}

	bad := ball(3, 1, 0, 0)
	bad.Mass = 0
	if _, _, err := BallBallCollision(a, bad, 0); !errors.Is(err, body.ErrInvalidGeometry) {
		t.Errorf("zero mass: expected ErrInvalidGeometry, got %v", err)
	}
}

func TestBallWallCollision(t *testing.T) {
	floor, _ := body.NewLine(r2.Vec{}, r2.Vec{Y: 1})
	b := ball(0, 1, 3, -4)

	v, err := BallWallCollision(b, floor)
	if err != nil {
		t.Fatalf("BallWallCollision: %v", err)
	}
	if v != (r2.Vec{X: 3, Y: 4}) {
		t.Errorf("expected (3,4), got %v", v)
	}
	if math.Abs(r2.Norm(v)-b.Speed()) > 1e-12 {
		t.Errorf("speed changed: %v -> %v", b.Speed(), r2.Norm(v))
	}

	v, err = BallWallCollisionRestitution(b, floor, 0.5)
	if err != nil {
		t.Fatalf("BallWallCollisionRestitution: %v", err)
	}
	if r2.Norm(r2.Sub(v, r2.Vec{X: 3, Y: 2})) > 1e-12 {
		t.Errorf("expected (3,2), got %v", v)
	}
}

func TestBallWallCollisionEndpoint(t *testing.T) {
	wall, _ := body.NewSegment(r2.Vec{X: 10, Y: -5}, r2.Vec{X: 10, Y: 5})
	b := ball(0, 5.5, 1, 0)
	b = b.Advance(wallTime(t, b, wall))

	v, err := BallWallCollision(b, wall)
	if err != nil {
		t.Fatalf("BallWallCollision: %v", err)
	}
	if math.Abs(r2.Norm(v)-1) > 1e-12 {
		t.Errorf("expected unit speed after corner bounce, got %v", r2.Norm(v))
	}
	if v.X >= 0 || v.Y <= 0 {
		t.Errorf("expected ball deflected back and up, got %v", v)
	}
}
