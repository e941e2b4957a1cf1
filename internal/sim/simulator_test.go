package sim

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/san-kum/biljard/internal/body"
	"github.com/san-kum/biljard/internal/physics"
	"gonum.org/v1/gonum/spatial/r2"
)

func frictionless() physics.Settings {
	return physics.Settings{G: 1, Restitution: 1}
}

func testBall(id int, x, y, vx, vy float64) body.Ball {
	return body.Ball{ID: id, Pos: r2.Vec{X: x, Y: y}, Vel: r2.Vec{X: vx, Y: vy}, Radius: 1, Mass: 0.1}
}

func mustBox(t testing.TB, w, h float64) []body.Wall {
	walls, err := body.Box(r2.Vec{}, r2.Vec{X: w, Y: h}, 0)
	if err != nil {
		t.Fatalf("Box: %v", err)
	}
	return walls
}

func randomTable(t testing.TB, seed int64, n int) Scene {
	rng := rand.New(rand.NewSource(seed))
	scene := Scene{Walls: mustBox(t, 100, 100)}
	for len(scene.Balls) < n {
		b := testBall(len(scene.Balls), 2+rng.Float64()*96, 2+rng.Float64()*96, rng.NormFloat64()*5, rng.NormFloat64()*5)
		overlaps := false
		for _, o := range scene.Balls {
			if r2.Norm(r2.Sub(o.Pos, b.Pos)) <= 2.01 {
				overlaps = true
				break
			}
		}
		if !overlaps {
			scene.Balls = append(scene.Balls, b)
		}
	}
	return scene
}

func TestSimulatorHeadOn(t *testing.T) {
	scene := Scene{Balls: []body.Ball{testBall(1, 0, 0, 1, 0), testBall(2, 5, 0, 0, 0)}}
	s, err := New(scene, frictionless())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	events, err := s.Step(context.Background(), 4)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if ev := events[0]; ev.Kind != EventBallBall || ev.Time != 3 || ev.Ball != 1 || ev.Other != 2 {
		t.Errorf("unexpected event %+v", ev)
	}

	balls := s.Balls()
	if balls[0].Pos != (r2.Vec{X: 3}) || balls[0].IsMoving() {
		t.Errorf("expected ball 1 at rest at (3,0), got %v moving %v", balls[0].Pos, balls[0].Vel)
	}
	if balls[1].Pos != (r2.Vec{X: 6}) || balls[1].Vel != (r2.Vec{X: 1}) {
		t.Errorf("expected ball 2 at (6,0) moving (1,0), got %v %v", balls[1].Pos, balls[1].Vel)
	}
	if s.Time() != 4 {
		t.Errorf("expected time 4, got %v", s.Time())
	}
}

func TestSimulatorWallBounce(t *testing.T) {
	scene := Scene{
		Balls: []body.Ball{testBall(1, 5, 5, 2, 0)},
		Walls: mustBox(t, 10, 10),
	}
	s, err := New(scene, frictionless())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	events, err := s.Step(context.Background(), 3)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(events) != 1 || events[0].Kind != EventBallWall || events[0].Time != 2 {
		t.Fatalf("expected one wall event at t=2, got %+v", events)
	}

	b := s.Balls()[0]
	if math.Abs(b.Pos.X-7) > 1e-12 || b.Pos.Y != 5 {
		t.Errorf("expected ball at (7,5), got %v", b.Pos)
	}
	if b.Vel != (r2.Vec{X: -2}) {
		t.Errorf("expected velocity (-2,0), got %v", b.Vel)
	}
}

func TestSimulatorConservesEnergyInBox(t *testing.T) {
	s, err := New(randomTable(t, 1, 30), frictionless())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e0 := s.Scene().KineticEnergy()

	result, err := s.Run(context.Background(), Config{Dt: 0.05, Duration: 10, RecordEvery: 10})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Events) == 0 {
		t.Fatal("expected collisions on a crowded table")
	}

	e1 := s.Scene().KineticEnergy()
	if math.Abs(e1-e0)/e0 > 1e-9 {
		t.Errorf("energy drifted from %v to %v", e0, e1)
	}
	if math.Abs(result.EnergyChange) > 1e-9 {
		t.Errorf("expected negligible energy change, got %v", result.EnergyChange)
	}

	for _, b := range s.Balls() {
		for _, w := range s.Scene().Walls {
			if d := w.Distance(b.Pos); d < b.Radius-1e-6 {
				t.Errorf("ball %d penetrated a wall: distance %v", b.ID, d)
			}
		}
	}
}

func TestSimulatorParallelSearchIsDeterministic(t *testing.T) {
	scene := randomTable(t, 2, 60)
	run := func(workers int) (*Result, []body.Ball) {
		s, err := New(scene, frictionless(), WithWorkers(workers))
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		result, err := s.Run(context.Background(), Config{Dt: 0.05, Duration: 5})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return result, s.Balls()
	}

	r1, b1 := run(1)
	r4, b4 := run(4)

	if len(r1.Events) != len(r4.Events) {
		t.Fatalf("event count differs: %d vs %d", len(r1.Events), len(r4.Events))
	}
	for i := range r1.Events {
		if r1.Events[i] != r4.Events[i] {
			t.Fatalf("event %d differs: %+v vs %+v", i, r1.Events[i], r4.Events[i])
		}
	}
	for i := range b1 {
		if b1[i] != b4[i] {
			t.Errorf("ball %d differs: %+v vs %+v", b1[i].ID, b1[i], b4[i])
		}
	}
}

func TestSimulatorFrictionStopsBall(t *testing.T) {
	scene := Scene{Balls: []body.Ball{testBall(1, 0, 0, 0.5, 0)}}
	s, err := New(scene, physics.Settings{Friction: 1, Restitution: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Step(context.Background(), 1); err != nil {
		t.Fatalf("Step: %v", err)
	}
	b := s.Balls()[0]
	if b.IsMoving() || b.Pos != (r2.Vec{}) {
		t.Errorf("expected ball at rest at origin, got %v %v", b.Pos, b.Vel)
	}
}

func TestRunEnergyChangeCountsRemovals(t *testing.T) {
	scene := Scene{
		Balls:   []body.Ball{testBall(1, 0, 0, 1, 0), testBall(2, 0, 10, 1, 0)},
		Pockets: []body.Pocket{{Pos: r2.Vec{X: 5}, Radius: 0.5}},
	}
	s, err := New(scene, frictionless())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := s.Run(context.Background(), Config{Dt: 0.5, Duration: 5})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(s.Balls()) != 1 {
		t.Fatalf("expected one ball pocketed, %d left", len(s.Balls()))
	}
	if math.Abs(result.EnergyChange+0.5) > 1e-12 {
		t.Errorf("expected energy change -0.5 after losing half the table, got %v", result.EnergyChange)
	}
}

func TestRunEnergyChangeWithFriction(t *testing.T) {
	scene := Scene{Balls: []body.Ball{testBall(1, 0, 0, 2, 0)}}
	s, err := New(scene, physics.Settings{Friction: 1, Restitution: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := s.Run(context.Background(), Config{Dt: 0.5, Duration: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Speed falls from 2 to 1, so a quarter of the energy is left.
	if math.Abs(result.EnergyChange+0.75) > 1e-12 {
		t.Errorf("expected energy change -0.75, got %v", result.EnergyChange)
	}
}

func TestSimulatorSwallowed(t *testing.T) {
	scene := Scene{
		Balls: []body.Ball{testBall(7, 5, 0, 0, 0)},
		Holes: []body.BlackHole{{Pos: r2.Vec{X: 10}, Mass: 5, Radius: 0.5}},
	}
	s, err := New(scene, frictionless())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := s.Run(context.Background(), Config{Dt: 0.01, Duration: 10})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(s.Balls()) != 0 {
		t.Fatalf("expected the ball to be swallowed, %d left", len(s.Balls()))
	}
	last := result.Events[len(result.Events)-1]
	if last.Kind != EventSwallowed || last.Ball != 7 || last.Other != 0 {
		t.Errorf("unexpected final event %+v", last)
	}
}

func TestSimulatorPocketed(t *testing.T) {
	scene := Scene{
		Balls:   []body.Ball{testBall(1, 0, 0, 1, 0), testBall(2, 0, 10, 0, 0)},
		Pockets: []body.Pocket{{Pos: r2.Vec{X: 5}, Radius: 0.5}},
	}
	s, err := New(scene, frictionless())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var pocketed []Event
	for i := 0; i < 5; i++ {
		events, err := s.Step(context.Background(), 1)
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
		pocketed = append(pocketed, events...)
	}
	if len(pocketed) != 1 || pocketed[0].Kind != EventPocketed || pocketed[0].Ball != 1 {
		t.Fatalf("expected ball 1 pocketed, got %+v", pocketed)
	}
	if balls := s.Balls(); len(balls) != 1 || balls[0].ID != 2 {
		t.Errorf("expected only ball 2 left, got %+v", balls)
	}
}

func TestSimulatorEventBudget(t *testing.T) {
	left, _ := body.NewLine(r2.Vec{}, r2.Vec{X: 1})
	right, _ := body.NewLine(r2.Vec{X: 2}, r2.Vec{X: -1})
	scene := Scene{
		Balls: []body.Ball{testBall(1, 1, 0, 1, 0)},
		Walls: []body.Wall{left, right},
	}
	s, err := New(scene, frictionless(), WithMaxEvents(5))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	events, err := s.Step(context.Background(), 0.1)
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(events) != 5 {
		t.Errorf("expected 5 events before the budget ran out, got %d", len(events))
	}
	if s.Time() != 0.1 {
		t.Errorf("expected the step to finish at 0.1, got %v", s.Time())
	}
}

func TestSimulatorGravityField(t *testing.T) {
	scene := Scene{
		Balls: []body.Ball{testBall(1, 0, 0, 0, 1)},
		Holes: []body.BlackHole{{Pos: r2.Vec{X: 20}, Mass: 3}},
	}
	exact := frictionless()
	approx := exact
	approx.GravityTheta = 0.5

	run := func(settings physics.Settings) body.Ball {
		s, err := New(scene, settings)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if _, err := s.Run(context.Background(), Config{Dt: 0.01, Duration: 2}); err != nil {
			t.Fatalf("Run: %v", err)
		}
		return s.Balls()[0]
	}

	a, b := run(exact), run(approx)
	if r2.Norm(r2.Sub(a.Pos, b.Pos)) > 1e-9 {
		t.Errorf("single-hole field should match the exact sum: %v vs %v", a.Pos, b.Pos)
	}
	if a.Vel.X <= 0 {
		t.Errorf("expected the ball to be pulled toward the hole, got %v", a.Vel)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	s, err := New(Scene{}, frictionless())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
		{"negative duration", Config{Dt: 0.1, Duration: -1.0}},
		{"negative event budget", Config{Dt: 0.1, Duration: 1, MaxEventsPerStep: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Run(context.Background(), tt.cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	if _, err := s.Step(context.Background(), 0); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Step(0): expected ErrInvalidConfig, got %v", err)
	}
}

func TestNewRejectsInvalidInput(t *testing.T) {
	dup := Scene{Balls: []body.Ball{testBall(1, 0, 0, 0, 0), testBall(1, 5, 0, 0, 0)}}
	if _, err := New(dup, frictionless()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("duplicate ids: expected ErrInvalidConfig, got %v", err)
	}

	bad := Scene{Balls: []body.Ball{{ID: 1, Radius: 0, Mass: 1}}}
	if _, err := New(bad, frictionless()); !errors.Is(err, body.ErrInvalidGeometry) {
		t.Errorf("zero radius: expected ErrInvalidGeometry, got %v", err)
	}

	if _, err := New(Scene{}, physics.Settings{Friction: -1}); !errors.Is(err, physics.ErrInvalidSettings) {
		t.Errorf("negative friction: expected ErrInvalidSettings, got %v", err)
	}

	if _, err := New(Scene{}, frictionless(), WithMaxEvents(0)); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("zero event budget: expected ErrInvalidConfig, got %v", err)
	}
}

func TestSimulatorUnstable(t *testing.T) {
	scene := Scene{Balls: []body.Ball{testBall(1, 0, 0, 1e308, 0)}}
	s, err := New(scene, frictionless())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = s.Run(context.Background(), Config{Dt: 10, Duration: 20, ValidateState: true})
	var simErr SimError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected SimError, got %v", err)
	}
	if simErr.Step != 0 || !errors.Is(err, ErrUnstable) {
		t.Errorf("expected ErrUnstable at step 0, got %v", err)
	}
}

func TestSimulatorCancel(t *testing.T) {
	s, err := New(randomTable(t, 3, 10), frictionless())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.Run(ctx, Config{Dt: 0.01, Duration: 1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if result == nil || result.StepsTaken != 0 {
		t.Errorf("expected an empty partial result, got %+v", result)
	}
}

type frameCounter struct {
	count int
}

func (f *frameCounter) Name() string    { return "frames" }
func (f *frameCounter) Observe(Frame)   { f.count++ }
func (f *frameCounter) Value() float64  { return float64(f.count) }
func (f *frameCounter) Reset()          { f.count = 0 }
func (f *frameCounter) OnStep(fr Frame) { f.count += 100 }

func TestSimulatorMetricsAndFrames(t *testing.T) {
	s, err := New(Scene{Balls: []body.Ball{testBall(1, 0, 0, 1, 0)}}, frictionless())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	metric := &frameCounter{}
	s.AddMetric(metric)

	result, err := s.Run(context.Background(), Config{Dt: 0.1, Duration: 1.0, RecordEvery: 3})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if got := result.Metrics["frames"]; got != 10 {
		t.Errorf("expected 10 observations, got %v", got)
	}
	// Initial frame, steps 3, 6, 9 and the final step.
	if len(result.Frames) != 5 {
		t.Errorf("expected 5 frames, got %d", len(result.Frames))
	}
	if last := result.Frames[len(result.Frames)-1]; math.Abs(last.Time-1) > 1e-9 {
		t.Errorf("expected last frame at t=1, got %v", last.Time)
	}
}

func TestSimulatorObserver(t *testing.T) {
	s, _ := New(Scene{}, frictionless())
	obs := &frameCounter{}
	s.AddObserver(obs)
	if _, err := s.Run(context.Background(), Config{Dt: 0.5, Duration: 1}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if obs.count != 200 {
		t.Errorf("expected 2 observer calls, got count %d", obs.count)
	}
}

func TestSimulatorReset(t *testing.T) {
	scene := Scene{Balls: []body.Ball{testBall(1, 0, 0, 1, 0)}}
	s, _ := New(scene, frictionless())
	s.Step(context.Background(), 1)
	s.Reset()
	if s.Time() != 0 || s.Balls()[0].Pos != (r2.Vec{}) {
		t.Errorf("expected initial state after reset, got t=%v pos=%v", s.Time(), s.Balls()[0].Pos)
	}
}

func TestEnsemble(t *testing.T) {
	scenes := []Scene{randomTable(t, 4, 8), randomTable(t, 5, 8), randomTable(t, 6, 8)}
	e := NewEnsemble(frictionless(), WithWorkers(1))
	e.NewMetrics = func() []Metric { return []Metric{&frameCounter{}} }

	results, err := e.Run(context.Background(), scenes, Config{Dt: 0.1, Duration: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Metrics["frames"] != 10 {
			t.Errorf("run %d: expected 10 frames observed, got %v", i, r.Metrics["frames"])
		}
	}

	scenes = append(scenes, Scene{Balls: []body.Ball{{ID: 1}}})
	if _, err := e.Run(context.Background(), scenes, Config{Dt: 0.1, Duration: 1}); err == nil {
		t.Error("expected an error for an invalid scene")
	}
}
