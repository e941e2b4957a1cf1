package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"

	"github.com/san-kum/biljard/internal/body"
	"github.com/san-kum/biljard/internal/physics"
	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultMaxEvents bounds the collisions resolved in a single step. Balls
// wedged between each other or against a wall can otherwise generate
// zero-time events forever.
const DefaultMaxEvents = 64

type Simulator struct {
	initial   Scene
	scene     Scene
	settings  physics.Settings
	field     *physics.GravityField
	time      float64
	workers   int
	maxEvents int
	logger    *slog.Logger
	metrics   []Metric
	observers []Observer
	pool      *candidatePool
}

type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWorkers sets how many goroutines search for the next collision.
// Values below 1 use GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *Simulator) { s.workers = n }
}

func WithMaxEvents(n int) Option {
	return func(s *Simulator) { s.maxEvents = n }
}

func New(scene Scene, settings physics.Settings, opts ...Option) (*Simulator, error) {
	if err := scene.Validate(); err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	s := &Simulator{
		initial:   scene.Clone(),
		scene:     scene.Clone(),
		settings:  settings,
		maxEvents: DefaultMaxEvents,
		logger:    slog.New(slog.DiscardHandler),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		pool:      newCandidatePool(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers < 1 {
		s.workers = runtime.GOMAXPROCS(0)
	}
	if s.maxEvents < 1 {
		return nil, fmt.Errorf("%w: max events per step must be positive, got %d", ErrInvalidConfig, s.maxEvents)
	}

	if settings.GravityTheta > 0 && len(scene.Holes) > 0 {
		field, err := physics.NewGravityField(settings, scene.Holes)
		if err != nil {
			return nil, err
		}
		s.field = field
	}
	return s, nil
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Time() float64              { return s.time }
func (s *Simulator) Settings() physics.Settings { return s.settings }

// Scene returns a copy of the current table.
func (s *Simulator) Scene() Scene { return s.scene.Clone() }

func (s *Simulator) Balls() []body.Ball {
	return append([]body.Ball(nil), s.scene.Balls...)
}

// Reset restores the scene the simulator was created with.
func (s *Simulator) Reset() {
	s.scene = s.initial.Clone()
	s.time = 0
}

// Step advances the table by dt. Forces act as an impulse at the start of
// the step; the balls then fly in straight lines, and every collision inside
// the step is resolved in time order. Balls that end the step inside a black
// hole or a pocket are removed.
func (s *Simulator) Step(ctx context.Context, dt float64) ([]Event, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, fmt.Errorf("%w: dt must be positive, got %v", ErrInvalidConfig, dt)
	}

	if err := s.applyForces(dt); err != nil {
		return nil, err
	}

	var events []Event
	start := s.time
	budget := dt
	for n := 0; ; n++ {
		if n == s.maxEvents {
			s.logger.Warn("event budget exhausted",
				"time", s.time, "events", n, "remaining", budget)
			s.advance(budget)
			break
		}

		c, err := s.nextCollision(ctx)
		if err != nil {
			return events, err
		}
		if c.t >= budget {
			s.advance(budget)
			break
		}

		s.time = start + (dt - budget) + c.t
		ev, err := s.resolve(c)
		if err != nil {
			return events, err
		}
		s.logger.Debug("collision",
			"kind", ev.Kind, "time", ev.Time, "ball", ev.Ball, "other", ev.Other, "speed", ev.Speed)
		events = append(events, ev)
		budget -= c.t
	}

	s.time = start + dt
	events = append(events, s.removeCaptured()...)
	return events, nil
}

// Run steps from the current state until cfg.Duration has elapsed.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.Workers > 0 {
		s.workers = cfg.Workers
	}
	if cfg.MaxEventsPerStep > 0 {
		s.maxEvents = cfg.MaxEventsPerStep
	}
	every := cfg.RecordEvery
	if every < 1 {
		every = 1
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		Frames:  make([]Frame, 0, steps/every+2),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	result.Frames = append(result.Frames, Frame{Time: s.time, Balls: s.Balls()})
	initialEnergy := s.scene.KineticEnergy()

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		events, err := s.Step(ctx, cfg.Dt)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}
			return result, SimError{Time: s.time, Step: i, Message: err.Error(), Err: err}
		}
		result.StepsTaken++
		result.Events = append(result.Events, events...)

		frame := Frame{Time: s.time, Balls: s.Balls(), Events: events}
		for _, m := range s.metrics {
			m.Observe(frame)
		}
		for _, obs := range s.observers {
			obs.OnStep(frame)
		}

		if cfg.ValidateState && !s.stateValid() {
			result.Frames = append(result.Frames, frame)
			return result, SimError{Time: s.time, Step: i, Message: "invalid state (NaN/Inf)", Err: ErrUnstable}
		}

		if (i+1)%every == 0 || i == steps-1 {
			result.Frames = append(result.Frames, frame)
		}
	}

	if initialEnergy != 0 {
		result.EnergyChange = (s.scene.KineticEnergy() - initialEnergy) / initialEnergy
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func validateConfig(cfg Config) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if !(cfg.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	if cfg.MaxEventsPerStep < 0 {
		return fmt.Errorf("%w: max events per step must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (s *Simulator) stateValid() bool {
	for _, b := range s.scene.Balls {
		if b.Validate() != nil {
			return false
		}
	}
	return true
}

func (s *Simulator) applyForces(dt float64) error {
	balls := s.scene.Balls
	for i, b := range balls {
		if len(s.scene.Holes) > 0 && s.settings.G > 0 {
			a, err := s.gravity(b)
			switch {
			case errors.Is(err, physics.ErrDegenerateInput):
				// The ball sits on a hole's centre and is removed at the
				// end of this step.
			case err != nil:
				return err
			default:
				b = b.Accelerate(a, dt)
			}
		}
		b.Vel = physics.ApplyFriction(b.Vel, s.settings.Friction, dt)
		balls[i] = b
	}
	return nil
}

func (s *Simulator) gravity(b body.Ball) (r2.Vec, error) {
	if s.field != nil {
		return s.field.Acceleration(b)
	}
	return s.settings.CalculateGravity(b, s.scene.Holes)
}

func (s *Simulator) advance(t float64) {
	for i := range s.scene.Balls {
		s.scene.Balls[i] = s.scene.Balls[i].Advance(t)
	}
}

// resolve moves the table to the moment of c and applies the collision.
func (s *Simulator) resolve(c candidate) (Event, error) {
	balls := s.scene.Balls

	switch c.kind {
	case EventBallBall:
		for k := range balls {
			if k != c.i && k != c.j {
				balls[k] = balls[k].Advance(c.t)
			}
		}
		a, b := balls[c.i], balls[c.j]
		closing := r2.Norm(r2.Sub(a.Vel, b.Vel))
		a, b, err := physics.BallBallCollision(a, b, c.t)
		if err != nil {
			return Event{}, err
		}
		balls[c.i], balls[c.j] = a, b
		return Event{Kind: EventBallBall, Time: s.time, Ball: a.ID, Other: b.ID, Speed: closing}, nil

	case EventBallWall:
		s.advance(c.t)
		b := balls[c.i]
		v, err := physics.BallWallCollisionRestitution(b, s.scene.Walls[c.j], s.settings.Restitution)
		if err != nil {
			return Event{}, err
		}
		balls[c.i].Vel = v
		return Event{Kind: EventBallWall, Time: s.time, Ball: b.ID, Other: c.j, Speed: b.Speed()}, nil
	}
	return Event{}, fmt.Errorf("sim: unexpected collision kind %v", c.kind)
}

// removeCaptured drops balls that have fallen into a black hole or a pocket,
// keeping the remaining balls in order.
func (s *Simulator) removeCaptured() []Event {
	var events []Event
	kept := s.scene.Balls[:0]
	for _, b := range s.scene.Balls {
		if ev, ok := s.captured(b); ok {
			s.logger.Debug("ball removed", "kind", ev.Kind, "ball", b.ID, "time", s.time)
			events = append(events, ev)
			continue
		}
		kept = append(kept, b)
	}
	s.scene.Balls = kept
	return events
}

func (s *Simulator) captured(b body.Ball) (Event, bool) {
	for i, h := range s.scene.Holes {
		if h.Swallows(b) {
			return Event{Kind: EventSwallowed, Time: s.time, Ball: b.ID, Other: i, Speed: b.Speed()}, true
		}
	}
	for i, p := range s.scene.Pockets {
		if p.Captures(b) {
			return Event{Kind: EventPocketed, Time: s.time, Ball: b.ID, Other: i, Speed: b.Speed()}, true
		}
	}
	return Event{}, false
}
