package sim

import (
	"context"
	"math"

	"github.com/san-kum/biljard/internal/physics"
	"golang.org/x/sync/errgroup"
)

// parallelMinBalls is the table size below which the collision search stays
// on the calling goroutine.
const parallelMinBalls = 24

type candidate struct {
	t    float64
	kind EventKind
	i, j int
}

var noCollision = candidate{t: math.Inf(1), i: -1, j: -1}

// before orders candidates by time, then kind, then indices, so the earliest
// collision is the same however the search is split.
func (c candidate) before(o candidate) bool {
	if c.t != o.t {
		return c.t < o.t
	}
	if c.kind != o.kind {
		return c.kind < o.kind
	}
	if c.i != o.i {
		return c.i < o.i
	}
	return c.j < o.j
}

// nextCollision returns the earliest collision on the table from now, or
// noCollision.
func (s *Simulator) nextCollision(ctx context.Context) (candidate, error) {
	n := len(s.scene.Balls)
	workers := s.workers
	if workers > n {
		workers = n
	}
	if workers <= 1 || n < parallelMinBalls {
		return s.searchRows(0, 1)
	}

	best := s.pool.Get(workers)
	defer s.pool.Put(best)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := s.searchRows(w, workers)
			if err != nil {
				return err
			}
			(*best)[w] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return noCollision, err
	}

	c := noCollision
	for _, b := range *best {
		if b.before(c) {
			c = b
		}
	}
	return c, nil
}

// searchRows scans balls first, first+stride, ... against every later ball
// and every wall. Striding keeps the triangular pair count balanced.
func (s *Simulator) searchRows(first, stride int) (candidate, error) {
	balls := s.scene.Balls
	walls := s.scene.Walls
	best := noCollision
	for i := first; i < len(balls); i += stride {
		for j := i + 1; j < len(balls); j++ {
			t, err := physics.TimeToBallBallCollision(balls[i], balls[j])
			if err != nil {
				return noCollision, err
			}
			if c := (candidate{t: t, kind: EventBallBall, i: i, j: j}); c.before(best) {
				best = c
			}
		}
		for j := range walls {
			t, err := physics.TimeToWallCollision(balls[i], walls[j])
			if err != nil {
				return noCollision, err
			}
			if c := (candidate{t: t, kind: EventBallWall, i: i, j: j}); c.before(best) {
				best = c
			}
		}
	}
	return best, nil
}

// Ensemble runs independent scenes side by side under the same settings.
type Ensemble struct {
	settings physics.Settings
	opts     []Option
	// NewMetrics, if set, supplies fresh metrics for each run.
	NewMetrics func() []Metric
}

func NewEnsemble(settings physics.Settings, opts ...Option) *Ensemble {
	return &Ensemble{settings: settings, opts: opts}
}

func (e *Ensemble) Run(ctx context.Context, scenes []Scene, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(scenes))

	g, gctx := errgroup.WithContext(ctx)
	for idx, scene := range scenes {
		g.Go(func() error {
			s, err := New(scene, e.settings, e.opts...)
			if err != nil {
				return err
			}
			if e.NewMetrics != nil {
				for _, m := range e.NewMetrics() {
					s.AddMetric(m)
				}
			}
			results[idx], err = s.Run(gctx, cfg)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
