package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/biljard/internal/physics"
	"github.com/san-kum/biljard/internal/sim"
	"gonum.org/v1/gonum/floats"
)

var ErrUnknownParam = errors.New("optim: unknown parameter")

// Params lists the settings a search can vary.
var Params = []string{"friction", "g", "gravity_theta", "restitution"}

// Apply returns s with the named setting replaced by v.
func Apply(s physics.Settings, name string, v float64) (physics.Settings, error) {
	switch name {
	case "friction":
		s.Friction = v
	case "g":
		s.G = v
	case "gravity_theta":
		s.GravityTheta = v
	case "restitution":
		s.Restitution = v
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return s, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n < 1 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// Trial is the outcome of one grid point averaged over every scene.
type Trial struct {
	Params    map[string]float64
	Metrics   map[string]float64
	Remaining float64
	Events    float64
	Err       error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(params), len(ranges))
	}
	for i, name := range params {
		if _, err := Apply(physics.Settings{}, name, 0); err != nil {
			return nil, err
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("optim: empty range for %s", name)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Points enumerates the grid with the last parameter varying fastest.
func (g *GridSearch) Points() []map[string]float64 {
	var points []map[string]float64
	g.collect(0, map[string]float64{}, &points)
	return points
}

func (g *GridSearch) collect(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[g.paramNames[depth]] = val
		g.collect(depth+1, next, out)
	}
}

// Search runs every grid point over scenes as one ensemble and returns the
// trial with the smallest mean metricName alongside all trials in grid
// order. Points whose settings are invalid or whose runs fail keep their
// error in Trial.Err and never win.
func (g *GridSearch) Search(
	ctx context.Context,
	scenes []sim.Scene,
	base physics.Settings,
	cfg sim.Config,
	newMetrics func() []sim.Metric,
	metricName string,
	opts ...sim.Option,
) (Trial, []Trial, error) {
	if len(scenes) == 0 {
		return Trial{}, nil, fmt.Errorf("%w: no scenes to search over", sim.ErrInvalidConfig)
	}

	points := g.Points()
	trials := make([]Trial, len(points))
	best := -1
	bestVal := math.Inf(1)

	for i, params := range points {
		trials[i] = g.evaluate(ctx, scenes, base, cfg, newMetrics, params, opts)
		if err := ctx.Err(); err != nil {
			return Trial{}, trials[:i+1], err
		}
		if trials[i].Err != nil {
			continue
		}
		val, ok := trials[i].Metrics[metricName]
		if !ok {
			return Trial{}, trials[:i+1], fmt.Errorf("optim: no metric %q", metricName)
		}
		if val < bestVal {
			best, bestVal = i, val
		}
	}

	if best < 0 {
		return Trial{}, trials, errors.New("optim: every grid point failed")
	}
	return trials[best], trials, nil
}

func (g *GridSearch) evaluate(
	ctx context.Context,
	scenes []sim.Scene,
	base physics.Settings,
	cfg sim.Config,
	newMetrics func() []sim.Metric,
	params map[string]float64,
	opts []sim.Option,
) Trial {
	trial := Trial{Params: params, Metrics: map[string]float64{}}

	settings := base
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		var err error
		if settings, err = Apply(settings, name, params[name]); err != nil {
			trial.Err = err
			return trial
		}
	}

	runs := make([]sim.Scene, len(scenes))
	for i, s := range scenes {
		runs[i] = s.Clone()
	}

	ens := sim.NewEnsemble(settings, opts...)
	ens.NewMetrics = newMetrics
	results, err := ens.Run(ctx, runs, cfg)
	if err != nil {
		trial.Err = err
		return trial
	}

	n := float64(len(results))
	for _, r := range results {
		for name, v := range r.Metrics {
			trial.Metrics[name] += v / n
		}
		trial.Events += float64(len(r.Events)) / n
		if len(r.Frames) > 0 {
			trial.Remaining += float64(len(r.Frames[len(r.Frames)-1].Balls)) / n
		}
	}
	return trial
}
