package optim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/biljard/internal/body"
	"github.com/san-kum/biljard/internal/metrics"
	"github.com/san-kum/biljard/internal/physics"
	"github.com/san-kum/biljard/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestLinspace(t *testing.T) {
	tests := []struct {
		lo, hi float64
		n      int
		want   []float64
	}{
		{0, 1, 5, []float64{0, 0.25, 0.5, 0.75, 1}},
		{2, 3, 1, []float64{2}},
		{0, 1, 0, nil},
	}
	for _, tt := range tests {
		got := Linspace(tt.lo, tt.hi, tt.n)
		if len(got) != len(tt.want) {
			t.Fatalf("Linspace(%v, %v, %d) = %v, want %v", tt.lo, tt.hi, tt.n, got, tt.want)
		}
		for i := range got {
			if math.Abs(got[i]-tt.want[i]) > 1e-12 {
				t.Errorf("Linspace(%v, %v, %d)[%d] = %v, want %v", tt.lo, tt.hi, tt.n, i, got[i], tt.want[i])
			}
		}
	}
}

func TestApply(t *testing.T) {
	s := physics.DefaultSettings()
	for _, name := range Params {
		got, err := Apply(s, name, 0.25)
		if err != nil {
			t.Fatalf("Apply(%s): %v", name, err)
		}
		if got == s {
			t.Errorf("Apply(%s) left settings unchanged", name)
		}
	}
	if _, err := Apply(s, "spin", 1); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("Apply(spin) error = %v, want ErrUnknownParam", err)
	}
}

func TestNewGridSearchRejects(t *testing.T) {
	if _, err := NewGridSearch([]string{"friction"}, nil); err == nil {
		t.Error("mismatched ranges accepted")
	}
	if _, err := NewGridSearch([]string{"spin"}, [][]float64{{1}}); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("unknown param error = %v", err)
	}
	if _, err := NewGridSearch([]string{"friction"}, [][]float64{{}}); err == nil {
		t.Error("empty range accepted")
	}
}

func TestPointsOrder(t *testing.T) {
	g, err := NewGridSearch([]string{"friction", "restitution"}, [][]float64{{0, 1}, {0.5, 0.7, 0.9}})
	if err != nil {
		t.Fatal(err)
	}
	points := g.Points()
	if len(points) != 6 {
		t.Fatalf("got %d points, want 6", len(points))
	}
	if points[0]["friction"] != 0 || points[0]["restitution"] != 0.5 {
		t.Errorf("first point = %v", points[0])
	}
	if points[1]["friction"] != 0 || points[1]["restitution"] != 0.7 {
		t.Errorf("restitution should vary fastest, second point = %v", points[1])
	}
	if points[5]["friction"] != 1 || points[5]["restitution"] != 0.9 {
		t.Errorf("last point = %v", points[5])
	}
}

func bouncingScene(t *testing.T) sim.Scene {
	t.Helper()
	walls, err := body.Box(r2.Vec{}, r2.Vec{X: 10, Y: 10}, 0)
	if err != nil {
		t.Fatal(err)
	}
	return sim.Scene{
		Walls: walls,
		Balls: []body.Ball{{ID: 0, Pos: r2.Vec{X: 5, Y: 5}, Vel: r2.Vec{X: 10}, Radius: 1, Mass: 0.1}},
	}
}

func TestSearchFindsLowestEnergy(t *testing.T) {
	g, err := NewGridSearch([]string{"restitution"}, [][]float64{{1, 0.5, 1.5}})
	if err != nil {
		t.Fatal(err)
	}
	cfg := sim.DefaultConfig()
	cfg.Duration = 2
	newMetrics := func() []sim.Metric { return []sim.Metric{metrics.NewKineticEnergy()} }

	scenes := []sim.Scene{bouncingScene(t), bouncingScene(t)}
	best, trials, err := g.Search(context.Background(), scenes, physics.Settings{Restitution: 1}, cfg, newMetrics, "kinetic_energy")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(trials) != 3 {
		t.Fatalf("got %d trials, want 3", len(trials))
	}
	if !errors.Is(trials[2].Err, physics.ErrInvalidSettings) {
		t.Errorf("restitution 1.5 error = %v, want ErrInvalidSettings", trials[2].Err)
	}
	if best.Params["restitution"] != 0.5 {
		t.Errorf("best restitution = %v, want 0.5", best.Params["restitution"])
	}
	if math.Abs(trials[0].Metrics["kinetic_energy"]-5) > 1e-9 {
		t.Errorf("elastic mean energy = %v, want 5", trials[0].Metrics["kinetic_energy"])
	}
	if trials[0].Remaining != 1 || trials[0].Events < 2 {
		t.Errorf("elastic trial remaining %v events %v", trials[0].Remaining, trials[0].Events)
	}
	if scenes[0].Balls[0].Pos != (r2.Vec{X: 5, Y: 5}) {
		t.Error("Search mutated the caller's scene")
	}
}

func TestSearchErrors(t *testing.T) {
	g, err := NewGridSearch([]string{"restitution"}, [][]float64{{2}})
	if err != nil {
		t.Fatal(err)
	}
	cfg := sim.DefaultConfig()
	cfg.Duration = 0.1
	newMetrics := func() []sim.Metric { return []sim.Metric{metrics.NewKineticEnergy()} }

	if _, _, err := g.Search(context.Background(), nil, physics.Settings{}, cfg, newMetrics, "kinetic_energy"); !errors.Is(err, sim.ErrInvalidConfig) {
		t.Errorf("no scenes error = %v", err)
	}
	if _, _, err := g.Search(context.Background(), []sim.Scene{bouncingScene(t)}, physics.Settings{}, cfg, newMetrics, "kinetic_energy"); err == nil {
		t.Error("all-failing grid returned no error")
	}

	g, _ = NewGridSearch([]string{"restitution"}, [][]float64{{1}})
	if _, _, err := g.Search(context.Background(), []sim.Scene{bouncingScene(t)}, physics.Settings{}, cfg, newMetrics, "missing"); err == nil {
		t.Error("unknown metric returned no error")
	}
}
