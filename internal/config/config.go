package config

import (
	"fmt"
	"math"
	"os"

	"github.com/san-kum/biljard/internal/body"
	"github.com/san-kum/biljard/internal/physics"
	"github.com/san-kum/biljard/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 10.0
	DefaultRadius   = 1.0
	DefaultMass     = 0.1
)

// Vec is written as [x, y] in scene files.
type Vec [2]float64

func (v Vec) R2() r2.Vec { return r2.Vec{X: v[0], Y: v[1]} }

// IsZero lets omitempty drop unset vectors.
func (v Vec) IsZero() bool { return v == Vec{} }

type Config struct {
	Name        string           `yaml:"name"`
	Dt          float64          `yaml:"dt"`
	Duration    float64          `yaml:"duration"`
	MaxEvents   int              `yaml:"max_events_per_step,omitempty"`
	Workers     int              `yaml:"workers,omitempty"`
	RecordEvery int              `yaml:"record_every,omitempty"`
	Physics     physics.Settings `yaml:"settings"`
	Table       *TableConfig     `yaml:"table,omitempty"`
	Walls       []WallConfig     `yaml:"walls,omitempty"`
	Balls       []BallConfig     `yaml:"balls,omitempty"`
	Rack        *RackConfig      `yaml:"rack,omitempty"`
	Holes       []HoleConfig     `yaml:"black_holes,omitempty"`
	Pockets     []PocketConfig   `yaml:"pockets,omitempty"`
}

// TableConfig is a rectangular cushioned table, optionally rotated about
// its centre.
type TableConfig struct {
	Min      Vec     `yaml:"min,flow"`
	Max      Vec     `yaml:"max,flow"`
	Rotation float64 `yaml:"rotation,omitempty"`
}

// WallConfig is a segment from A to B, or with Line set, an infinite wall
// through A facing Normal.
type WallConfig struct {
	A      Vec  `yaml:"a,flow"`
	B      Vec  `yaml:"b,flow,omitempty"`
	Line   bool `yaml:"line,omitempty"`
	Normal Vec  `yaml:"normal,flow,omitempty"`
}

type BallConfig struct {
	Pos    Vec     `yaml:"pos,flow"`
	Vel    Vec     `yaml:"vel,flow,omitempty"`
	Radius float64 `yaml:"radius,omitempty"`
	Mass   float64 `yaml:"mass,omitempty"`
}

// RackConfig packs balls into a triangle with its apex at Apex and rows
// growing along +x.
type RackConfig struct {
	Apex   Vec     `yaml:"apex,flow"`
	Rows   int     `yaml:"rows"`
	Gap    float64 `yaml:"gap,omitempty"`
	Radius float64 `yaml:"radius,omitempty"`
	Mass   float64 `yaml:"mass,omitempty"`
}

type HoleConfig struct {
	Pos    Vec     `yaml:"pos,flow"`
	Mass   float64 `yaml:"mass"`
	Radius float64 `yaml:"radius"`
	Reach  float64 `yaml:"reach,omitempty"`
}

type PocketConfig struct {
	Pos    Vec     `yaml:"pos,flow"`
	Radius float64 `yaml:"radius"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:        "default",
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		RecordEvery: 1,
		Physics:     physics.DefaultSettings(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Scene builds the table. Balls are numbered from 0 in file order, racked
// balls last.
func (c *Config) Scene() (sim.Scene, error) {
	var scene sim.Scene

	if c.Table != nil {
		walls, err := body.Box(c.Table.Min.R2(), c.Table.Max.R2(), c.Table.Rotation)
		if err != nil {
			return sim.Scene{}, fmt.Errorf("table: %w", err)
		}
		scene.Walls = append(scene.Walls, walls...)
	}

	for i, wc := range c.Walls {
		var (
			w   body.Wall
			err error
		)
		if wc.Line {
			w, err = body.NewLine(wc.A.R2(), wc.Normal.R2())
		} else {
			w, err = body.NewSegment(wc.A.R2(), wc.B.R2())
		}
		if err != nil {
			return sim.Scene{}, fmt.Errorf("wall %d: %w", i, err)
		}
		scene.Walls = append(scene.Walls, w)
	}

	for _, bc := range c.Balls {
		b, err := newBall(len(scene.Balls), bc.Pos.R2(), bc.Vel.R2(), bc.Radius, bc.Mass)
		if err != nil {
			return sim.Scene{}, err
		}
		scene.Balls = append(scene.Balls, b)
	}

	if c.Rack != nil {
		racked, err := c.Rack.balls(len(scene.Balls))
		if err != nil {
			return sim.Scene{}, fmt.Errorf("rack: %w", err)
		}
		scene.Balls = append(scene.Balls, racked...)
	}

	for i, hc := range c.Holes {
		h, err := body.NewBlackHole(hc.Pos.R2(), hc.Mass, hc.Radius, hc.Reach)
		if err != nil {
			return sim.Scene{}, fmt.Errorf("black hole %d: %w", i, err)
		}
		scene.Holes = append(scene.Holes, h)
	}

	for i, pc := range c.Pockets {
		p, err := body.NewPocket(pc.Pos.R2(), pc.Radius)
		if err != nil {
			return sim.Scene{}, fmt.Errorf("pocket %d: %w", i, err)
		}
		scene.Pockets = append(scene.Pockets, p)
	}

	return scene, nil
}

func (c *Config) Settings() physics.Settings { return c.Physics }

func (c *Config) SimConfig() sim.Config {
	cfg := sim.DefaultConfig()
	cfg.Dt = c.Dt
	cfg.Duration = c.Duration
	if c.MaxEvents > 0 {
		cfg.MaxEventsPerStep = c.MaxEvents
	}
	cfg.Workers = c.Workers
	if c.RecordEvery > 0 {
		cfg.RecordEvery = c.RecordEvery
	}
	return cfg
}

func (r *RackConfig) balls(firstID int) ([]body.Ball, error) {
	if r.Rows < 1 {
		return nil, fmt.Errorf("%w: rack needs at least one row", body.ErrInvalidGeometry)
	}
	radius := orDefault(r.Radius, DefaultRadius)
	pitch := 2*radius + r.Gap
	dx := pitch * math.Sqrt(3) / 2

	var balls []body.Ball
	for row := 0; row < r.Rows; row++ {
		for k := 0; k <= row; k++ {
			pos := r2.Vec{
				X: r.Apex[0] + float64(row)*dx,
				Y: r.Apex[1] + (float64(k)-float64(row)/2)*pitch,
			}
			b, err := newBall(firstID+len(balls), pos, r2.Vec{}, radius, r.Mass)
			if err != nil {
				return nil, err
			}
			balls = append(balls, b)
		}
	}
	return balls, nil
}

func newBall(id int, pos, vel r2.Vec, radius, mass float64) (body.Ball, error) {
	b, err := body.NewBall(id, pos, orDefault(radius, DefaultRadius), orDefault(mass, DefaultMass))
	if err != nil {
		return body.Ball{}, err
	}
	b.Vel = vel
	return b, b.Validate()
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func (c *Config) clone() *Config {
	cp := *c
	if c.Table != nil {
		t := *c.Table
		cp.Table = &t
	}
	if c.Rack != nil {
		r := *c.Rack
		cp.Rack = &r
	}
	cp.Walls = append([]WallConfig(nil), c.Walls...)
	cp.Balls = append([]BallConfig(nil), c.Balls...)
	cp.Holes = append([]HoleConfig(nil), c.Holes...)
	cp.Pockets = append([]PocketConfig(nil), c.Pockets...)
	return &cp
}
