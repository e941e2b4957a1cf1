package config

import (
	"sort"

	"github.com/san-kum/biljard/internal/physics"
)

var Presets = map[string]*Config{
	"break": {
		Name: "break", Dt: 0.005, Duration: 20.0, RecordEvery: 4,
		Physics: physics.Settings{G: physics.DefaultG, Friction: 0.8, Restitution: 0.95},
		Table:   &TableConfig{Max: Vec{100, 50}},
		Balls:   []BallConfig{{Pos: Vec{25, 25}, Vel: Vec{60, 0.4}}},
		Rack:    &RackConfig{Apex: Vec{70, 25}, Rows: 5, Gap: 0.01},
		Pockets: []PocketConfig{
			{Pos: Vec{0, 0}, Radius: 1.5}, {Pos: Vec{50, -0.5}, Radius: 1.2}, {Pos: Vec{100, 0}, Radius: 1.5},
			{Pos: Vec{0, 50}, Radius: 1.5}, {Pos: Vec{50, 50.5}, Radius: 1.2}, {Pos: Vec{100, 50}, Radius: 1.5},
		},
	},
	"cushion": {
		Name: "cushion", Dt: 0.01, Duration: 30.0,
		Physics: physics.Settings{G: physics.DefaultG, Restitution: 0.9},
		Table:   &TableConfig{Max: Vec{60, 40}, Rotation: 0.4},
		Balls: []BallConfig{
			{Pos: Vec{30, 20}, Vel: Vec{12, 5}},
			{Pos: Vec{24, 16}, Vel: Vec{-6, 9}},
			{Pos: Vec{36, 24}, Vel: Vec{3, -11}},
			{Pos: Vec{30, 12}, Vel: Vec{-8, -4}},
			{Pos: Vec{30, 28}, Vel: Vec{7, 7}},
		},
	},
	"orbit": {
		Name: "orbit", Dt: 0.005, Duration: 40.0, RecordEvery: 4,
		Physics: physics.Settings{G: physics.DefaultG, Restitution: 1},
		Holes:   []HoleConfig{{Pos: Vec{0, 0}, Mass: 50, Radius: 1}},
		Balls: []BallConfig{
			{Pos: Vec{10, 0}, Vel: Vec{0, 2.2360679775}},
			{Pos: Vec{-16, 0}, Vel: Vec{0, -1.7677669530}},
			{Pos: Vec{0, 22}, Vel: Vec{-1.2, 0}},
		},
	},
	"newton": {
		Name: "newton", Dt: 0.01, Duration: 15.0,
		Physics: physics.Settings{G: physics.DefaultG, Restitution: 1},
		Table:   &TableConfig{Max: Vec{60, 10}},
		Balls: []BallConfig{
			{Pos: Vec{10, 5}, Vel: Vec{6, 0}},
			{Pos: Vec{30, 5}}, {Pos: Vec{32, 5}}, {Pos: Vec{34, 5}}, {Pos: Vec{36, 5}},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
