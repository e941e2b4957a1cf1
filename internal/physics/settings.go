package physics

import (
	"fmt"
	"math"
)

const (
	// DefaultG is 1 rather than 6.674e-11 so that black holes need only
	// table-scale masses.
	DefaultG           = 1.0
	DefaultFriction    = 0.00001
	DefaultRestitution = 1.0
)

// Settings carries the constants of one simulation. Two simulations with
// different settings can run side by side.
type Settings struct {
	G            float64 `yaml:"g" json:"g"`
	Friction     float64 `yaml:"friction" json:"friction"`
	Restitution  float64 `yaml:"restitution" json:"restitution"`
	GravityTheta float64 `yaml:"gravity_theta" json:"gravity_theta"`
}

func DefaultSettings() Settings {
	return Settings{
		G:           DefaultG,
		Friction:    DefaultFriction,
		Restitution: DefaultRestitution,
	}
}

func (s Settings) Validate() error {
	switch {
	case !(s.G >= 0) || math.IsInf(s.G, 0):
		return fmt.Errorf("%w: G must be non-negative, got %v", ErrInvalidSettings, s.G)
	case !(s.Friction >= 0) || math.IsInf(s.Friction, 0):
		return fmt.Errorf("%w: friction must be non-negative, got %v", ErrInvalidSettings, s.Friction)
	case !(s.Restitution >= 0 && s.Restitution <= 1):
		return fmt.Errorf("%w: restitution must be in [0, 1], got %v", ErrInvalidSettings, s.Restitution)
	case !(s.GravityTheta >= 0):
		return fmt.Errorf("%w: gravity theta must be non-negative, got %v", ErrInvalidSettings, s.GravityTheta)
	}
	return nil
}
