package metrics

import (
	"math"

	"github.com/san-kum/biljard/internal/sim"
)

// KineticEnergy is the time-averaged total kinetic energy of the table.
type KineticEnergy struct {
	name        string
	samples     int
	totalEnergy float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(f sim.Frame) {
	e.totalEnergy += frameEnergy(f)
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *KineticEnergy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift is the largest relative deviation of kinetic energy from the
// first observed frame. Frames that removed a ball restart the baseline,
// since the lost energy is not drift.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(f sim.Frame) {
	energy := frameEnergy(f)

	if e.samples == 0 || removedBall(f) {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

func frameEnergy(f sim.Frame) float64 {
	var e float64
	for _, b := range f.Balls {
		e += b.KineticEnergy()
	}
	return e
}

func removedBall(f sim.Frame) bool {
	for _, ev := range f.Events {
		if ev.Kind == sim.EventSwallowed || ev.Kind == sim.EventPocketed {
			return true
		}
	}
	return false
}
