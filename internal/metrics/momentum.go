package metrics

import (
	"github.com/san-kum/biljard/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

// Momentum reports the magnitude of the table's total momentum in the last
// observed frame.
type Momentum struct {
	name string
	last r2.Vec
}

func NewMomentum() *Momentum {
	return &Momentum{name: "momentum"}
}

func (m *Momentum) Name() string { return m.name }

func (m *Momentum) Observe(f sim.Frame) {
	var p r2.Vec
	for _, b := range f.Balls {
		p = r2.Add(p, b.Momentum())
	}
	m.last = p
}

func (m *Momentum) Value() float64 { return r2.Norm(m.last) }

// Vector returns the last total momentum.
func (m *Momentum) Vector() r2.Vec { return m.last }

func (m *Momentum) Reset() { m.last = r2.Vec{} }
