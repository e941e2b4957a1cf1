package metrics

import (
	"sync"

	"github.com/san-kum/biljard/internal/sim"
)

// Collisions counts events by kind. It works both as a Metric, whose value
// is the total, and as an Observer. It is safe to share between the runs of
// an ensemble.
type Collisions struct {
	name   string
	mu     sync.Mutex
	counts map[sim.EventKind]int
}

func NewCollisions() *Collisions {
	return &Collisions{name: "collisions", counts: make(map[sim.EventKind]int)}
}

func (c *Collisions) Name() string { return c.name }

func (c *Collisions) Observe(f sim.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ev := range f.Events {
		c.counts[ev.Kind]++
	}
}

func (c *Collisions) OnStep(f sim.Frame) { c.Observe(f) }

func (c *Collisions) Count(kind sim.EventKind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[kind]
}

func (c *Collisions) Value() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return float64(total)
}

func (c *Collisions) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.counts)
}
