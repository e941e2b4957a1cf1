package viz

import (
	"math"

	"github.com/san-kum/biljard/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

// Viewport maps table coordinates onto canvas dots with y pointing up and
// the aspect ratio preserved.
type Viewport struct {
	origin r2.Vec
	scale  float64
	offX   float64
	offY   float64
	height int
}

// FitViewport frames everything in scene inside a dotsW x dotsH area.
func FitViewport(scene sim.Scene, dotsW, dotsH int) Viewport {
	box, ok := sceneBounds(scene)
	if !ok {
		box = r2.Box{Min: r2.Vec{X: -10, Y: -10}, Max: r2.Vec{X: 10, Y: 10}}
	}
	size := r2.Sub(box.Max, box.Min)
	pad := 0.05 * math.Max(math.Max(size.X, size.Y), 1)
	box.Min = r2.Sub(box.Min, r2.Vec{X: pad, Y: pad})
	box.Max = r2.Add(box.Max, r2.Vec{X: pad, Y: pad})
	size = r2.Sub(box.Max, box.Min)

	scale := math.Min(float64(dotsW-1)/size.X, float64(dotsH-1)/size.Y)
	return Viewport{
		origin: box.Min,
		scale:  scale,
		offX:   (float64(dotsW-1) - size.X*scale) / 2,
		offY:   (float64(dotsH-1) - size.Y*scale) / 2,
		height: dotsH,
	}
}

// Project returns the dot for table point p.
func (v Viewport) Project(p r2.Vec) (int, int) {
	x := v.offX + (p.X-v.origin.X)*v.scale
	y := v.offY + (p.Y-v.origin.Y)*v.scale
	return int(math.Round(x)), v.height - 1 - int(math.Round(y))
}

// Length converts a table distance to dots.
func (v Viewport) Length(d float64) int {
	return int(math.Round(d * v.scale))
}

// DrawScene renders walls, pockets, black holes and balls.
func DrawScene(c *Canvas, v Viewport, scene sim.Scene) {
	for _, w := range scene.Walls {
		a, b := w.A, w.B
		if w.Infinite {
			span := r2.Scale(1e4, w.Direction())
			a, b = r2.Sub(w.A, span), r2.Add(w.A, span)
		}
		x0, y0 := v.Project(a)
		x1, y1 := v.Project(b)
		c.DrawLine(x0, y0, x1, y1)
	}
	for _, p := range scene.Pockets {
		x, y := v.Project(p.Pos)
		c.DrawCircle(x, y, v.Length(p.Radius))
	}
	for _, h := range scene.Holes {
		x, y := v.Project(h.Pos)
		c.FillCircle(x, y, v.Length(h.Radius))
	}
	for _, b := range scene.Balls {
		x, y := v.Project(b.Pos)
		c.DrawCircle(x, y, v.Length(b.Radius))
	}
}

func sceneBounds(scene sim.Scene) (r2.Box, bool) {
	var (
		box   r2.Box
		found bool
	)
	grow := func(p r2.Vec, r float64) {
		lo := r2.Sub(p, r2.Vec{X: r, Y: r})
		hi := r2.Add(p, r2.Vec{X: r, Y: r})
		if !found {
			box = r2.Box{Min: lo, Max: hi}
			found = true
			return
		}
		box.Min = r2.Vec{X: math.Min(box.Min.X, lo.X), Y: math.Min(box.Min.Y, lo.Y)}
		box.Max = r2.Vec{X: math.Max(box.Max.X, hi.X), Y: math.Max(box.Max.Y, hi.Y)}
	}

	for _, w := range scene.Walls {
		grow(w.A, 0)
		if !w.Infinite {
			grow(w.B, 0)
		}
	}
	for _, b := range scene.Balls {
		grow(b.Pos, b.Radius)
	}
	for _, h := range scene.Holes {
		grow(h.Pos, h.Radius)
	}
	for _, p := range scene.Pockets {
		grow(p.Pos, p.Radius)
	}
	return box, found
}
