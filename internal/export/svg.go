package export

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/biljard/internal/body"
	"github.com/san-kum/biljard/internal/sim"
	"github.com/san-kum/biljard/internal/viz"
	"gonum.org/v1/gonum/spatial/r2"
)

var palette = []string{"#f5f5f5", "#ffd500", "#1f6fff", "#ff3b30", "#8e44ad", "#ff8c00", "#2ecc71", "#8b0000"}

// CanvasToSVG converts a braille canvas to SVG, one circle per lit dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0b3d2e"/>
<g fill="#e8e8e8">
`, width, height, width, height)

	dotRadius := scale * 0.4
	for y := 0; y < canvas.Height*4; y++ {
		for x := 0; x < canvas.Width*2; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
				float64(x)*scale+scale/2, float64(y)*scale+scale/2, dotRadius)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// TrajectoriesSVG draws the cushions and the path of every ball across
// frames. Each path ends with the ball's outline where it was last seen.
func TrajectoriesSVG(frames []sim.Frame, walls []body.Wall, width, height int) string {
	paths := map[int][]body.Ball{}
	for _, f := range frames {
		for _, b := range f.Balls {
			paths[b.ID] = append(paths[b.ID], b)
		}
	}
	if len(paths) == 0 {
		return ""
	}

	min := r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	max := r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	grow := func(p r2.Vec, r float64) {
		min.X, min.Y = math.Min(min.X, p.X-r), math.Min(min.Y, p.Y-r)
		max.X, max.Y = math.Max(max.X, p.X+r), math.Max(max.Y, p.Y+r)
	}
	for _, w := range walls {
		if !w.Infinite {
			grow(w.A, 0)
			grow(w.B, 0)
		}
	}
	for _, path := range paths {
		for _, b := range path {
			grow(b.Pos, b.Radius)
		}
	}

	rangeX := math.Max(max.X-min.X, 1)
	rangeY := math.Max(max.Y-min.Y, 1)
	min.X -= rangeX * 0.05
	min.Y -= rangeY * 0.05
	rangeX *= 1.1
	rangeY *= 1.1
	scale := math.Min(float64(width)/rangeX, float64(height)/rangeY)
	project := func(p r2.Vec) (float64, float64) {
		return (p.X - min.X) * scale, float64(height) - (p.Y-min.Y)*scale
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0b3d2e"/>
`, width, height, width, height)

	sb.WriteString(`<g stroke="#6b4226" stroke-width="3" stroke-linecap="round">` + "\n")
	for _, w := range walls {
		a, b := w.A, w.B
		if w.Infinite {
			span := r2.Scale(rangeX+rangeY, w.Direction())
			a, b = r2.Sub(w.A, span), r2.Add(w.A, span)
		}
		x0, y0 := project(a)
		x1, y1 := project(b)
		fmt.Fprintf(&sb, "<line x1=\"%.1f\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\"/>\n", x0, y0, x1, y1)
	}
	sb.WriteString("</g>\n")

	ids := make([]int, 0, len(paths))
	for id := range paths {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		path := paths[id]
		color := palette[id%len(palette)]

		if len(path) > 1 {
			fmt.Fprintf(&sb, `<path id="ball-%d" fill="none" stroke="%s" stroke-width="1.5" d="`, id, color)
			for i, b := range path {
				x, y := project(b.Pos)
				if i == 0 {
					fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
				} else {
					fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
				}
			}
			sb.WriteString("\"/>\n")
		}

		last := path[len(path)-1]
		x, y := project(last.Pos)
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"none\" stroke=\"%s\"/>\n",
			x, y, last.Radius*scale, color)
	}

	sb.WriteString("</svg>")
	return sb.String()
}
