package viz

import (
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/biljard/internal/sim"
)

// PlotSeries draws data as an 80x10 line chart.
func PlotSeries(data []float64, caption string) string {
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
}

// EnergySeries is the total kinetic energy of each frame.
func EnergySeries(frames []sim.Frame) []float64 {
	out := make([]float64, len(frames))
	for i, f := range frames {
		for _, b := range f.Balls {
			out[i] += b.KineticEnergy()
		}
	}
	return out
}

// BallCountSeries is the number of balls left on the table in each frame.
func BallCountSeries(frames []sim.Frame) []float64 {
	out := make([]float64, len(frames))
	for i, f := range frames {
		out[i] = float64(len(f.Balls))
	}
	return out
}

// SpeedSeries is the speed of ball id in each frame, or 0 once it is gone.
func SpeedSeries(frames []sim.Frame, id int) []float64 {
	out := make([]float64, len(frames))
	for i, f := range frames {
		for _, b := range f.Balls {
			if b.ID == id {
				out[i] = b.Speed()
				break
			}
		}
	}
	return out
}
