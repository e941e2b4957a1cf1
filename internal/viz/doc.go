// Package viz draws billiard tables in the terminal.
//
// [Canvas] is a braille dot canvas, [Viewport] maps table coordinates onto
// it, and [Model] is a Bubble Tea program that steps a simulator live.
// [PlotSeries] renders recorded runs as ASCII charts.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset to initial state
//	T     - Cycle color themes
//	+/-   - Change simulation speed
//	.     - Single step while paused
//	Q     - Quit
package viz
