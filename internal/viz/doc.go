// Package viz renders impeller motion in the terminal.
//
//   - [PlotTrace] and [PlotTraces]: asciigraph line charts of recorded runs
//   - [LiveModel]: a Bubble Tea program stepping a pool in real time
//
// # Key Bindings
//
//	Space - Pause/Resume
//	N     - Single frame while paused
//	Tab/J - Select next impeller (K selects the previous one)
//	A     - Duplicate the selected impeller
//	D     - Drop the selected impeller
//	T     - Retarget the selected impeller a quarter range ahead
//	R     - Reset to the scenario's initial state
//	C     - Cycle color themes
//	?     - Show help
package viz
