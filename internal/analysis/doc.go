// Package analysis characterizes the motion recorded in a trace.
//
// The package includes:
//
//   - [Spectrum]: magnitude spectrum of a sampled signal
//   - [DominantPeriod]: period of the strongest oscillation
//   - [Swings]: successive extremes of the difference to target
//   - [DecayRatio]: how fast those extremes shrink
//   - [NewPhasePortrait]: difference against velocity
//
// # Oscillation
//
// An overshoot driver rings around its target before settling. The
// dominant period and the decay ratio together describe that ringing:
//
//	period, ok := analysis.DominantPeriod(trace.Diffs, result.FrameMs)
//	ratio := analysis.DecayRatio(trace.Diffs)
package analysis
