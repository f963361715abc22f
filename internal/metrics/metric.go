// Package metrics summarizes the motion of a single impeller while a
// scenario runs. Each Metric observes the impeller once per frame.
package metrics

import "github.com/san-kum/impel/internal/impel"

type Metric interface {
	Name() string
	Observe(t impel.Time, s impel.State, diff float64)
	Value() float64
	Reset()
}

// Defaults returns a fresh set of the standard metrics for one impeller.
func Defaults(settled impel.Settled) []Metric {
	return []Metric{
		NewSettleTime(settled),
		NewPeakOvershoot(),
		NewPeakVelocity(),
		NewCrossings(),
	}
}
