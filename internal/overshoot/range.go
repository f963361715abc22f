package overshoot

import "math"

// Range is the value domain of a driver.
type Range struct {
	Min, Max float64
	Modular  bool
}

func (r Range) Width() float64 { return r.Max - r.Min }

// Clamp limits x to [Min, Max].
func (r Range) Clamp(x float64) float64 {
	return math.Max(r.Min, math.Min(r.Max, x))
}

// Normalize wraps x into [Min, Max) for modular ranges and clamps it into
// [Min, Max] otherwise.
func (r Range) Normalize(x float64) float64 {
	if !r.Modular {
		return r.Clamp(x)
	}
	if x >= r.Min && x < r.Max {
		return x
	}

	w := r.Width()
	wrapped := math.Mod(x-r.Min, w)
	if wrapped < 0 {
		wrapped += w
	}
	// Mod can round up to exactly w for tiny negative inputs.
	if wrapped >= w {
		wrapped = 0
	}
	return r.Min + wrapped
}

// Difference returns to - from. In a modular range it is the shortest signed
// distance around the wrap, in [-Width/2, Width/2].
func (r Range) Difference(from, to float64) float64 {
	d := to - from
	if r.Modular {
		d = math.Remainder(d, r.Width())
	}
	return d
}
