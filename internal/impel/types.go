package impel

import "math"

// Time is elapsed simulation time in milliseconds.
type Time int

// DriverType identifies a motion model.
type DriverType string

// SmoothType names the critically damped model. No driver is registered for
// it in this module.
const SmoothType DriverType = "smooth"

// State is the mutable payload of one slot.
type State struct {
	Value       float64 `yaml:"value" json:"value"`
	Velocity    float64 `yaml:"velocity" json:"velocity"`
	TargetValue float64 `yaml:"target" json:"target"`
}

// Init configures a driver. Implementations are immutable value types.
type Init interface {
	Type() DriverType
}

// Driver is the per-slot instance of a motion model.
type Driver interface {
	// Advance steps s forward by dt. Drivers clamp dt to their own maximum
	// step and treat dt <= 0 as a no-op.
	Advance(s *State, dt Time)

	// Difference returns TargetValue - Value measured in the driver's domain.
	Difference(s State) float64

	// Normalize maps a value into the driver's domain.
	Normalize(value float64) float64
}

// Factory builds a driver from an Init of the type it was registered for.
type Factory func(init Init) (Driver, error)

// Settled holds the thresholds under which a value counts as arrived.
type Settled struct {
	MaxDifference float64 `yaml:"max_difference" json:"max_difference"`
	MaxVelocity   float64 `yaml:"max_velocity" json:"max_velocity"`
}

// SettledState applies the thresholds to a raw difference and velocity.
func (s Settled) SettledState(diff, velocity float64) bool {
	return math.Abs(diff) <= s.MaxDifference && math.Abs(velocity) <= s.MaxVelocity
}

// Settled reports whether h is within tolerance of its target. It panics
// with a *MisuseError if h is not valid.
func (s Settled) Settled(h *Impeller) bool {
	sl := h.mustResolve("Settled")
	return s.SettledState(sl.driver.Difference(sl.state), sl.state.Velocity)
}
