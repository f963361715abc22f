package overshoot

import (
	"fmt"

	"github.com/san-kum/impel/internal/impel"
)

// Register installs the overshoot factory in reg.
func Register(reg *impel.Registry) {
	reg.Register(Type, New)
}

// New builds an overshoot driver. It accepts Init or *Init.
func New(init impel.Init) (impel.Driver, error) {
	var cfg Init
	switch v := init.(type) {
	case Init:
		cfg = v
	case *Init:
		if v == nil {
			return nil, fmt.Errorf("%w: nil overshoot init", impel.ErrInvalidInit)
		}
		cfg = *v
	default:
		return nil, fmt.Errorf("%w: overshoot driver given %T", impel.ErrInvalidInit, init)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Driver{init: cfg, rng: cfg.Range()}, nil
}

// Driver is the per-slot overshoot state machine.
type Driver struct {
	init Init
	rng  Range
}

func (d *Driver) Init() Init { return d.init }

// Advance applies one clamped step: velocity picks up the acceleration,
// then the value moves by the new velocity and is wrapped or clamped.
func (d *Driver) Advance(s *impel.State, dt impel.Time) {
	dt = min(dt, d.init.MaxDeltaTime)
	if dt <= 0 {
		return
	}
	step := float64(dt)

	s.Velocity = d.init.ClampVelocity(s.Velocity + d.Acceleration(*s)*step)
	s.Value = d.rng.Normalize(s.Value + s.Velocity*step)
}

// Acceleration pulls toward the target in proportion to the clamped
// difference, scaled by WrongDirectionMultiplier while moving away.
func (d *Driver) Acceleration(s impel.State) float64 {
	diff := d.init.ClampDelta(d.Difference(s))

	gain := d.init.AccelPerDifference
	if s.Velocity*diff < 0 {
		gain *= d.init.WrongDirectionMultiplier
	}
	return diff * gain
}

func (d *Driver) Difference(s impel.State) float64 {
	return d.rng.Difference(s.Value, s.TargetValue)
}

func (d *Driver) Normalize(value float64) float64 {
	return d.rng.Normalize(value)
}
