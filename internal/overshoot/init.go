package overshoot

import (
	"fmt"
	"math"

	"github.com/san-kum/impel/internal/impel"
)

// Type is the registry identifier of the overshoot driver.
const Type impel.DriverType = "overshoot"

// Init configures an overshoot driver.
type Init struct {
	// Modular makes the domain wrap, Max connecting back to Min.
	Modular bool    `yaml:"modular" json:"modular"`
	Min     float64 `yaml:"min" json:"min"`
	Max     float64 `yaml:"max" json:"max"`

	// MaxVelocity bounds |velocity|, in units per millisecond.
	MaxVelocity float64 `yaml:"max_velocity" json:"max_velocity"`

	// MaxDelta bounds the |target - value| used to compute acceleration.
	MaxDelta float64 `yaml:"max_delta" json:"max_delta"`

	AccelPerDifference       float64 `yaml:"accel_per_difference" json:"accel_per_difference"`
	WrongDirectionMultiplier float64 `yaml:"wrong_direction_multiplier" json:"wrong_direction_multiplier"`

	// MaxDeltaTime is the longest step applied at once; longer frames are
	// clamped to it, not subdivided.
	MaxDeltaTime impel.Time `yaml:"max_delta_time" json:"max_delta_time"`

	AtTarget impel.Settled `yaml:"at_target" json:"at_target"`
}

func (Init) Type() impel.DriverType { return Type }

func (i Init) Range() Range {
	return Range{Min: i.Min, Max: i.Max, Modular: i.Modular}
}

// ClampVelocity limits v to [-MaxVelocity, MaxVelocity].
func (i Init) ClampVelocity(v float64) float64 {
	return math.Max(-i.MaxVelocity, math.Min(i.MaxVelocity, v))
}

// ClampDelta limits d to [-MaxDelta, MaxDelta].
func (i Init) ClampDelta(d float64) float64 {
	return math.Max(-i.MaxDelta, math.Min(i.MaxDelta, d))
}

// Validate checks the descriptor for values the integrator cannot use.
func (i Init) Validate() error {
	for name, v := range map[string]float64{
		"min": i.Min, "max": i.Max,
		"max_velocity": i.MaxVelocity, "max_delta": i.MaxDelta,
		"accel_per_difference": i.AccelPerDifference, "wrong_direction_multiplier": i.WrongDirectionMultiplier,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", impel.ErrInvalidInit, name)
		}
	}

	switch {
	case i.Min >= i.Max:
		return fmt.Errorf("%w: min %g must be below max %g", impel.ErrInvalidInit, i.Min, i.Max)
	case i.MaxVelocity < 0:
		return fmt.Errorf("%w: max_velocity must not be negative, got %g", impel.ErrInvalidInit, i.MaxVelocity)
	case i.MaxDelta < 0:
		return fmt.Errorf("%w: max_delta must not be negative, got %g", impel.ErrInvalidInit, i.MaxDelta)
	case i.WrongDirectionMultiplier < 0:
		return fmt.Errorf("%w: wrong_direction_multiplier must not be negative, got %g", impel.ErrInvalidInit, i.WrongDirectionMultiplier)
	case i.MaxDeltaTime <= 0:
		return fmt.Errorf("%w: max_delta_time must be positive, got %d", impel.ErrInvalidInit, i.MaxDeltaTime)
	}
	return nil
}
