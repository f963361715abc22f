package config

import (
	"sort"

	"github.com/san-kum/impel/internal/impel"
	"github.com/san-kum/impel/internal/overshoot"
)

const halfTurn = 3.14159265359

// AngleDriver is a modular driver over [-pi, pi) tuned to settle a half
// turn in well under a second.
func AngleDriver() DriverConfig {
	return DriverConfig{
		Type: string(overshoot.Type),
		Overshoot: overshoot.Init{
			Modular:                  true,
			Min:                      -halfTurn,
			Max:                      halfTurn,
			MaxVelocity:              0.021,
			MaxDelta:                 3.141,
			AccelPerDifference:       0.00032,
			WrongDirectionMultiplier: 4.0,
			MaxDeltaTime:             10,
			AtTarget:                 impel.Settled{MaxDifference: 0.087, MaxVelocity: 0.00059},
		},
	}
}

// PercentDriver is a bounded driver over [0, 100].
func PercentDriver() DriverConfig {
	return DriverConfig{
		Type: string(overshoot.Type),
		Overshoot: overshoot.Init{
			Min:                      0,
			Max:                      100,
			MaxVelocity:              10,
			MaxDelta:                 50,
			AccelPerDifference:       0.00032,
			WrongDirectionMultiplier: 4.0,
			MaxDeltaTime:             10,
			AtTarget:                 impel.Settled{MaxDifference: 0.087, MaxVelocity: 0.00059},
		},
	}
}

var Presets = map[string]*Config{
	"angle": DefaultConfig(),
	"wrap": {
		Name: "wrap", FrameMs: 10, MaxTimeMs: 10000,
		Drivers: map[string]DriverConfig{"angle": AngleDriver()},
		Impellers: []ImpellerConfig{
			{Name: "edge", Driver: "angle", Value: halfTurn, Velocity: 0.021, Target: halfTurn},
		},
	},
	"percent": {
		Name: "percent", FrameMs: 10, MaxTimeMs: 10000,
		Drivers: map[string]DriverConfig{"percent": PercentDriver()},
		Impellers: []ImpellerConfig{
			{Name: "pinned", Driver: "percent", Value: 100, Velocity: 10, Target: 100},
			{Name: "fill", Driver: "percent", Value: 0, Velocity: 0, Target: 75},
		},
	},
	"swarm": {
		Name: "swarm", FrameMs: 16, MaxTimeMs: 5000, StopWhenSettled: true,
		Drivers: map[string]DriverConfig{"angle": AngleDriver(), "percent": PercentDriver()},
		Impellers: []ImpellerConfig{
			{Name: "north", Driver: "angle", Value: -3, Velocity: 0, Target: 0, Count: 4},
			{Name: "flip", Driver: "angle", Value: 0, Velocity: 0.021, Target: 3.1},
			{Name: "back", Driver: "angle", Value: 2.5, Velocity: -0.01, Target: -2.5},
			{Name: "gauge", Driver: "percent", Value: 10, Velocity: 0, Target: 90, Count: 2},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
