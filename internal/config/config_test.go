package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/impel/internal/impel"
	"github.com/san-kum/impel/internal/overshoot"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.FrameMs <= 0 {
		t.Error("frame_ms should be positive")
	}
	if cfg.MaxTimeMs < cfg.FrameMs {
		t.Error("max_time_ms should cover at least one frame")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestPresetsValidate(t *testing.T) {
	for _, name := range ListPresets() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("preset %s missing", name)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestGetPresetReturnsCopy(t *testing.T) {
	cfg := GetPreset("percent")
	cfg.Impellers[0].Target = -1
	cfg.Drivers["percent"] = AngleDriver()

	fresh := GetPreset("percent")
	if fresh.Impellers[0].Target != 100 {
		t.Errorf("preset impellers were mutated: %v", fresh.Impellers[0].Target)
	}
	if fresh.Drivers["percent"].Overshoot.Modular {
		t.Error("preset drivers were mutated")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	want := GetPreset("swarm")

	if err := Save(path, want); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if got.FrameMs != want.FrameMs || got.StopWhenSettled != want.StopWhenSettled {
		t.Errorf("scalar fields differ: got %+v", got)
	}
	if got.Drivers["angle"] != want.Drivers["angle"] {
		t.Errorf("angle driver differs:\n got %+v\nwant %+v", got.Drivers["angle"], want.Drivers["angle"])
	}
	if len(got.Impellers) != len(want.Impellers) {
		t.Fatalf("expected %d impellers, got %d", len(want.Impellers), len(got.Impellers))
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dial.yaml")
	content := `
frame_ms: 5
max_time_ms: 2000
drivers:
  dial:
    type: overshoot
    modular: true
    min: 0
    max: 360
    max_velocity: 0.5
    max_delta: 180
    accel_per_difference: 0.0001
    wrong_direction_multiplier: 3
    max_delta_time: 16
    at_target:
      max_difference: 1
      max_velocity: 0.01
impellers:
  - name: needle
    driver: dial
    value: 350
    target: 10
    count: 3
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	dial := cfg.Drivers["dial"].Overshoot
	if !dial.Modular || dial.Max != 360 || dial.MaxDeltaTime != 16 {
		t.Errorf("unexpected driver: %+v", dial)
	}
	if dial.AtTarget.MaxDifference != 1 {
		t.Errorf("expected at_target.max_difference 1, got %v", dial.AtTarget.MaxDifference)
	}
	if len(cfg.Drivers) != 1 {
		t.Errorf("defaults should not leak into loaded drivers, got %v", cfg.DriverNames())
	}
	if n := cfg.Impellers[0].Instances(); n != 3 {
		t.Errorf("expected 3 instances, got %d", n)
	}
	if s := cfg.Impellers[0].State(); s.Value != 350 || s.TargetValue != 10 {
		t.Errorf("unexpected state: %+v", s)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero frame", func(c *Config) { c.FrameMs = 0 }},
		{"max time below frame", func(c *Config) { c.MaxTimeMs = 5 }},
		{"unknown driver reference", func(c *Config) { c.Impellers[0].Driver = "missing" }},
		{"negative count", func(c *Config) { c.Impellers[0].Count = -1 }},
		{"bad driver bounds", func(c *Config) {
			d := c.Drivers["angle"]
			d.Overshoot.Min = d.Overshoot.Max
			c.Drivers["angle"] = d
		}},
		{"unsupported driver type", func(c *Config) {
			d := c.Drivers["angle"]
			d.Type = "smooth"
			c.Drivers["angle"] = d
		}},
		{"missing driver type", func(c *Config) {
			d := c.Drivers["angle"]
			d.Type = ""
			c.Drivers["angle"] = d
		}},
		{"no drivers", func(c *Config) {
			c.Drivers = map[string]DriverConfig{}
			c.Impellers = nil
		}},
		{"no impellers", func(c *Config) { c.Impellers = nil }},
		{"duplicate impeller name", func(c *Config) {
			c.Impellers = append(c.Impellers, c.Impellers[0])
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestDriverConfigInit(t *testing.T) {
	init, err := AngleDriver().Init()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if init.Type() != overshoot.Type {
		t.Errorf("expected overshoot type, got %s", init.Type())
	}

	_, err = DriverConfig{Type: "smooth"}.Init()
	if !errors.Is(err, impel.ErrUnregisteredDriver) {
		t.Errorf("expected ErrUnregisteredDriver, got %v", err)
	}
}
