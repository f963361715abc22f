package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/san-kum/impel/internal/impel"
	"github.com/san-kum/impel/internal/overshoot"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFrameMs   impel.Time = 10
	DefaultMaxTimeMs impel.Time = 10000
)

// Config describes a scenario: the drivers available to it, the impellers
// to start and how frames are stepped.
type Config struct {
	Name            string                  `yaml:"name,omitempty"`
	FrameMs         impel.Time              `yaml:"frame_ms"`
	MaxTimeMs       impel.Time              `yaml:"max_time_ms"`
	StopWhenSettled bool                    `yaml:"stop_when_settled"`
	Drivers         map[string]DriverConfig `yaml:"drivers"`
	Impellers       []ImpellerConfig        `yaml:"impellers"`
}

// DriverConfig is a named Init descriptor. Type selects the motion model
// and is required; the remaining keys are that model's parameters.
type DriverConfig struct {
	Type      string         `yaml:"type"`
	Overshoot overshoot.Init `yaml:",inline"`
}

type ImpellerConfig struct {
	Name     string  `yaml:"name"`
	Driver   string  `yaml:"driver"`
	Value    float64 `yaml:"value"`
	Velocity float64 `yaml:"velocity"`
	Target   float64 `yaml:"target"`
	// Count starts this many identical impellers; zero means one.
	Count int `yaml:"count,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:      "angle",
		FrameMs:   DefaultFrameMs,
		MaxTimeMs: DefaultMaxTimeMs,
		Drivers: map[string]DriverConfig{
			"angle": AngleDriver(),
		},
		Impellers: []ImpellerConfig{
			{Name: "heading", Driver: "angle", Value: 0, Velocity: 0.021, Target: -3.14159265359 + 1},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	cfg.Drivers = nil
	cfg.Impellers = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Init returns the engine descriptor for the driver.
func (d DriverConfig) Init() (impel.Init, error) {
	switch impel.DriverType(d.Type) {
	case overshoot.Type:
		return d.Overshoot, nil
	case "":
		return nil, fmt.Errorf("driver type is required")
	default:
		return nil, fmt.Errorf("%w: %q", impel.ErrUnregisteredDriver, d.Type)
	}
}

// Settled returns the driver's arrival thresholds.
func (d DriverConfig) Settled() impel.Settled {
	return d.Overshoot.AtTarget
}

func (c *Config) Validate() error {
	if c.FrameMs <= 0 {
		return fmt.Errorf("frame_ms must be positive, got %d", c.FrameMs)
	}
	if c.MaxTimeMs < c.FrameMs {
		return fmt.Errorf("max_time_ms %d is shorter than one frame (%d)", c.MaxTimeMs, c.FrameMs)
	}
	if len(c.Drivers) == 0 {
		return fmt.Errorf("no drivers defined")
	}
	if len(c.Impellers) == 0 {
		return fmt.Errorf("no impellers defined")
	}

	for _, name := range c.DriverNames() {
		init, err := c.Drivers[name].Init()
		if err != nil {
			return fmt.Errorf("driver %s: %w", name, err)
		}
		if v, ok := init.(interface{ Validate() error }); ok {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("driver %s: %w", name, err)
			}
		}
	}

	seen := make(map[string]bool, len(c.Impellers))
	for i, imp := range c.Impellers {
		if seen[imp.Name] {
			return fmt.Errorf("impeller %d: duplicate name %q", i, imp.Name)
		}
		seen[imp.Name] = true
		if _, ok := c.Drivers[imp.Driver]; !ok {
			return fmt.Errorf("impeller %d (%s): unknown driver %q", i, imp.Name, imp.Driver)
		}
		if imp.Count < 0 {
			return fmt.Errorf("impeller %d (%s): count must not be negative", i, imp.Name)
		}
	}
	return nil
}

// DriverNames returns the configured driver names in sorted order.
func (c *Config) DriverNames() []string {
	names := make([]string, 0, len(c.Drivers))
	for name := range c.Drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Drivers = make(map[string]DriverConfig, len(c.Drivers))
	for k, v := range c.Drivers {
		out.Drivers[k] = v
	}
	out.Impellers = append([]ImpellerConfig(nil), c.Impellers...)
	return &out
}

func (i ImpellerConfig) State() impel.State {
	return impel.State{Value: i.Value, Velocity: i.Velocity, TargetValue: i.Target}
}

// Instances returns how many impellers this entry starts.
func (i ImpellerConfig) Instances() int {
	if i.Count <= 0 {
		return 1
	}
	return i.Count
}
