package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/san-kum/walksim/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultLogLevel = "info"
)

var (
	ErrUnknownPreset = errors.New("config: unknown preset")
	ErrInvalidSignal = errors.New("config: invalid signal")
)

type Config struct {
	LogLevel string         `yaml:"log_level"`
	Signals  []SignalConfig `yaml:"signals"`
}

// SignalConfig describes one simulator. Unset numeric fields fall back to the
// preset, then to the variant defaults.
type SignalConfig struct {
	Name       string   `yaml:"name"`
	Variant    string   `yaml:"variant"`
	Preset     string   `yaml:"preset,omitempty"`
	IntervalMs *uint    `yaml:"interval_ms,omitempty"`
	Min        *float64 `yaml:"min,omitempty"`
	Max        *float64 `yaml:"max,omitempty"`
	Step       *float64 `yaml:"step,omitempty"`
	Start      *float64 `yaml:"start,omitempty"`
	Seed       int64    `yaml:"seed,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Signals: []SignalConfig{
			{Name: "voltage", Variant: "voltage"},
			{Name: "temperature", Variant: "temperature"},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
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

func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Signals))
	for i, s := range c.Signals {
		if s.Name == "" {
			return fmt.Errorf("%w: signal %d has no name", ErrInvalidSignal, i)
		}
		if s.Variant == "" {
			return fmt.Errorf("%w: signal %q has no variant", ErrInvalidSignal, s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate signal name %q", ErrInvalidSignal, s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// Signal returns the signal with the given name.
func (c *Config) Signal(name string) (SignalConfig, bool) {
	for _, s := range c.Signals {
		if s.Name == name {
			return s, true
		}
	}
	return SignalConfig{}, false
}

// Resolve layers the preset and explicit fields over the variant defaults.
func (s SignalConfig) Resolve(v sim.Variant) (sim.Defaults, error) {
	d := v.Defaults
	if s.Preset != "" {
		p := GetPreset(v.Name, s.Preset)
		if p == nil {
			return d, fmt.Errorf("%w: %s (available: %v)", ErrUnknownPreset, s.Preset, ListPresets(v.Name))
		}
		d = p.Defaults
	}
	if s.IntervalMs != nil {
		d.Interval = time.Duration(*s.IntervalMs) * time.Millisecond
	}
	if s.Min != nil {
		d.Min = *s.Min
	}
	if s.Max != nil {
		d.Max = *s.Max
	}
	if s.Step != nil {
		d.Step = *s.Step
	}
	if s.Start != nil {
		d.Start = *s.Start
	}
	return d, nil
}
