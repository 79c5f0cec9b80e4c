package config

import (
	"sort"
	"time"

	"github.com/san-kum/walksim/internal/sim"
)

type Preset struct {
	Description string
	Defaults    sim.Defaults
}

var Presets = map[string]map[string]Preset{
	"voltage": {
		"default": {
			Description: "0-10 V, 0.1 V steps, 1 s",
			Defaults:    sim.Voltage.Defaults,
		},
		"narrow": {
			Description: "4-6 V around 5 V, fine steps",
			Defaults: sim.Defaults{
				Settings: sim.Settings{Interval: time.Second, Min: 4, Max: 6, Step: 0.05},
				Start:    5,
			},
		},
		"fast": {
			Description: "default range at 10 Hz",
			Defaults: sim.Defaults{
				Settings: sim.Settings{Interval: 100 * time.Millisecond, Min: 0, Max: 10, Step: 0.1},
			},
		},
		"saturate": {
			Description: "range narrower than one step, pins at the bounds",
			Defaults: sim.Defaults{
				Settings: sim.Settings{Interval: 100 * time.Millisecond, Min: 0, Max: 0.05, Step: 0.1},
			},
		},
	},
	"temperature": {
		"default": {
			Description: "20-100 C, up to 0.5 C per step, 1 s",
			Defaults:    sim.Temperature.Defaults,
		},
		"room": {
			Description: "18-26 C indoor drift",
			Defaults: sim.Defaults{
				Settings: sim.Settings{Interval: 2 * time.Second, Min: 18, Max: 26, Step: 0.1},
				Start:    21,
			},
		},
		"furnace": {
			Description: "200-900 C, large fast swings",
			Defaults: sim.Defaults{
				Settings: sim.Settings{Interval: 250 * time.Millisecond, Min: 200, Max: 900, Step: 5},
				Start:    200,
			},
		},
	},
}

func GetPreset(variant, preset string) *Preset {
	variantPresets, ok := Presets[variant]
	if !ok {
		return nil
	}
	p, ok := variantPresets[preset]
	if !ok {
		return nil
	}
	return &p
}

func ListPresets(variant string) []string {
	variantPresets, ok := Presets[variant]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(variantPresets))
	for name := range variantPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
