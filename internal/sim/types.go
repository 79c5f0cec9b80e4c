package sim

import (
	"math/rand"
	"time"
)

// Observer receives the value produced by a tick.
type Observer func(value float64)

// Perturbation draws the unscaled per-tick delta, in [-1, 1].
type Perturbation interface {
	Sample(r *rand.Rand) float64
}

// Discrete draws uniformly from {-1, 0, +1}.
type Discrete struct{}

func (Discrete) Sample(r *rand.Rand) float64 { return float64(r.Intn(3) - 1) }

// Continuous draws uniformly from [-1, 1).
type Continuous struct{}

func (Continuous) Sample(r *rand.Rand) float64 { return r.Float64()*2 - 1 }

type fixed float64

func (f fixed) Sample(*rand.Rand) float64 { return float64(f) }

// Fixed returns a perturbation that always yields v.
func Fixed(v float64) Perturbation { return fixed(v) }

type Settings struct {
	Interval time.Duration
	Min      float64
	Max      float64
	Step     float64
}

type Defaults struct {
	Settings
	Start float64
}

type Variant struct {
	Name         string
	Description  string
	Perturbation Perturbation
	Defaults     Defaults
}

var (
	Voltage = Variant{
		Name:         "voltage",
		Description:  "fast discrete walk, steps of -1/0/+1 x step",
		Perturbation: Discrete{},
		Defaults: Defaults{
			Settings: Settings{Interval: time.Second, Min: 0, Max: 10, Step: 0.1},
			Start:    0,
		},
	}

	Temperature = Variant{
		Name:         "temperature",
		Description:  "slow continuous walk, uniform [-1,1] x step",
		Perturbation: Continuous{},
		Defaults: Defaults{
			Settings: Settings{Interval: time.Second, Min: 20, Max: 100, Step: 0.5},
			Start:    20,
		},
	}
)

// Snapshot is a consistent read of a simulator's parameters and value.
type Snapshot struct {
	Settings
	Value   float64
	Running bool
	Ticks   uint64
}

// clamp checks hi before lo, so an inverted range pins overshoots to hi.
func clamp(v, lo, hi float64) float64 {
	if v > hi {
		return hi
	} else if v < lo {
		return lo
	}
	return v
}
