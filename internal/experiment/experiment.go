package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/walksim/internal/config"
	"github.com/san-kum/walksim/internal/metrics"
	"github.com/san-kum/walksim/internal/sim"
	"github.com/sirupsen/logrus"
)

const DefaultWindow = 1024

// Config bounds a run. With neither Ticks nor Duration set, Run lasts until
// the context is done.
type Config struct {
	Signal   config.SignalConfig
	Ticks    int
	Duration time.Duration
	Window   int
}

type Result struct {
	Signal   string
	Variant  string
	Settings sim.Settings
	Samples  []float64
	Metrics  map[string]float64
	Ticks    int
	Final    float64
	Elapsed  time.Duration
}

type Experiment struct {
	cfg       Config
	variant   string
	simulator *sim.Simulator
	collector *metrics.Collector
}

func New(cfg Config) *Experiment {
	return &Experiment{cfg: cfg}
}

func (e *Experiment) Setup(r *Registry, log *logrus.Entry) error {
	v, err := r.GetVariant(e.cfg.Signal.Variant)
	if err != nil {
		return err
	}
	s, err := r.NewSimulator(e.cfg.Signal, log)
	if err != nil {
		return err
	}

	window := e.cfg.Window
	if e.cfg.Ticks > 0 {
		window = e.cfg.Ticks
	}
	if window <= 0 {
		window = DefaultWindow
	}

	e.variant = v.Name
	e.simulator = s
	e.collector = metrics.NewCollector(window, r.DefaultMetrics(s.Settings())...)
	return nil
}

// Run starts the simulator, waits for the configured bound and stops it. A
// cancelled context returns the partial result together with ctx.Err().
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	reached := make(chan struct{})
	seen := 0
	e.simulator.RegisterCallback(func(v float64) {
		if e.cfg.Ticks > 0 && seen >= e.cfg.Ticks {
			return
		}
		e.collector.Observe(v)
		seen++
		if seen == e.cfg.Ticks {
			close(reached)
		}
	})
	defer e.simulator.RegisterCallback(nil)

	var deadline <-chan time.Time
	if e.cfg.Duration > 0 {
		timer := time.NewTimer(e.cfg.Duration)
		defer timer.Stop()
		deadline = timer.C
	}

	start := time.Now()
	e.simulator.Start()

	var err error
	select {
	case <-reached:
	case <-deadline:
	case <-ctx.Done():
		err = ctx.Err()
	}
	e.simulator.Stop()

	return &Result{
		Signal:   e.simulator.Name(),
		Variant:  e.variant,
		Settings: e.simulator.Settings(),
		Samples:  e.collector.Window(),
		Metrics:  e.collector.Values(),
		Ticks:    seen,
		Final:    e.simulator.Value(),
		Elapsed:  time.Since(start),
	}, err
}

// GetSimulator returns the underlying simulator for live parameter changes.
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}
