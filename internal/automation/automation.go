package automation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/san-kum/walksim/internal/config"
	"github.com/san-kum/walksim/internal/experiment"
	"github.com/san-kum/walksim/internal/metrics"
	"github.com/san-kum/walksim/internal/sim"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	ActionStart  = "start"
	ActionStop   = "stop"
	ActionSet    = "set"
	ActionSample = "sample"
)

var (
	ErrUnknownAction = errors.New("automation: unknown action")
	ErrStepOrder     = errors.New("automation: steps out of order")
	ErrUnknownParam  = errors.New("automation: unknown sweep parameter")
)

// Scenario scripts lifecycle and parameter changes against one live signal.
type Scenario struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Signal      config.SignalConfig `yaml:"signal"`
	Steps       []ScenarioStep      `yaml:"steps"`
}

// ScenarioStep fires AfterMs milliseconds after the scenario starts.
type ScenarioStep struct {
	AfterMs    uint     `yaml:"after_ms"`
	Action     string   `yaml:"action"`
	IntervalMs *uint    `yaml:"interval_ms,omitempty"`
	Min        *float64 `yaml:"min,omitempty"`
	Max        *float64 `yaml:"max,omitempty"`
	Step       *float64 `yaml:"step,omitempty"`
}

type StepResult struct {
	Index   int
	Action  string
	At      time.Duration
	Value   float64
	Running bool
	Ticks   uint64
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return &scenario, nil
}

func (s *Scenario) Validate() error {
	var last uint
	for i, step := range s.Steps {
		switch step.Action {
		case ActionStart, ActionStop, ActionSet, ActionSample:
		default:
			return fmt.Errorf("step %d: %w: %q", i+1, ErrUnknownAction, step.Action)
		}
		if step.AfterMs < last {
			return fmt.Errorf("step %d: %w: %dms after %dms", i+1, ErrStepOrder, step.AfterMs, last)
		}
		last = step.AfterMs
	}
	return nil
}

// RunScenario builds the scenario's signal and plays its steps in order. The
// simulator is always stopped on return.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, log *logrus.Entry) ([]StepResult, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	s, err := registry.NewSimulator(scenario.Signal, log)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	results := make([]StepResult, 0, len(scenario.Steps))
	start := time.Now()

	for i, step := range scenario.Steps {
		due := time.Duration(step.AfterMs) * time.Millisecond
		if wait := due - time.Since(start); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return results, ctx.Err()
			case <-timer.C:
			}
		}

		Apply(s, step)
		snap := s.Snapshot()
		res := StepResult{
			Index:   i,
			Action:  step.Action,
			At:      time.Since(start),
			Value:   snap.Value,
			Running: snap.Running,
			Ticks:   snap.Ticks,
		}
		results = append(results, res)

		log.WithFields(logrus.Fields{
			"step":   i + 1,
			"action": step.Action,
			"value":  res.Value,
		}).Info("scenario step")
	}

	return results, nil
}

// Apply performs a single step against s.
func Apply(s *sim.Simulator, step ScenarioStep) {
	switch step.Action {
	case ActionStart:
		s.Start()
	case ActionStop:
		s.Stop()
	case ActionSet:
		if step.IntervalMs != nil {
			s.SetInterval(time.Duration(*step.IntervalMs) * time.Millisecond)
		}
		if step.Min != nil {
			s.SetMin(*step.Min)
		}
		if step.Max != nil {
			s.SetMax(*step.Max)
		}
		if step.Step != nil {
			s.SetStep(*step.Step)
		}
	}
}

// ParameterSweep ticks a signal by hand across a range of one parameter.
type ParameterSweep struct {
	Signal    config.SignalConfig
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Ticks     int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue float64
	Final      float64
	Metrics    map[string]float64
}

// RunSweep drives Ticks synchronous ticks per parameter value; no wall-clock
// time is spent waiting on the interval.
func RunSweep(ctx context.Context, sweep *ParameterSweep, registry *experiment.Registry) ([]SweepResult, error) {
	switch sweep.ParamName {
	case "step", "min", "max":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownParam, sweep.ParamName)
	}

	n := sweep.NumSteps
	if n < 1 {
		n = 1
	}
	paramStep := 0.0
	if n > 1 {
		paramStep = (sweep.ParamMax - sweep.ParamMin) / float64(n-1)
	}

	results := make([]SweepResult, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		s, err := registry.NewSimulator(sweep.Signal, nil)
		if err != nil {
			return nil, err
		}

		paramVal := sweep.ParamMin + float64(i)*paramStep
		switch sweep.ParamName {
		case "step":
			s.SetStep(paramVal)
		case "min":
			s.SetMin(paramVal)
		case "max":
			s.SetMax(paramVal)
		}

		set := s.Settings()
		c := metrics.NewCollector(1, metrics.Defaults(set.Min, set.Max)...)
		s.RegisterCallback(c.Observe)
		for t := 0; t < sweep.Ticks; t++ {
			s.Step()
		}

		results = append(results, SweepResult{
			ParamValue: paramVal,
			Final:      s.Value(),
			Metrics:    c.Values(),
		})
	}

	return results, nil
}
