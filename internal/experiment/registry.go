package experiment

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/walksim/internal/config"
	"github.com/san-kum/walksim/internal/metrics"
	"github.com/san-kum/walksim/internal/sim"
	"github.com/sirupsen/logrus"
)

var ErrUnknownVariant = errors.New("experiment: unknown variant")

type Registry struct {
	variants map[string]sim.Variant
	aliases  map[string]string
}

func NewRegistry() *Registry {
	r := &Registry{
		variants: make(map[string]sim.Variant),
		aliases:  make(map[string]string),
	}

	r.Register(sim.Voltage, "a", "discrete")
	r.Register(sim.Temperature, "b", "continuous")

	return r
}

// Register adds v under its name and any aliases, replacing earlier entries.
func (r *Registry) Register(v sim.Variant, aliases ...string) {
	r.variants[v.Name] = v
	for _, a := range aliases {
		r.aliases[a] = v.Name
	}
}

func (r *Registry) GetVariant(name string) (sim.Variant, error) {
	key := strings.ToLower(name)
	if canonical, ok := r.aliases[key]; ok {
		key = canonical
	}
	v, ok := r.variants[key]
	if !ok {
		return sim.Variant{}, fmt.Errorf("%w: %s", ErrUnknownVariant, name)
	}
	return v, nil
}

func (r *Registry) ListVariants() []string {
	names := make([]string, 0, len(r.variants))
	for name := range r.variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewSimulator builds a stopped simulator for sc.
func (r *Registry) NewSimulator(sc config.SignalConfig, log *logrus.Entry) (*sim.Simulator, error) {
	v, err := r.GetVariant(sc.Variant)
	if err != nil {
		return nil, err
	}
	d, err := sc.Resolve(v)
	if err != nil {
		return nil, err
	}
	v.Defaults = d

	name := sc.Name
	if name == "" {
		name = v.Name
	}
	opts := []sim.Option{sim.WithName(name)}
	if sc.Seed != 0 {
		opts = append(opts, sim.WithSeed(sc.Seed))
	}
	if log != nil {
		opts = append(opts, sim.WithLogger(log.WithField("variant", v.Name)))
	}
	return sim.New(v, opts...), nil
}

// NewEnsemble builds one simulator per configured signal. Nothing is started.
func (r *Registry) NewEnsemble(cfg *config.Config, log *logrus.Entry) (*sim.Ensemble, error) {
	e := sim.NewEnsemble()
	for _, sc := range cfg.Signals {
		s, err := r.NewSimulator(sc, log)
		if err != nil {
			return nil, fmt.Errorf("signal %s: %w", sc.Name, err)
		}
		e.Add(s)
	}
	return e, nil
}

func (r *Registry) DefaultMetrics(s sim.Settings) []metrics.Metric {
	return metrics.Defaults(s.Min, s.Max)
}
