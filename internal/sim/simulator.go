package sim

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Simulator owns one bounded random-walk value and emits it on a fixed cadence.
//
// The observer runs on the loop goroutine while the state mutex is held, so no
// tick completes before its observer returns. An observer must not call back
// into the simulator; every accessor takes the same mutex and would deadlock.
type Simulator struct {
	name    string
	pert    Perturbation
	rng     *rand.Rand
	log     *logrus.Entry
	running atomic.Bool

	// lifecycle serializes Start/Stop so at most one loop exists.
	lifecycle sync.Mutex
	quit      chan struct{}
	done      chan struct{}

	mu       sync.Mutex
	settings Settings
	value    float64
	ticks    uint64
	observer Observer
}

type Option func(*Simulator)

func WithName(name string) Option { return func(s *Simulator) { s.name = name } }

func WithSeed(seed int64) Option {
	return func(s *Simulator) { s.rng = rand.New(rand.NewSource(seed)) }
}

// WithRand supplies the random source. It is only read under the state mutex.
func WithRand(r *rand.Rand) Option { return func(s *Simulator) { s.rng = r } }

func WithPerturbation(p Perturbation) Option { return func(s *Simulator) { s.pert = p } }

func WithLogger(l *logrus.Entry) Option { return func(s *Simulator) { s.log = l } }

func New(v Variant, opts ...Option) *Simulator {
	s := &Simulator{
		name:     v.Name,
		pert:     v.Perturbation,
		settings: v.Defaults.Settings,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pert == nil {
		s.pert = Continuous{}
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.log == nil {
		s.log = logrus.NewEntry(logrus.StandardLogger())
	}
	s.log = s.log.WithField("signal", s.name)
	s.value = clamp(v.Defaults.Start, s.settings.Min, s.settings.Max)
	return s
}

func NewVoltage(opts ...Option) *Simulator     { return New(Voltage, opts...) }
func NewTemperature(opts ...Option) *Simulator { return New(Temperature, opts...) }

func (s *Simulator) Name() string { return s.name }

// Start launches the generation loop. It is a no-op while running.
func (s *Simulator) Start() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.running.Load() {
		return
	}
	s.running.Store(true)
	s.quit = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.quit, s.done)
	s.log.Debug("simulator started")
}

// Stop halts the loop and waits for it to exit. No observer call happens after
// Stop returns. It is a no-op while stopped.
func (s *Simulator) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if !s.running.Load() {
		return
	}
	s.running.Store(false)
	close(s.quit)
	<-s.done
	s.log.WithField("ticks", s.Ticks()).Debug("simulator stopped")
}

// Close stops the loop if it is running. The simulator stays usable.
func (s *Simulator) Close() { s.Stop() }

func (s *Simulator) IsRunning() bool { return s.running.Load() }

func (s *Simulator) SetInterval(d time.Duration) {
	s.mu.Lock()
	s.settings.Interval = d
	s.mu.Unlock()
}

func (s *Simulator) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Interval
}

func (s *Simulator) SetMin(v float64) {
	s.mu.Lock()
	s.settings.Min = v
	s.mu.Unlock()
}

func (s *Simulator) SetMax(v float64) {
	s.mu.Lock()
	s.settings.Max = v
	s.mu.Unlock()
}

func (s *Simulator) SetStep(v float64) {
	s.mu.Lock()
	s.settings.Step = v
	s.mu.Unlock()
}

// Apply replaces all parameters at once. Ordering of Min and Max is not checked.
func (s *Simulator) Apply(cfg Settings) {
	s.mu.Lock()
	s.settings = cfg
	s.mu.Unlock()
}

func (s *Simulator) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *Simulator) Value() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *Simulator) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

func (s *Simulator) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Settings: s.settings,
		Value:    s.value,
		Running:  s.running.Load(),
		Ticks:    s.ticks,
	}
}

// RegisterCallback replaces the observer; nil clears it. Once it returns the
// previous observer will not be called again.
func (s *Simulator) RegisterCallback(o Observer) {
	s.mu.Lock()
	s.observer = o
	s.mu.Unlock()
}

// Step performs one tick: perturb, clamp, notify. The loop calls it on every
// iteration; callers may also drive ticks by hand while the loop is stopped.
func (s *Simulator) Step() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	delta := s.pert.Sample(s.rng) * s.settings.Step
	s.value = clamp(s.value+delta, s.settings.Min, s.settings.Max)
	s.ticks++

	if s.observer != nil {
		s.observer(s.value)
	}
	return s.value
}

func (s *Simulator) run(quit <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for s.running.Load() {
		start := time.Now()
		s.Step()
		interval := s.Interval()
		elapsed := time.Since(start)

		wait := interval - elapsed
		if wait <= 0 {
			if interval > 0 {
				s.log.WithField("elapsed", elapsed).Trace("tick overran interval")
			}
			select {
			case <-quit:
				return
			default:
			}
			continue
		}

		timer.Reset(wait)
		select {
		case <-quit:
			return
		case <-timer.C:
		}
	}
}
