package sim

import (
	"sort"
	"sync"
)

// Ensemble is a named set of independent simulators managed together.
type Ensemble struct {
	mu   sync.RWMutex
	sims map[string]*Simulator
}

func NewEnsemble() *Ensemble {
	return &Ensemble{sims: make(map[string]*Simulator)}
}

// Add registers s under its name, replacing (and stopping) any previous entry.
func (e *Ensemble) Add(s *Simulator) {
	e.mu.Lock()
	prev := e.sims[s.Name()]
	e.sims[s.Name()] = s
	e.mu.Unlock()

	if prev != nil && prev != s {
		prev.Close()
	}
}

func (e *Ensemble) Get(name string) (*Simulator, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sims[name]
	return s, ok
}

func (e *Ensemble) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.sims))
	for name := range e.sims {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Ensemble) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.sims)
}

func (e *Ensemble) StartAll() {
	for _, s := range e.members() {
		s.Start()
	}
}

// StopAll stops every member concurrently and waits for all loops to exit.
func (e *Ensemble) StopAll() {
	var wg sync.WaitGroup
	for _, s := range e.members() {
		wg.Add(1)
		go func(s *Simulator) {
			defer wg.Done()
			s.Stop()
		}(s)
	}
	wg.Wait()
}

// Values reads the current value of every member.
func (e *Ensemble) Values() map[string]float64 {
	members := e.members()
	values := make(map[string]float64, len(members))
	for _, s := range members {
		values[s.Name()] = s.Value()
	}
	return values
}

func (e *Ensemble) Close() { e.StopAll() }

func (e *Ensemble) members() []*Simulator {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Simulator, 0, len(e.sims))
	for _, s := range e.sims {
		out = append(out, s)
	}
	return out
}
