package metrics

import "sync"

// Collector feeds every sample to a set of metrics and keeps the most recent
// samples in a fixed-size window. Observe has the sim.Observer signature, so a
// Collector can be registered directly as a simulator callback.
type Collector struct {
	mu      sync.Mutex
	metrics []Metric
	window  []float64
	next    int
	full    bool
	count   int
}

func NewCollector(window int, ms ...Metric) *Collector {
	if window < 1 {
		window = 1
	}
	return &Collector{
		metrics: ms,
		window:  make([]float64, window),
	}
}

// Defaults returns the standard metric set for a signal bounded by [min, max].
func Defaults(min, max float64) []Metric {
	return []Metric{
		NewMean(),
		NewVolatility(),
		NewSaturation(min, max),
		NewSpan(),
	}
}

func (c *Collector) Observe(v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range c.metrics {
		m.Observe(v)
	}
	c.window[c.next] = v
	c.next = (c.next + 1) % len(c.window)
	if c.next == 0 {
		c.full = true
	}
	c.count++
}

func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Window returns the retained samples, oldest first.
func (c *Collector) Window() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.full {
		out := make([]float64, c.next)
		copy(out, c.window[:c.next])
		return out
	}
	out := make([]float64, 0, len(c.window))
	out = append(out, c.window[c.next:]...)
	return append(out, c.window[:c.next]...)
}

func (c *Collector) Values() map[string]float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]float64, len(c.metrics))
	for _, m := range c.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// SetBounds forwards new bounds to metrics that track them.
func (c *Collector) SetBounds(min, max float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range c.metrics {
		if b, ok := m.(interface{ SetBounds(min, max float64) }); ok {
			b.SetBounds(min, max)
		}
	}
}

func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range c.metrics {
		m.Reset()
	}
	c.next, c.full, c.count = 0, false, 0
}
