package metrics

import "math"

// Volatility is the mean absolute change between consecutive samples.
type Volatility struct {
	name    string
	last    float64
	primed  bool
	sum     float64
	samples int
}

func NewVolatility() *Volatility {
	return &Volatility{
		name: "volatility",
	}
}

func (c *Volatility) Name() string {
	return c.name
}

func (c *Volatility) Observe(v float64) {
	if c.primed {
		c.sum += math.Abs(v - c.last)
		c.samples++
	}
	c.last = v
	c.primed = true
}

func (c *Volatility) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *Volatility) Reset() {
	c.sum = 0
	c.samples = 0
	c.primed = false
}
