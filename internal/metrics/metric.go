package metrics

// Metric accumulates a statistic over the samples a signal emits.
type Metric interface {
	Name() string
	Observe(v float64)
	Value() float64
	Reset()
}
