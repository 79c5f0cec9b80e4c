package metrics

// Span is the distance between the lowest and highest sample seen.
type Span struct {
	name     string
	lo, hi   float64
	observed bool
}

func NewSpan() *Span { return &Span{name: "span"} }

func (s *Span) Name() string { return s.name }

func (s *Span) Observe(v float64) {
	if !s.observed {
		s.lo, s.hi, s.observed = v, v, true
		return
	}
	s.lo = min(s.lo, v)
	s.hi = max(s.hi, v)
}

func (s *Span) Value() float64 { return s.hi - s.lo }

func (s *Span) Reset() {
	s.lo, s.hi, s.observed = 0, 0, false
}
