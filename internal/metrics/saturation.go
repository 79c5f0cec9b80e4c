package metrics

// Saturation is the fraction of samples pinned at either bound.
type Saturation struct {
	name     string
	min, max float64
	pinned   int
	samples  int
}

func NewSaturation(min, max float64) *Saturation {
	return &Saturation{
		name: "saturation",
		min:  min,
		max:  max,
	}
}

func (s *Saturation) Name() string {
	return s.name
}

// SetBounds changes the bounds counted as pinned from the next sample on.
func (s *Saturation) SetBounds(min, max float64) {
	s.min, s.max = min, max
}

func (s *Saturation) Observe(v float64) {
	s.samples++
	if v == s.min || v == s.max {
		s.pinned++
	}
}

func (s *Saturation) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.pinned) / float64(s.samples)
}

func (s *Saturation) Reset() {
	s.pinned = 0
	s.samples = 0
}
