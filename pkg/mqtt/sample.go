package mqtt

// Sample lets through one out of every rate readings.
type Sample struct {
	count int
	rate  int
}

func NewSample(rate int) *Sample {
	if rate < 1 {
		rate = 1
	}
	return &Sample{rate: rate}
}

func (s *Sample) Ready() bool {
	s.count++
	if s.count == s.rate {
		s.count = 0
		return true
	}
	return false
}
