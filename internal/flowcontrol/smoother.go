package flowcontrol

// Smoother is a moving average over a fixed-size circular window. Once full,
// each new sample evicts the oldest.
type Smoother struct {
	buf  []float64
	head int
	used int
}

func NewSmoother(size int) *Smoother {
	if size < 1 {
		size = 1
	}
	return &Smoother{buf: make([]float64, size)}
}

// Smooth adds v to the window and returns the mean of the window.
func (s *Smoother) Smooth(v float64) float64 {
	s.buf[(s.head+s.used)%len(s.buf)] = v
	if s.used == len(s.buf) {
		s.head = (s.head + 1) % len(s.buf)
	} else {
		s.used++
	}
	sum := 0.0
	for i := 0; i < s.used; i++ {
		sum += s.buf[(s.head+i)%len(s.buf)]
	}
	return sum / float64(s.used)
}

func (s *Smoother) Len() int { return s.used }

func (s *Smoother) Clear() {
	s.head, s.used = 0, 0
}

// Personal.AI order the ending
