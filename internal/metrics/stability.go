package metrics

import (
	"github.com/san-kum/physync/internal/physics"
	"github.com/san-kum/physync/internal/sim"
)

// Stability is the fraction of frames in which every body stayed within
// threshold of the origin.
type Stability struct {
	name       string
	world      *physics.World
	threshold  float64
	violations int
	samples    int
}

func NewStability(w *physics.World, threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		world:     w,
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(sim.FrameInfo) {
	s.samples++
	escaped := false
	s.world.ForEach(func(b *physics.Body) {
		if !escaped && b.Translation().Len() > s.threshold {
			escaped = true
		}
	})
	if escaped {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
