package sim

import (
	"fmt"

	"github.com/san-kum/physync/internal/binding"
	"github.com/san-kum/physync/internal/dynamo"
	"github.com/san-kum/physync/internal/physics"
)

// Stepper advances one scene by one frame. It is the only code that moves
// physics time forward and must be called from a single goroutine.
type Stepper struct {
	world     *physics.World
	table     *binding.Table
	input     InputPump
	susp      binding.Suspension
	cfg       Config
	frame     uint64
	stepping  bool
	metrics   []Metric
	observers []Observer
}

// NewStepper wires a stepper. input and susp may be nil.
func NewStepper(world *physics.World, table *binding.Table, input InputPump, susp binding.Suspension, cfg Config) *Stepper {
	if !(cfg.MaxDelta > 0) {
		cfg.MaxDelta = dynamo.MaxFrameDelta
	}
	return &Stepper{
		world: world,
		table: table,
		input: input,
		susp:  susp,
		cfg:   cfg,
	}
}

func (s *Stepper) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Stepper) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Stepper) World() *physics.World { return s.world }
func (s *Stepper) Table() *binding.Table { return s.table }
func (s *Stepper) Frame() uint64         { return s.frame }

// Step runs one frame: queued input is applied first so that drag-end writes
// land before the world moves, the delta is clamped to MaxDelta, the world
// is advanced once, nodes are synchronized from bodies, then metrics and
// observers see the frame.
func (s *Stepper) Step(delta float64) (FrameInfo, error) {
	if s.stepping {
		return FrameInfo{}, dynamo.ErrReentrantStep
	}
	s.stepping = true
	defer func() { s.stepping = false }()

	if s.input != nil {
		s.input.Flush()
	}

	dt := dynamo.ClampDelta(delta, s.cfg.MaxDelta)
	s.world.Step(dt)
	s.frame++

	stats := s.table.Sync(s.susp, s.cfg.FreezeUnrelated)
	info := FrameInfo{
		Frame:   s.frame,
		Delta:   delta,
		Applied: dt,
		Elapsed: s.world.Elapsed(),
		Synced:  stats.Synced,
		Skipped: stats.Skipped(),
	}

	if s.cfg.ValidateState {
		if err := s.validate(); err != nil {
			return info, &dynamo.FrameError{Frame: s.frame, Elapsed: info.Elapsed, Wrapped: err}
		}
	}

	for _, m := range s.metrics {
		m.Observe(info)
	}
	for _, o := range s.observers {
		o.OnFrame(info)
	}
	return info, nil
}

func (s *Stepper) validate() error {
	var err error
	s.world.ForEach(func(b *physics.Body) {
		if err != nil {
			return
		}
		if !dynamo.VecIsValid(b.Translation()) || !dynamo.QuatIsValid(b.Rotation()) {
			err = fmt.Errorf("body %d: %w", b.Handle(), dynamo.ErrInvalidState)
		}
	})
	return err
}
