package metrics

import (
	"math"

	"github.com/san-kum/physync/internal/binding"
	"github.com/san-kum/physync/internal/physics"
	"github.com/san-kum/physync/internal/sim"
)

// Awake is the number of awake dynamic bodies after the latest frame.
type Awake struct {
	world *physics.World
	count int
}

func NewAwake(w *physics.World) *Awake { return &Awake{world: w} }

func (a *Awake) Name() string { return "awake" }

func (a *Awake) Observe(sim.FrameInfo) {
	a.count = 0
	a.world.ForEach(func(b *physics.Body) {
		if b.IsDynamic() && !b.IsSleeping() {
			a.count++
		}
	})
}

func (a *Awake) Value() float64 { return float64(a.count) }
func (a *Awake) Reset()         { a.count = 0 }

// SyncError is the largest distance seen between a node and its body, over
// bindings that are neither suspended nor frozen. It stays 0 while the table
// is doing its job.
type SyncError struct {
	table  *binding.Table
	susp   binding.Suspension
	freeze bool
	max    float64
}

func NewSyncError(t *binding.Table, s binding.Suspension, freezeUnrelated bool) *SyncError {
	return &SyncError{table: t, susp: s, freeze: freezeUnrelated}
}

func (e *SyncError) Name() string { return "sync_error" }

func (e *SyncError) Observe(sim.FrameInfo) {
	if e.susp != nil && e.freeze && e.susp.AnySuspended() {
		return
	}
	e.table.ForEach(func(b *binding.Binding) {
		if e.susp != nil && e.susp.IsSuspended(b.Handle()) {
			return
		}
		d := b.Node.Position().Sub(b.Body.Translation()).Len()
		e.max = math.Max(e.max, d)
	})
}

func (e *SyncError) Value() float64 { return e.max }
func (e *SyncError) Reset()         { e.max = 0 }

// Clamped is the fraction of frames whose requested delta exceeded the
// timestep limit.
type Clamped struct {
	clamped int
	frames  int
}

func (c *Clamped) Name() string { return "clamped" }

func (c *Clamped) Observe(fi sim.FrameInfo) {
	c.frames++
	if fi.Applied < fi.Delta {
		c.clamped++
	}
}

func (c *Clamped) Value() float64 {
	if c.frames == 0 {
		return 0
	}
	return float64(c.clamped) / float64(c.frames)
}

func (c *Clamped) Reset() { c.clamped, c.frames = 0, 0 }
