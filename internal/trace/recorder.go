package trace

import (
	"github.com/san-kum/physync/internal/binding"
	"github.com/san-kum/physync/internal/interact"
	"github.com/san-kum/physync/internal/sim"
)

// RecordWriter is satisfied by *Writer and *Run.
type RecordWriter interface {
	Write(Record) error
}

// Recorder turns frames and applied interaction events into records. Write
// errors are kept and reported by Err; the first one stops recording.
type Recorder struct {
	out     RecordWriter
	table   *binding.Table
	metrics []sim.Metric
	bodies  bool
	every   uint64
	frame   uint64
	err     error
}

type RecorderOption func(*Recorder)

// WithBodies includes per-binding transforms in frame records.
func WithBodies() RecorderOption {
	return func(r *Recorder) { r.bodies = true }
}

// WithMetrics samples the given metrics after every recorded frame.
func WithMetrics(ms ...sim.Metric) RecorderOption {
	return func(r *Recorder) { r.metrics = append(r.metrics, ms...) }
}

// Every records one frame in n. Events are always recorded.
func Every(n uint64) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.every = n
		}
	}
}

func NewRecorder(out RecordWriter, table *binding.Table, opts ...RecorderOption) *Recorder {
	r := &Recorder{out: out, table: table, every: 1}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Recorder) OnFrame(fi sim.FrameInfo) {
	r.frame = fi.Frame
	if r.err != nil || fi.Frame%r.every != 0 {
		return
	}
	rec := frameRecord(fi)
	if len(r.metrics) > 0 {
		rec.Metrics = make(map[string]float64, len(r.metrics))
		for _, m := range r.metrics {
			rec.Metrics[m.Name()] = m.Value()
		}
	}
	if r.bodies && r.table != nil {
		rec.Bodies = make([]BodyState, 0, r.table.Len())
		r.table.ForEach(func(b *binding.Binding) {
			rec.Bodies = append(rec.Bodies, bodyState(b))
		})
	}
	r.err = r.out.Write(Record{Type: TypeFrame, Frame: rec})
}

// OnApplied records an interaction event. Events applied during a frame's
// input flush carry the number of that frame.
func (r *Recorder) OnApplied(a interact.Applied) {
	if r.err != nil {
		return
	}
	r.err = r.out.Write(Record{Type: TypeEvent, Event: eventRecord(r.frame+1, a)})
}

func (r *Recorder) Err() error { return r.err }

func bodyState(b *binding.Binding) BodyState {
	p := b.Body.Translation()
	q := b.Body.Rotation()
	return BodyState{
		Binding:     b.Handle(),
		Role:        b.Role.String(),
		Position:    [3]float64{p.X(), p.Y(), p.Z()},
		Orientation: [4]float64{q.W, q.V.X(), q.V.Y(), q.V.Z()},
		Asleep:      b.Body.IsSleeping(),
	}
}
