// Package trace records frames and interaction events as zstd-compressed
// JSON lines, and reads them back.
package trace

import (
	"time"

	"github.com/san-kum/physync/internal/binding"
	"github.com/san-kum/physync/internal/interact"
	"github.com/san-kum/physync/internal/sim"
)

const Version = 1

const (
	TypeMeta  = "meta"
	TypeFrame = "frame"
	TypeEvent = "event"
)

// Record is one line of a trace. Exactly one of the optional sections is set,
// matching Type.
type Record struct {
	Type  string       `json:"type"`
	Meta  *Meta        `json:"meta,omitempty"`
	Frame *FrameRecord `json:"frame,omitempty"`
	Event *EventRecord `json:"event,omitempty"`
}

type Meta struct {
	Version int       `json:"version"`
	ID      string    `json:"id"`
	Scene   string    `json:"scene"`
	Preset  string    `json:"preset,omitempty"`
	Seed    int64     `json:"seed"`
	Created time.Time `json:"created"`
}

type FrameRecord struct {
	Frame   uint64             `json:"frame"`
	Delta   float64            `json:"delta"`
	Applied float64            `json:"applied"`
	Elapsed float64            `json:"elapsed"`
	Synced  int                `json:"synced"`
	Skipped int                `json:"skipped"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Bodies  []BodyState        `json:"bodies,omitempty"`
}

type BodyState struct {
	Binding     binding.Handle `json:"binding"`
	Role        string         `json:"role"`
	Position    [3]float64     `json:"position"`
	Orientation [4]float64     `json:"orientation"` // w, x, y, z
	Asleep      bool           `json:"asleep,omitempty"`
}

type EventRecord struct {
	Frame   uint64         `json:"frame"`
	Kind    string         `json:"kind"`
	Node    uint32         `json:"node"`
	Binding binding.Handle `json:"binding,omitempty"`
	Gesture string         `json:"gesture,omitempty"`
	DX      float64        `json:"dx"`
	DY      float64        `json:"dy"`
	X       float64        `json:"x"`
	Y       float64        `json:"y"`
	Err     string         `json:"err,omitempty"`
}

func frameRecord(fi sim.FrameInfo) *FrameRecord {
	return &FrameRecord{
		Frame:   fi.Frame,
		Delta:   fi.Delta,
		Applied: fi.Applied,
		Elapsed: fi.Elapsed,
		Synced:  fi.Synced,
		Skipped: fi.Skipped,
	}
}

func eventRecord(frame uint64, a interact.Applied) *EventRecord {
	r := &EventRecord{
		Frame:   frame,
		Kind:    a.Event.Kind.String(),
		Node:    uint32(a.Event.Node),
		Binding: a.Binding,
		DX:      a.Event.DX,
		DY:      a.Event.DY,
		X:       a.Event.X,
		Y:       a.Event.Y,
	}
	if a.Gesture != 0 {
		r.Gesture = a.Gesture.String()
	}
	if a.Err != nil {
		r.Err = a.Err.Error()
	}
	return r
}
