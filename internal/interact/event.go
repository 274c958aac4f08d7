package interact

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/physync/internal/render"
)

type EventKind int

const (
	DragStart EventKind = iota
	Drag
	DragEnd
)

var eventNames = [...]string{"dragstart", "drag", "dragend"}

func (k EventKind) String() string {
	if int(k) < len(eventNames) && k >= 0 {
		return eventNames[k]
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

func ParseEventKind(s string) (EventKind, error) {
	for i, name := range eventNames {
		if name == s {
			return EventKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown event kind: %s", s)
}

// Pointer is the pointer state carried by an event. DX and DY are the
// screen-space motion since the previous event; X and Y the absolute
// position. Position, when set, is a world position proposed by the input
// source for the grabbed node.
type Pointer struct {
	DX, DY   float64
	X, Y     float64
	Position *mgl64.Vec3
}

// Event is one drag lifecycle event aimed at a scene node.
type Event struct {
	Kind EventKind
	Node render.NodeHandle
	Pointer
}

func (e Event) String() string {
	return fmt.Sprintf("%s node=%d d=(%g,%g)", e.Kind, e.Node, e.DX, e.DY)
}

// Inbox hands events from other goroutines to the frame loop.
type Inbox struct {
	mu     sync.Mutex
	events []Event
}

// Post appends an event. Safe for concurrent use.
func (in *Inbox) Post(ev Event) {
	in.mu.Lock()
	in.events = append(in.events, ev)
	in.mu.Unlock()
}

// Drain removes and returns every posted event in posting order.
func (in *Inbox) Drain() []Event {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := in.events
	in.events = nil
	return out
}

func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.events)
}
