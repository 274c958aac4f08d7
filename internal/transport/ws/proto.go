package ws

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/physync/internal/binding"
	"github.com/san-kum/physync/internal/interact"
	"github.com/san-kum/physync/internal/render"
	"github.com/san-kum/physync/internal/sim"
)

const ProtocolVersion = 1

const (
	TypeHello = "hello"
	TypeFrame = "frame"
	TypeError = "error"
)

// HelloMsg is the first message on every connection.
type HelloMsg struct {
	Type    string `json:"type"`
	Version int    `json:"version"`
	Scene   string `json:"scene"`
}

// FrameMsg carries the transforms of every binding after a frame.
type FrameMsg struct {
	Type      string      `json:"type"`
	Frame     uint64      `json:"frame"`
	Elapsed   float64     `json:"elapsed"`
	Applied   float64     `json:"applied"`
	Suspended []uint32    `json:"suspended,omitempty"`
	Bindings  []Transform `json:"bindings"`
}

type Transform struct {
	Binding     uint32     `json:"binding"`
	Node        uint32     `json:"node"`
	Role        string     `json:"role"`
	Position    [3]float64 `json:"position"`
	Orientation [4]float64 `json:"orientation"` // w, x, y, z
}

// InputMsg is a pointer event sent by a client. Type is dragstart, drag or
// dragend.
type InputMsg struct {
	Type     string      `json:"type"`
	Node     uint32      `json:"node"`
	DX       float64     `json:"dx"`
	DY       float64     `json:"dy"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Position *[3]float64 `json:"position,omitempty"`
}

type ErrorMsg struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// Event converts the message into an interaction event.
func (m InputMsg) Event() (interact.Event, error) {
	kind, err := interact.ParseEventKind(m.Type)
	if err != nil {
		return interact.Event{}, err
	}
	ev := interact.Event{
		Kind:    kind,
		Node:    render.NodeHandle(m.Node),
		Pointer: interact.Pointer{DX: m.DX, DY: m.DY, X: m.X, Y: m.Y},
	}
	if m.Position != nil {
		p := mgl64.Vec3(*m.Position)
		ev.Position = &p
	}
	return ev, nil
}

// NewFrameMsg reads the node transforms of every binding. The nodes are what
// a remote rasterizer draws, so suspended bindings report their dragged pose.
func NewFrameMsg(fi sim.FrameInfo, t *binding.Table, s binding.Suspension) FrameMsg {
	msg := FrameMsg{
		Type:     TypeFrame,
		Frame:    fi.Frame,
		Elapsed:  fi.Elapsed,
		Applied:  fi.Applied,
		Bindings: make([]Transform, 0, t.Len()),
	}
	t.ForEach(func(b *binding.Binding) {
		p := b.Node.Position()
		q := b.Node.Orientation()
		msg.Bindings = append(msg.Bindings, Transform{
			Binding:     uint32(b.Handle()),
			Node:        uint32(b.Node.Handle()),
			Role:        b.Role.String(),
			Position:    [3]float64{p.X(), p.Y(), p.Z()},
			Orientation: [4]float64{q.W, q.V.X(), q.V.Y(), q.V.Z()},
		})
		if s != nil && s.IsSuspended(b.Handle()) {
			msg.Suspended = append(msg.Suspended, uint32(b.Handle()))
		}
	})
	return msg
}
