package interact

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/physync/internal/binding"
	"github.com/san-kum/physync/internal/render"
)

var (
	ErrNotDraggable    = errors.New("interact: binding is not draggable")
	ErrSessionActive   = errors.New("interact: drag already in progress")
	ErrNoActiveSession = errors.New("interact: no drag in progress")
	ErrUnknownNode     = errors.New("interact: node is not bound")
)

type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Session is one active drag.
type Session struct {
	Binding binding.Handle
	Gesture Gesture
	State   State
	// DX and DY accumulate pointer motion since the last frame.
	DX, DY float64
	// Angle is the rotation applied so far by a RotateHandle drag.
	Angle    float64
	baseline float64
}

// Applied reports the outcome of one flushed event.
type Applied struct {
	Event   Event
	Binding binding.Handle
	Gesture Gesture
	Err     error
}

// Machine owns every drag session. It implements binding.Suspension.
type Machine struct {
	cfg      Config
	table    *binding.Table
	rng      *rand.Rand
	log      *slog.Logger
	sessions map[binding.Handle]*Session
	queue    []Event
	inbox    Inbox
	hooks    []func(Applied)
}

func New(table *binding.Table, cfg Config, rng *rand.Rand, log *slog.Logger) (*Machine, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("interact config: %w", err)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if log == nil {
		log = slog.Default()
	}
	cfg.Rotate.Axis = cfg.Rotate.Axis.Normalize()
	if cfg.Launch.PreRotation == (mgl64.Quat{}) {
		cfg.Launch.PreRotation = mgl64.QuatIdent()
	}
	return &Machine{
		cfg:      cfg,
		table:    table,
		rng:      rng,
		log:      log,
		sessions: make(map[binding.Handle]*Session),
	}, nil
}

// Inbox returns the inbox drained by Flush.
func (m *Machine) Inbox() *Inbox { return &m.inbox }

// OnApplied registers fn to be called for every event applied by Flush.
func (m *Machine) OnApplied(fn func(Applied)) { m.hooks = append(m.hooks, fn) }

// Push queues an event for the next Flush.
func (m *Machine) Push(ev Event) { m.queue = append(m.queue, ev) }

// Pending is the number of queued events, inbox included.
func (m *Machine) Pending() int { return len(m.queue) + m.inbox.Len() }

// Flush applies queued events in order, then starts a new frame. Errors are
// logged and the event dropped; they never stop the remaining events.
func (m *Machine) Flush() {
	m.queue = append(m.queue, m.inbox.Drain()...)
	queue := m.queue
	m.queue = nil
	for _, ev := range queue {
		a := m.apply(ev)
		if a.Err != nil {
			m.log.Warn("input dropped", "event", ev.Kind, "node", ev.Node, "err", a.Err)
		}
		for _, fn := range m.hooks {
			fn(a)
		}
	}
	m.Frame()
}

func (m *Machine) apply(ev Event) Applied {
	a := Applied{Event: ev}
	h, ok := m.table.ByNode(ev.Node)
	if !ok {
		a.Err = fmt.Errorf("node %d: %w", ev.Node, ErrUnknownNode)
		return a
	}
	a.Binding = h
	if s, ok := m.sessions[h]; ok {
		a.Gesture = s.Gesture
	}

	switch ev.Kind {
	case DragStart:
		var s *Session
		if s, a.Err = m.Begin(h, ev.Pointer); s != nil {
			a.Gesture = s.Gesture
		}
	case Drag:
		a.Err = m.Update(h, ev.Pointer)
	case DragEnd:
		a.Err = m.End(h, ev.Pointer)
	default:
		a.Err = fmt.Errorf("unknown event kind %v", ev.Kind)
	}
	return a
}

// Frame resets the per-frame pointer accumulators.
func (m *Machine) Frame() {
	for _, s := range m.sessions {
		s.DX, s.DY = 0, 0
	}
}

// GestureFor returns the gesture a role maps to.
func (m *Machine) GestureFor(r binding.Role) (Gesture, bool) {
	g, ok := m.cfg.Gestures[r]
	return g, ok
}

// Begin starts a drag on binding h and suspends it.
func (m *Machine) Begin(h binding.Handle, p Pointer) (*Session, error) {
	b, err := m.table.Get(h)
	if err != nil {
		return nil, err
	}
	g, ok := m.cfg.Gestures[b.Role]
	if !ok {
		return nil, fmt.Errorf("binding %d (%s): %w", h, b.Role, ErrNotDraggable)
	}
	if _, ok := m.sessions[h]; ok {
		return nil, fmt.Errorf("binding %d: %w", h, ErrSessionActive)
	}

	s := &Session{Binding: h, Gesture: g, State: Dragging}
	b.Body.Sleep()

	switch g {
	case RotateHandle:
		s.baseline = twist(b.Node.Orientation(), m.cfg.Rotate.Axis)
		m.rotate(b, s)
	case LaunchProjectile:
		b.Node.SetOrientation(b.Node.Orientation().Mul(m.cfg.Launch.PreRotation))
		b.Node.SetPosition(m.pin(b.Node.Position()))
	}
	m.sessions[h] = s
	m.log.Debug("drag started", "binding", h, "gesture", g)
	return s, nil
}

// Update feeds pointer motion into an active drag.
func (m *Machine) Update(h binding.Handle, p Pointer) error {
	s, ok := m.sessions[h]
	if !ok {
		return fmt.Errorf("binding %d: %w", h, ErrNoActiveSession)
	}
	b, err := m.table.Get(h)
	if err != nil {
		return err
	}
	s.DX += p.DX
	s.DY += p.DY

	switch s.Gesture {
	case RotateHandle:
		s.Angle += m.rotationDelta(p)
		m.rotate(b, s)
	case LaunchProjectile:
		pos := b.Node.Position()
		if p.Position != nil {
			pos = *p.Position
		} else {
			u, v := freeAxes(m.cfg.Launch.PinAxis)
			pos[u] += p.DX * m.cfg.Launch.DragScale
			pos[v] -= p.DY * m.cfg.Launch.DragScale
		}
		b.Node.SetPosition(m.pin(pos))
	}
	return nil
}

// End releases a drag and hands the body back to the world. Ending a binding
// with no active drag returns ErrNoActiveSession and changes nothing.
func (m *Machine) End(h binding.Handle, p Pointer) error {
	s, ok := m.sessions[h]
	if !ok {
		return fmt.Errorf("binding %d: %w", h, ErrNoActiveSession)
	}
	delete(m.sessions, h)
	b, err := m.table.Get(h)
	if err != nil {
		return err
	}

	switch s.Gesture {
	case RotateHandle:
		b.Body.SetTranslation(m.cfg.Rotate.RestPose, false)
		b.Body.SetRotation(b.Node.Orientation(), false)
	case LaunchProjectile:
		dx, dy := s.DX+p.DX, s.DY+p.DY
		lc := m.cfg.Launch
		b.Body.SetTranslation(b.Node.Position(), false)
		b.Body.SetLinvel(mgl64.Vec3{dx / lc.VelocityDivX, -dy / lc.VelocityDivY, 0}, false)
		b.Body.SetRotation(b.Node.Orientation(), false)
		b.Body.SetAngvel(mgl64.Vec3{m.spin(), m.spin(), m.spin()}, false)
	}
	b.Body.WakeUp()
	m.log.Debug("drag ended", "binding", h, "gesture", s.Gesture, "linvel", b.Body.Linvel())
	return nil
}

// IsSuspended reports whether binding h is being dragged.
func (m *Machine) IsSuspended(h binding.Handle) bool {
	s, ok := m.sessions[h]
	return ok && s.State == Dragging
}

func (m *Machine) AnySuspended() bool { return len(m.sessions) > 0 }

// Session returns a copy of the active session on h.
func (m *Machine) Session(h binding.Handle) (Session, bool) {
	s, ok := m.sessions[h]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Sessions returns copies of all active sessions ordered by binding handle.
func (m *Machine) Sessions() []Session {
	out := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Binding < out[j].Binding })
	return out
}

// rotate sets the node to the session's angle about the rotate axis and
// mirrors the orientation into the body. The body position is not touched.
func (m *Machine) rotate(b *binding.Binding, s *Session) {
	q := mgl64.QuatRotate(s.baseline+s.Angle, m.cfg.Rotate.Axis)
	b.Node.SetOrientation(q)
	b.Body.SetRotation(q, false)
}

func (m *Machine) rotationDelta(p Pointer) float64 {
	rc := m.cfg.Rotate
	if !rc.Signed {
		return rc.Gain * (math.Abs(p.DX) + math.Abs(p.DY))
	}
	r := mgl64.Vec2{p.X, p.Y}.Sub(rc.Pivot)
	rl := r.Len()
	if rl < 1e-9 {
		return 0
	}
	return rc.Gain * (r[0]*p.DY - r[1]*p.DX) / rl
}

func (m *Machine) pin(p mgl64.Vec3) mgl64.Vec3 {
	p[m.cfg.Launch.PinAxis] = m.cfg.Launch.PinOffset
	return p
}

func (m *Machine) spin() float64 {
	limit := m.cfg.Launch.SpinMax
	return -limit + 2*limit*m.rng.Float64()
}

// twist is the rotation angle of q about the unit axis.
func twist(q mgl64.Quat, axis mgl64.Vec3) float64 {
	return 2 * math.Atan2(q.V.Dot(axis), q.W)
}

func freeAxes(pinned int) (int, int) {
	switch pinned {
	case 0:
		return 1, 2
	case 1:
		return 0, 2
	}
	return 0, 1
}

// NodeHandle is a convenience for building events against a binding.
func (m *Machine) NodeHandle(h binding.Handle) (render.NodeHandle, error) {
	b, err := m.table.Get(h)
	if err != nil {
		return 0, err
	}
	return b.Node.Handle(), nil
}
