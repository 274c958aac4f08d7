// Package binding pairs scene nodes with physics bodies and keeps the nodes
// in step with the bodies once per frame.
package binding

import (
	"fmt"

	"github.com/san-kum/physync/internal/dynamo"
	"github.com/san-kum/physync/internal/physics"
	"github.com/san-kum/physync/internal/render"
)

// Handle identifies a binding. It is opaque and stable; it is not a position
// in any list.
type Handle uint32

// Role tags what a binding is for. Gesture dispatch keys off the role.
type Role int

const (
	RoleStatic Role = iota
	RoleBall
	RoleLever
	RoleCoin
)

var roleNames = map[Role]string{
	RoleStatic: "static",
	RoleBall:   "ball",
	RoleLever:  "lever",
	RoleCoin:   "coin",
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

func ParseRole(s string) (Role, error) {
	for r, name := range roleNames {
		if name == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role: %s", s)
}

// Binding is one node paired with one body. Neither half changes after
// creation.
type Binding struct {
	handle Handle
	Role   Role
	Node   *render.Node
	Body   *physics.Body
}

func (b *Binding) Handle() Handle { return b.handle }

// Suspension reports which bindings are currently driven by something other
// than the physics world.
type Suspension interface {
	IsSuspended(Handle) bool
	AnySuspended() bool
}

// SyncStats summarizes one Sync pass.
type SyncStats struct {
	Synced    int
	Suspended int
	Frozen    int
}

// Skipped is the number of bindings whose node was left untouched.
func (s SyncStats) Skipped() int { return s.Suspended + s.Frozen }

// Table is the authoritative set of bindings. It is not safe for concurrent
// use.
type Table struct {
	order  []*Binding
	byID   map[Handle]*Binding
	nodes  map[render.NodeHandle]Handle
	bodies map[*physics.Body]Handle
	next   Handle
}

func NewTable() *Table {
	return &Table{
		byID:   make(map[Handle]*Binding),
		nodes:  make(map[render.NodeHandle]Handle),
		bodies: make(map[*physics.Body]Handle),
		next:   1,
	}
}

// Create registers a new binding. A node or body may belong to at most one
// binding.
func (t *Table) Create(node *render.Node, body *physics.Body, role Role) (Handle, error) {
	if node == nil || body == nil {
		return 0, fmt.Errorf("create binding: nil node or body")
	}
	if h, ok := t.nodes[node.Handle()]; ok {
		return 0, fmt.Errorf("node %d bound by %d: %w", node.Handle(), h, dynamo.ErrAlreadyBound)
	}
	if h, ok := t.bodies[body]; ok {
		return 0, fmt.Errorf("body %d bound by %d: %w", body.Handle(), h, dynamo.ErrAlreadyBound)
	}

	b := &Binding{handle: t.next, Role: role, Node: node, Body: body}
	t.next++
	t.order = append(t.order, b)
	t.byID[b.handle] = b
	t.nodes[node.Handle()] = b.handle
	t.bodies[body] = b.handle
	return b.handle, nil
}

func (t *Table) Get(h Handle) (*Binding, error) {
	b, ok := t.byID[h]
	if !ok {
		return nil, fmt.Errorf("binding %d: %w", h, dynamo.ErrInvalidBindingHandle)
	}
	return b, nil
}

// MustGet is Get for handles the caller knows to be live. An unknown handle
// is a programming error and panics.
func (t *Table) MustGet(h Handle) *Binding {
	b, err := t.Get(h)
	if err != nil {
		panic(err)
	}
	return b
}

// ByNode finds the binding that owns a scene node.
func (t *Table) ByNode(n render.NodeHandle) (Handle, bool) {
	h, ok := t.nodes[n]
	return h, ok
}

// ByRole returns all bindings with the role, in creation order.
func (t *Table) ByRole(r Role) []Handle {
	var out []Handle
	for _, b := range t.order {
		if b.Role == r {
			out = append(out, b.handle)
		}
	}
	return out
}

// Remove forgets a binding. The node and body themselves are left to their
// owners.
func (t *Table) Remove(h Handle) error {
	b, ok := t.byID[h]
	if !ok {
		return fmt.Errorf("remove binding %d: %w", h, dynamo.ErrInvalidBindingHandle)
	}
	for i, o := range t.order {
		if o == b {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	delete(t.byID, h)
	delete(t.nodes, b.Node.Handle())
	delete(t.bodies, b.Body)
	return nil
}

func (t *Table) Len() int { return len(t.order) }

// ForEach visits bindings in creation order.
func (t *Table) ForEach(fn func(*Binding)) {
	for _, b := range t.order {
		fn(b)
	}
}

// Sync copies every body transform into its node. Suspended bindings are
// skipped. With freezeUnrelated set, every binding is skipped while any one
// is suspended. A nil Suspension suspends nothing.
func (t *Table) Sync(s Suspension, freezeUnrelated bool) SyncStats {
	var stats SyncStats
	frozen := freezeUnrelated && s != nil && s.AnySuspended()
	for _, b := range t.order {
		switch {
		case s != nil && s.IsSuspended(b.handle):
			stats.Suspended++
		case frozen:
			stats.Frozen++
		default:
			b.Node.SetPosition(b.Body.Translation())
			b.Node.SetOrientation(b.Body.Rotation())
			stats.Synced++
		}
	}
	return stats
}
