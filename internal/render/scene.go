package render

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/physync/internal/dynamo"
)

// NodeHandle identifies a node within its scene. Handles are never reused.
type NodeHandle uint32

// Node is a drawable instance of a mesh.
type Node struct {
	handle      NodeHandle
	Name        string
	Mesh        *Mesh
	Material    *Material
	Visible     bool
	position    mgl64.Vec3
	orientation mgl64.Quat
}

func (n *Node) Handle() NodeHandle       { return n.handle }
func (n *Node) Position() mgl64.Vec3     { return n.position }
func (n *Node) Orientation() mgl64.Quat  { return n.orientation }
func (n *Node) SetPosition(p mgl64.Vec3) { n.position = p }

// SetOrientation stores q normalized.
func (n *Node) SetOrientation(q mgl64.Quat) { n.orientation = q.Normalize() }

func (n *Node) Transform() dynamo.Transform {
	return dynamo.Transform{Position: n.position, Orientation: n.orientation}
}

// Local converts a point from node space to world space.
func (n *Node) Local(p mgl64.Vec3) mgl64.Vec3 {
	return n.orientation.Rotate(p).Add(n.position)
}

// Scene is an ordered collection of nodes.
type Scene struct {
	nodes []*Node
	index map[NodeHandle]int
	next  NodeHandle
}

func NewScene() *Scene {
	return &Scene{index: make(map[NodeHandle]int), next: 1}
}

// Add creates a visible node at the origin.
func (s *Scene) Add(mesh *Mesh, material *Material) *Node {
	n := &Node{
		handle:      s.next,
		Mesh:        mesh,
		Material:    material,
		Visible:     true,
		orientation: mgl64.QuatIdent(),
	}
	s.next++
	s.index[n.handle] = len(s.nodes)
	s.nodes = append(s.nodes, n)
	return n
}

func (s *Scene) Node(h NodeHandle) (*Node, bool) {
	i, ok := s.index[h]
	if !ok {
		return nil, false
	}
	return s.nodes[i], true
}

// Remove deletes the node and reports whether it existed.
func (s *Scene) Remove(h NodeHandle) bool {
	i, ok := s.index[h]
	if !ok {
		return false
	}
	s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
	delete(s.index, h)
	for j := i; j < len(s.nodes); j++ {
		s.index[s.nodes[j].handle] = j
	}
	return true
}

func (s *Scene) Len() int { return len(s.nodes) }

// ForEach visits nodes in insertion order.
func (s *Scene) ForEach(fn func(*Node)) {
	for _, n := range s.nodes {
		fn(n)
	}
}
