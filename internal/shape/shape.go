// Package shape derives collision shapes from render meshes.
package shape

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/physync/internal/dynamo"
	"github.com/san-kum/physync/internal/physics"
	"github.com/san-kum/physync/internal/render"
)

// FromMesh builds a trimesh from the mesh's position and index buffers. The
// buffers are copied; later changes to the mesh do not reach the shape.
func FromMesh(m render.MeshData) (physics.Shape, error) {
	if len(m.Indices) == 0 {
		return physics.Shape{}, dynamo.ErrMissingIndexData
	}
	if len(m.Positions)%3 != 0 {
		return physics.Shape{}, fmt.Errorf("%w: %d position components", dynamo.ErrMalformedMesh, len(m.Positions))
	}
	if len(m.Indices)%3 != 0 {
		return physics.Shape{}, fmt.Errorf("%w: %d indices", dynamo.ErrMalformedMesh, len(m.Indices))
	}

	n := m.VertexCount()
	for _, idx := range m.Indices {
		if int(idx) >= n {
			return physics.Shape{}, fmt.Errorf("%w: index %d out of %d vertices", dynamo.ErrMalformedMesh, idx, n)
		}
	}

	verts := make([]mgl64.Vec3, n)
	for i := range verts {
		verts[i] = m.Vertex(i)
	}
	return physics.NewTrimesh(verts, m.Indices), nil
}

// Fit derives a primitive of the given kind from the mesh bounds. Ball uses
// the bounding sphere about the AABB centre, Cuboid the AABB half-extents and
// Cylinder the XZ radius with the Y half-height. Trimesh defers to FromMesh.
func Fit(kind physics.ShapeKind, m render.MeshData) (physics.Shape, error) {
	if kind == physics.Trimesh {
		return FromMesh(m)
	}
	if len(m.Positions) == 0 || len(m.Positions)%3 != 0 {
		return physics.Shape{}, fmt.Errorf("%w: %d position components", dynamo.ErrMalformedMesh, len(m.Positions))
	}

	lo, hi := Bounds(m)
	centre := lo.Add(hi).Mul(0.5)
	half := hi.Sub(lo).Mul(0.5)

	var s physics.Shape
	switch kind {
	case physics.Ball:
		r := 0.0
		for i := 0; i < m.VertexCount(); i++ {
			r = math.Max(r, m.Vertex(i).Sub(centre).Len())
		}
		s = physics.NewBall(r)
	case physics.Cuboid:
		s = physics.NewCuboid(half[0], half[1], half[2])
	case physics.Cylinder:
		r := 0.0
		for i := 0; i < m.VertexCount(); i++ {
			v := m.Vertex(i)
			r = math.Max(r, math.Hypot(v[0]-centre[0], v[2]-centre[2]))
		}
		s = physics.NewCylinder(r, half[1])
	default:
		return physics.Shape{}, fmt.Errorf("%w: %v", dynamo.ErrInvalidShape, kind)
	}
	if err := s.Validate(); err != nil {
		return physics.Shape{}, err
	}
	return s, nil
}

// Bounds returns the axis-aligned bounding box of the mesh positions.
func Bounds(m render.MeshData) (lo, hi mgl64.Vec3) {
	if m.VertexCount() == 0 {
		return
	}
	lo, hi = m.Vertex(0), m.Vertex(0)
	for i := 1; i < m.VertexCount(); i++ {
		v := m.Vertex(i)
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], v[k])
			hi[k] = math.Max(hi[k], v[k])
		}
	}
	return lo, hi
}
