package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/physync/internal/dynamo"
)

// ShapeKind enumerates the collider primitives the world understands.
type ShapeKind int

const (
	Ball ShapeKind = iota
	Cuboid
	Cylinder
	Trimesh
)

func (k ShapeKind) String() string {
	switch k {
	case Ball:
		return "ball"
	case Cuboid:
		return "cuboid"
	case Cylinder:
		return "cylinder"
	case Trimesh:
		return "trimesh"
	}
	return fmt.Sprintf("ShapeKind(%d)", int(k))
}

// ParseShapeKind is the inverse of ShapeKind.String.
func ParseShapeKind(s string) (ShapeKind, error) {
	for _, k := range []ShapeKind{Ball, Cuboid, Cylinder, Trimesh} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown shape kind: %s", s)
}

// Shape is an immutable collision shape in body-local coordinates.
// Cylinders are aligned with the local Y axis.
type Shape struct {
	Kind        ShapeKind
	Radius      float64
	HalfExtents mgl64.Vec3
	HalfHeight  float64
	Vertices    []mgl64.Vec3
	Indices     []uint32
}

func NewBall(radius float64) Shape {
	return Shape{Kind: Ball, Radius: radius}
}

func NewCuboid(hx, hy, hz float64) Shape {
	return Shape{Kind: Cuboid, HalfExtents: mgl64.Vec3{hx, hy, hz}}
}

func NewCylinder(radius, halfHeight float64) Shape {
	return Shape{Kind: Cylinder, Radius: radius, HalfHeight: halfHeight}
}

// NewTrimesh copies vertices and indices so later mutation of the caller's
// buffers cannot reach the world.
func NewTrimesh(vertices []mgl64.Vec3, indices []uint32) Shape {
	s := Shape{Kind: Trimesh}
	s.Vertices = append(make([]mgl64.Vec3, 0, len(vertices)), vertices...)
	s.Indices = append(make([]uint32, 0, len(indices)), indices...)
	return s
}

// Validate reports ErrInvalidShape for degenerate dimensions.
func (s Shape) Validate() error {
	positive := func(v float64) bool { return v > 0 && !math.IsInf(v, 0) }
	switch s.Kind {
	case Ball:
		if !positive(s.Radius) {
			return fmt.Errorf("%w: ball radius %v", dynamo.ErrInvalidShape, s.Radius)
		}
	case Cuboid:
		for i, h := range s.HalfExtents {
			if !positive(h) {
				return fmt.Errorf("%w: cuboid half-extent[%d] %v", dynamo.ErrInvalidShape, i, h)
			}
		}
	case Cylinder:
		if !positive(s.Radius) || !positive(s.HalfHeight) {
			return fmt.Errorf("%w: cylinder r=%v hh=%v", dynamo.ErrInvalidShape, s.Radius, s.HalfHeight)
		}
	case Trimesh:
		if len(s.Indices) == 0 || len(s.Indices)%3 != 0 {
			return fmt.Errorf("%w: trimesh with %d indices", dynamo.ErrInvalidShape, len(s.Indices))
		}
		for _, idx := range s.Indices {
			if int(idx) >= len(s.Vertices) {
				return fmt.Errorf("%w: trimesh index %d out of %d vertices", dynamo.ErrInvalidShape, idx, len(s.Vertices))
			}
		}
	default:
		return fmt.Errorf("%w: %v", dynamo.ErrInvalidShape, s.Kind)
	}
	return nil
}

// BoundingRadius is the radius of a sphere about the local origin that
// contains the shape.
func (s Shape) BoundingRadius() float64 {
	switch s.Kind {
	case Ball:
		return s.Radius
	case Cuboid:
		return s.HalfExtents.Len()
	case Cylinder:
		return math.Hypot(s.Radius, s.HalfHeight)
	case Trimesh:
		r := 0.0
		for _, v := range s.Vertices {
			r = math.Max(r, v.Len())
		}
		return r
	}
	return 0
}

// Triangles returns the triangle count of a trimesh, 0 otherwise.
func (s Shape) Triangles() int {
	if s.Kind != Trimesh {
		return 0
	}
	return len(s.Indices) / 3
}

// inertia returns a scalar moment of inertia for the shape. Off-diagonal
// terms are ignored.
func (s Shape) inertia(mass float64) float64 {
	switch s.Kind {
	case Ball:
		return 0.4 * mass * s.Radius * s.Radius
	case Cuboid:
		h := s.HalfExtents.Mul(2)
		return mass * (h.Dot(h)) / 18
	case Cylinder:
		return mass * (3*s.Radius*s.Radius + 4*s.HalfHeight*s.HalfHeight) / 12
	}
	r := s.BoundingRadius()
	return 0.4 * mass * r * r
}

// ShapeDescriptor is a shape together with its material profile.
type ShapeDescriptor struct {
	Shape       Shape
	Mass        float64
	Friction    float64
	Restitution float64
}
