package scenes

import (
	"errors"
	"fmt"

	"github.com/san-kum/physync/internal/binding"
	"github.com/san-kum/physync/internal/physics"
	"github.com/san-kum/physync/internal/render"
	"github.com/san-kum/physync/internal/shape"
	"github.com/san-kum/physync/internal/spawn"
)

const (
	groundThickness = 0.1
	coinSegments    = 24
)

func (s *Scene) spawn(parts ...func() error) error {
	for _, part := range parts {
		if err := part(); err != nil {
			return err
		}
	}
	return nil
}

// ground is a fixed floor whose collider is extracted from its render mesh.
func (s *Scene) ground() error {
	g := s.Config.Ground
	spec := spawn.EntitySpec{
		Name:     "ground",
		Role:     binding.RoleStatic,
		Kind:     physics.Fixed,
		Material: render.NewMaterial("ground", "#5f5f87"),
		Collider: physics.ShapeDescriptor{Friction: g.Friction, Restitution: g.Restitution},
	}
	switch g.Shape {
	case "trimesh":
		spec.Position = vec([3]float64{0, g.Y, 0})
		spec.Mesh = render.Plane(g.Size, g.Size, g.Segments, g.Segments)
		spec.Extract = shape.FromMesh
	case "cuboid":
		spec.Position = vec([3]float64{0, g.Y - groundThickness/2, 0})
		spec.Mesh = render.Box(g.Size, groundThickness, g.Size)
		spec.Extract = fit(physics.Cuboid)
	default:
		return fmt.Errorf("unknown ground shape: %s", g.Shape)
	}
	spec.Material.Glyph = '·'

	h, err := spawn.Entity(s.Env(), spec)
	if err != nil {
		return err
	}
	s.Ground = h
	return nil
}

// lattice spawns the ball shell. Balls that fail are logged and skipped.
func (s *Scene) lattice() error {
	l := s.Config.Lattice
	opts := spawn.DefaultLatticeOptions()
	opts.Scale = l.Scale
	opts.PolarStep = l.PolarStep
	opts.AzimuthStep = l.AzimuthStep
	opts.ReusePolarStep = l.ReusePolarStep
	opts.BaseHeight = l.BaseHeight
	opts.BallRadius = l.BallRadius
	opts.Mass = l.Mass
	opts.Friction = l.Friction
	opts.Restitution = l.Restitution
	opts.Template.Color = "#ff5f87"
	opts.Template.Glyph = 'o'

	handles, err := spawn.Lattice(s.Env(), opts)
	s.Balls = handles
	if err != nil && len(handles) == 0 {
		return errors.Join(errors.New("no lattice ball could be spawned"), err)
	}
	return nil
}

func (s *Scene) lever() error {
	l := s.Config.Lever
	mat := render.NewMaterial("lever", "#ffaf00")
	mat.Glyph = '#'
	h, err := spawn.Entity(s.Env(), spawn.EntitySpec{
		Name:     "lever",
		Role:     binding.RoleLever,
		Kind:     physics.Dynamic,
		Position: vec(l.Position),
		Mesh:     render.Box(l.Size[0], l.Size[1], l.Size[2]),
		Material: mat,
		Collider: physics.ShapeDescriptor{Mass: l.Mass, Friction: 0.8},
		Extract:  fit(physics.Cuboid),
	})
	if err != nil {
		return err
	}
	s.Lever = h
	return nil
}

func (s *Scene) coin() error {
	c := s.Config.Coin
	mat := render.NewMaterial("coin", "#ffd700")
	mat.Glyph = '$'
	mat.Metalness = 1
	h, err := spawn.Entity(s.Env(), spawn.EntitySpec{
		Name:     "coin",
		Role:     binding.RoleCoin,
		Kind:     physics.Dynamic,
		Position: vec(c.Position),
		Mesh:     render.Cylinder(c.Radius, c.Thickness, coinSegments),
		Material: mat,
		Collider: physics.ShapeDescriptor{Mass: c.Mass, Friction: c.Friction, Restitution: c.Restitution},
		Extract:  fit(physics.Cylinder),
	})
	if err != nil {
		return err
	}
	s.Coin = h
	return nil
}

func fit(kind physics.ShapeKind) func(render.MeshData) (physics.Shape, error) {
	return func(m render.MeshData) (physics.Shape, error) {
		return shape.Fit(kind, m)
	}
}
