// Package spawn creates paired scene nodes and physics bodies.
package spawn

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/physync/internal/binding"
	"github.com/san-kum/physync/internal/physics"
	"github.com/san-kum/physync/internal/render"
)

// Env is everything an entity is inserted into.
type Env struct {
	World *physics.World
	Scene *render.Scene
	Table *binding.Table
	Rand  *rand.Rand
	Log   *slog.Logger
}

func (e Env) logger() *slog.Logger {
	if e.Log == nil {
		return slog.Default()
	}
	return e.Log
}

func (e Env) rng() *rand.Rand {
	if e.Rand == nil {
		return rand.New(rand.NewSource(1))
	}
	return e.Rand
}

// EntitySpec describes one bound entity.
type EntitySpec struct {
	Name        string
	Role        binding.Role
	Kind        physics.BodyKind
	Position    mgl64.Vec3
	Orientation mgl64.Quat
	Mesh        *render.Mesh
	Material    *render.Material
	Collider    physics.ShapeDescriptor
	// Extract, when set, replaces Collider.Shape with a shape derived from Mesh.
	Extract func(render.MeshData) (physics.Shape, error)
	Asleep  bool
	NoSleep bool
}

// Entity creates the body, attaches its collider, adds the node and registers
// the binding. If any step fails the earlier ones are undone, so a failed
// entity leaves the world, scene and table exactly as they were.
func Entity(env Env, spec EntitySpec) (binding.Handle, error) {
	desc := spec.Collider
	if spec.Extract != nil {
		if spec.Mesh == nil {
			return 0, fmt.Errorf("spawn %q: extract without mesh", spec.Name)
		}
		s, err := spec.Extract(spec.Mesh.Data())
		if err != nil {
			return 0, fmt.Errorf("spawn %q: %w", spec.Name, err)
		}
		desc.Shape = s
	}

	body := env.World.CreateBody(spec.Kind, spec.Position)
	if spec.Orientation != (mgl64.Quat{}) {
		body.SetRotation(spec.Orientation, false)
	}
	body.SetCanSleep(!spec.NoSleep)
	if err := env.World.AttachShape(body, desc); err != nil {
		env.World.RemoveBody(body)
		return 0, fmt.Errorf("spawn %q: %w", spec.Name, err)
	}

	node := env.Scene.Add(spec.Mesh, spec.Material)
	node.Name = spec.Name
	node.SetPosition(body.Translation())
	node.SetOrientation(body.Rotation())

	h, err := env.Table.Create(node, body, spec.Role)
	if err != nil {
		env.Scene.Remove(node.Handle())
		env.World.RemoveBody(body)
		return 0, fmt.Errorf("spawn %q: %w", spec.Name, err)
	}

	if spec.Asleep {
		body.Sleep()
	}
	env.logger().Debug("entity spawned", "name", spec.Name, "binding", h, "role", spec.Role, "kind", spec.Kind)
	return h, nil
}
