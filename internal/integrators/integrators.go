package integrators

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Kinematics is the linear state of a single body.
type Kinematics struct {
	Position mgl64.Vec3
	Velocity mgl64.Vec3
}

// Integrator advances linear body state under a constant acceleration.
type Integrator interface {
	Name() string
	Step(k Kinematics, accel mgl64.Vec3, dt float64) Kinematics
}

var registry = map[string]func() Integrator{
	"euler":      func() Integrator { return NewEuler() },
	"symplectic": func() Integrator { return NewSymplecticEuler() },
	"verlet":     func() Integrator { return NewVerlet() },
}

// New returns the integrator registered under name.
func New(name string) (Integrator, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (available: %v)", name, Names())
	}
	return fn(), nil
}

// Names lists registered integrators in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
