package integrators

import "github.com/go-gl/mathgl/mgl64"

// Verlet is velocity Verlet. With a constant acceleration over the step it is
// exact for position and velocity.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Name() string { return "verlet" }

func (v *Verlet) Step(k Kinematics, accel mgl64.Vec3, dt float64) Kinematics {
	return Kinematics{
		Position: k.Position.Add(k.Velocity.Mul(dt)).Add(accel.Mul(0.5 * dt * dt)),
		Velocity: k.Velocity.Add(accel.Mul(dt)),
	}
}
