package integrators

import "github.com/go-gl/mathgl/mgl64"

// Euler is the explicit Euler method: position uses the old velocity.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(k Kinematics, accel mgl64.Vec3, dt float64) Kinematics {
	return Kinematics{
		Position: k.Position.Add(k.Velocity.Mul(dt)),
		Velocity: k.Velocity.Add(accel.Mul(dt)),
	}
}

// SymplecticEuler updates velocity first and moves with the new velocity.
// This is what most game physics engines ship by default.
type SymplecticEuler struct{}

func NewSymplecticEuler() *SymplecticEuler {
	return &SymplecticEuler{}
}

func (s *SymplecticEuler) Name() string { return "symplectic" }

func (s *SymplecticEuler) Step(k Kinematics, accel mgl64.Vec3, dt float64) Kinematics {
	v := k.Velocity.Add(accel.Mul(dt))
	return Kinematics{
		Position: k.Position.Add(v.Mul(dt)),
		Velocity: v,
	}
}
