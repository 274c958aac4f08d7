package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// BodyKind distinguishes immovable geometry from simulated bodies.
type BodyKind int

const (
	Fixed BodyKind = iota
	Dynamic
)

func (k BodyKind) String() string {
	if k == Fixed {
		return "fixed"
	}
	return "dynamic"
}

// BodyHandle identifies a body within its world. Handles are never reused.
type BodyHandle uint32

// Body is a rigid body owned by a World.
type Body struct {
	handle BodyHandle
	kind   BodyKind

	translation mgl64.Vec3
	rotation    mgl64.Quat
	linvel      mgl64.Vec3
	angvel      mgl64.Vec3

	sleeping bool
	// held marks a body put to sleep explicitly; contacts do not wake it.
	held     bool
	canSleep bool
	idleTime float64

	collider   *ShapeDescriptor
	invMass    float64
	invInertia float64
}

func (b *Body) Handle() BodyHandle      { return b.handle }
func (b *Body) Kind() BodyKind          { return b.kind }
func (b *Body) Translation() mgl64.Vec3 { return b.translation }
func (b *Body) Rotation() mgl64.Quat    { return b.rotation }
func (b *Body) Linvel() mgl64.Vec3      { return b.linvel }
func (b *Body) Angvel() mgl64.Vec3      { return b.angvel }
func (b *Body) IsSleeping() bool        { return b.sleeping }
func (b *Body) IsDynamic() bool         { return b.kind == Dynamic }
func (b *Body) CanSleep() bool          { return b.canSleep }

func (b *Body) SetCanSleep(canSleep bool) { b.canSleep = canSleep }

// Collider returns the attached shape descriptor.
func (b *Body) Collider() (ShapeDescriptor, bool) {
	if b.collider == nil {
		return ShapeDescriptor{}, false
	}
	return *b.collider, true
}

// Mass returns the body's mass, 0 for fixed bodies or bodies without a collider.
func (b *Body) Mass() float64 {
	if b.invMass == 0 {
		return 0
	}
	return 1 / b.invMass
}

// SetTranslation teleports the body. With wake set a sleeping body is woken.
func (b *Body) SetTranslation(v mgl64.Vec3, wake bool) {
	b.translation = v
	b.maybeWake(wake)
}

// SetRotation sets the orientation; q is normalized.
func (b *Body) SetRotation(q mgl64.Quat, wake bool) {
	b.rotation = q.Normalize()
	b.maybeWake(wake)
}

func (b *Body) SetLinvel(v mgl64.Vec3, wake bool) {
	if b.kind == Fixed {
		return
	}
	b.linvel = v
	b.maybeWake(wake)
}

func (b *Body) SetAngvel(v mgl64.Vec3, wake bool) {
	if b.kind == Fixed {
		return
	}
	b.angvel = v
	b.maybeWake(wake)
}

// Sleep puts the body to sleep and zeroes its velocities. The body is not
// advanced by the solver, and is not woken by contacts, until WakeUp or a
// setter called with wake=true.
func (b *Body) Sleep() {
	if b.kind == Fixed {
		return
	}
	b.sleeping = true
	b.held = true
	b.linvel = mgl64.Vec3{}
	b.angvel = mgl64.Vec3{}
}

// WakeUp returns the body to the solver.
func (b *Body) WakeUp() {
	if b.kind == Fixed {
		return
	}
	b.sleeping = false
	b.held = false
	b.idleTime = 0
}

func (b *Body) maybeWake(wake bool) {
	if wake {
		b.WakeUp()
	}
}

// simulated reports whether the solver integrates this body.
func (b *Body) simulated() bool {
	return b.kind == Dynamic && !b.sleeping && b.collider != nil
}

// immovable reports whether contacts treat the body as infinite mass.
func (b *Body) immovable() bool {
	return b.kind == Fixed || b.held || b.invMass == 0
}

func (b *Body) contactRadius() float64 {
	return b.collider.Shape.BoundingRadius()
}
