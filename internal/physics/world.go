package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/physync/internal/dynamo"
	"github.com/san-kum/physync/internal/integrators"
)

// angMotionMax limits the rotation taken in a single step.
const angMotionMax = math.Pi / 4

// Config holds world-wide solver settings.
type Config struct {
	Gravity        mgl64.Vec3
	Integrator     string
	LinearDamping  float64
	AngularDamping float64
	// SleepThreshold is the speed below which a body starts accumulating idle time.
	SleepThreshold float64
	// SleepTime is the idle time after which a body falls asleep.
	SleepTime float64
}

func DefaultConfig() Config {
	return Config{
		Gravity:        mgl64.Vec3{0, -9.81, 0},
		Integrator:     "symplectic",
		LinearDamping:  0.0,
		AngularDamping: 0.05,
		SleepThreshold: 0.05,
		SleepTime:      1.0,
	}
}

// World owns every body and advances them in fixed order.
type World struct {
	cfg     Config
	integ   integrators.Integrator
	bodies  []*Body
	next    BodyHandle
	elapsed float64
	dt      float64
	steps   uint64
}

func NewWorld(cfg Config) (*World, error) {
	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	if !dynamo.VecIsValid(cfg.Gravity) {
		return nil, fmt.Errorf("gravity must be finite, got %v", cfg.Gravity)
	}
	return &World{cfg: cfg, integ: integ, next: 1}, nil
}

func (w *World) Gravity() mgl64.Vec3 { return w.cfg.Gravity }

// Elapsed is the total simulated time the world has been advanced by.
func (w *World) Elapsed() float64 { return w.elapsed }

// Timestep is the dt of the most recent Step.
func (w *World) Timestep() float64 { return w.dt }

func (w *World) Steps() uint64 { return w.steps }

func (w *World) Len() int { return len(w.bodies) }

// CreateBody adds a body without a collider. It takes part in the simulation
// only once a shape is attached.
func (w *World) CreateBody(kind BodyKind, translation mgl64.Vec3) *Body {
	b := &Body{
		handle:      w.next,
		kind:        kind,
		translation: translation,
		rotation:    mgl64.QuatIdent(),
		canSleep:    true,
	}
	w.next++
	w.bodies = append(w.bodies, b)
	return b
}

// AttachShape attaches the collider and fixes the body's mass profile.
func (w *World) AttachShape(b *Body, desc ShapeDescriptor) error {
	if b == nil {
		return fmt.Errorf("attach shape: nil body")
	}
	if b.collider != nil {
		return fmt.Errorf("attach shape to body %d: %w", b.handle, dynamo.ErrShapeAttached)
	}
	if err := desc.Shape.Validate(); err != nil {
		return fmt.Errorf("attach shape to body %d: %w", b.handle, err)
	}
	if b.kind == Dynamic && !(desc.Mass > 0) {
		return fmt.Errorf("attach shape to body %d: %w: dynamic mass %v", b.handle, dynamo.ErrInvalidShape, desc.Mass)
	}

	d := desc
	if d.Shape.Kind == Trimesh {
		d.Shape = NewTrimesh(desc.Shape.Vertices, desc.Shape.Indices)
	}
	b.collider = &d
	if b.kind == Dynamic {
		b.invMass = 1 / d.Mass
		b.invInertia = 1 / d.Shape.inertia(d.Mass)
	}
	return nil
}

// Body looks up a body by handle.
func (w *World) Body(h BodyHandle) (*Body, bool) {
	for _, b := range w.bodies {
		if b.handle == h {
			return b, true
		}
	}
	return nil, false
}

// RemoveBody detaches b from the world. It reports whether b was present.
func (w *World) RemoveBody(b *Body) bool {
	for i, other := range w.bodies {
		if other == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			return true
		}
	}
	return false
}

// ForEach visits bodies in creation order.
func (w *World) ForEach(fn func(*Body)) {
	for _, b := range w.bodies {
		fn(b)
	}
}

// Step advances every awake dynamic body by dt seconds.
func (w *World) Step(dt float64) {
	w.steps++
	w.dt = dt
	if dt <= 0 {
		return
	}
	w.elapsed += dt

	for _, b := range w.bodies {
		if b.simulated() {
			w.integrate(b, dt)
		}
	}
	for i, b := range w.bodies {
		if b.simulated() {
			w.collide(i, b, dt)
		}
	}
	for _, b := range w.bodies {
		if b.simulated() {
			w.updateSleep(b, dt)
		}
	}
}

func (w *World) integrate(b *Body, dt float64) {
	k := w.integ.Step(integrators.Kinematics{Position: b.translation, Velocity: b.linvel}, w.cfg.Gravity, dt)
	b.translation = k.Position
	b.linvel = k.Velocity.Mul(1 / (1 + dt*w.cfg.LinearDamping))
	b.angvel = b.angvel.Mul(1 / (1 + dt*w.cfg.AngularDamping))

	ang := b.angvel.Len()
	if ang < epsilon {
		return
	}
	step := ang * dt
	if step > angMotionMax {
		step = angMotionMax
	}
	dq := mgl64.QuatRotate(step, b.angvel.Mul(1/ang))
	b.rotation = dq.Mul(b.rotation).Normalize()
}

// collide resolves contacts of body b against every other body. Pairs of
// simulated bodies are handled once, by the earlier body.
func (w *World) collide(i int, b *Body, dt float64) {
	radius := b.contactRadius()
	for j, other := range w.bodies {
		if j == i || other.collider == nil {
			continue
		}
		if other.simulated() && j < i {
			continue
		}
		c, ok := sphereVsBody(b.translation, radius, other)
		if !ok {
			continue
		}
		if other.sleeping && !other.held {
			other.WakeUp()
		}
		w.resolve(b, other, c, radius, dt)
	}
}

func (w *World) resolve(b, other *Body, c contact, radius, dt float64) {
	invA := b.invMass
	invB := 0.0
	if !other.immovable() {
		invB = other.invMass
	}
	total := invA + invB
	if total == 0 {
		return
	}

	correction := c.normal.Mul(c.depth / total)
	b.translation = b.translation.Add(correction.Mul(invA))
	other.translation = other.translation.Sub(correction.Mul(invB))

	rel := b.linvel.Sub(other.linvel)
	vn := rel.Dot(c.normal)
	if vn >= 0 {
		return
	}

	a, o := *b.collider, *other.collider
	restitution := 0.5 * (a.Restitution + o.Restitution)
	// resting contacts would otherwise bounce forever on gravity alone
	if -vn < 2*w.cfg.Gravity.Len()*dt {
		restitution = 0
	}
	jn := -(1 + restitution) * vn / total
	impulse := c.normal.Mul(jn)

	tangent := rel.Sub(c.normal.Mul(vn))
	if tl := tangent.Len(); tl > epsilon {
		tangent = tangent.Mul(1 / tl)
		friction := 0.5 * (a.Friction + o.Friction)
		jt := math.Min(tl/total, friction*jn)
		fImpulse := tangent.Mul(-jt)
		impulse = impulse.Add(fImpulse)

		arm := c.normal.Mul(-radius)
		b.angvel = b.angvel.Add(arm.Cross(fImpulse).Mul(b.invInertia))
	}

	b.linvel = b.linvel.Add(impulse.Mul(invA))
	if invB > 0 {
		other.linvel = other.linvel.Sub(impulse.Mul(invB))
	}
}

func (w *World) updateSleep(b *Body, dt float64) {
	if !b.canSleep {
		return
	}
	if b.linvel.Len() < w.cfg.SleepThreshold && b.angvel.Len() < w.cfg.SleepThreshold {
		b.idleTime += dt
		if b.idleTime >= w.cfg.SleepTime {
			b.sleeping = true
			b.linvel = mgl64.Vec3{}
			b.angvel = mgl64.Vec3{}
		}
		return
	}
	b.idleTime = 0
}
