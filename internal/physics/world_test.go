package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/physync/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame = 1.0 / 60

func newWorld(t *testing.T) *World {
	t.Helper()
	w, err := NewWorld(DefaultConfig())
	require.NoError(t, err)
	return w
}

func addBall(t *testing.T, w *World, at mgl64.Vec3, radius, restitution float64) *Body {
	t.Helper()
	b := w.CreateBody(Dynamic, at)
	require.NoError(t, w.AttachShape(b, ShapeDescriptor{
		Shape:       NewBall(radius),
		Mass:        1,
		Friction:    0.5,
		Restitution: restitution,
	}))
	return b
}

func stepN(w *World, n int) {
	for i := 0; i < n; i++ {
		w.Step(frame)
	}
}

func TestFreeFall(t *testing.T) {
	w := newWorld(t)
	b := addBall(t, w, mgl64.Vec3{0, 10, 0}, 0.5, 0)

	stepN(w, 60)

	assert.InDelta(t, 10-0.5*9.81, b.Translation().Y(), 0.1)
	assert.InDelta(t, -9.81, b.Linvel().Y(), 1e-9)
	assert.InDelta(t, 1.0, w.Elapsed(), 1e-9)
	assert.Equal(t, uint64(60), w.Steps())
}

func TestBodyWithoutColliderIsNotSimulated(t *testing.T) {
	w := newWorld(t)
	b := w.CreateBody(Dynamic, mgl64.Vec3{0, 3, 0})

	stepN(w, 10)

	assert.Equal(t, mgl64.Vec3{0, 3, 0}, b.Translation())
}

func TestBallRestsOnCuboidFloor(t *testing.T) {
	w := newWorld(t)
	floor := w.CreateBody(Fixed, mgl64.Vec3{0, -0.5, 0})
	require.NoError(t, w.AttachShape(floor, ShapeDescriptor{Shape: NewCuboid(10, 0.5, 10), Friction: 0.5, Restitution: 0.2}))
	b := addBall(t, w, mgl64.Vec3{0, 2, 0}, 0.5, 0.2)

	stepN(w, 600)

	assert.InDelta(t, 0.5, b.Translation().Y(), 0.02)
	assert.True(t, b.IsSleeping(), "ball should settle and sleep")
	assert.Equal(t, mgl64.Vec3{0, -0.5, 0}, floor.Translation())
}

func TestBallRestsOnTrimeshFloor(t *testing.T) {
	w := newWorld(t)
	verts := []mgl64.Vec3{{-5, 0, -5}, {5, 0, -5}, {5, 0, 5}, {-5, 0, 5}}
	floor := w.CreateBody(Fixed, mgl64.Vec3{})
	require.NoError(t, w.AttachShape(floor, ShapeDescriptor{
		Shape:    NewTrimesh(verts, []uint32{0, 2, 1, 0, 3, 2}),
		Friction: 0.5,
	}))
	b := addBall(t, w, mgl64.Vec3{1, 1.5, -1}, 0.5, 0)

	stepN(w, 600)

	assert.InDelta(t, 0.5, b.Translation().Y(), 0.02)
}

func TestBallRollsOffRotatedCuboid(t *testing.T) {
	w := newWorld(t)
	ramp := w.CreateBody(Fixed, mgl64.Vec3{})
	ramp.SetRotation(mgl64.QuatRotate(mgl64.DegToRad(30), mgl64.Vec3{0, 0, 1}), false)
	require.NoError(t, w.AttachShape(ramp, ShapeDescriptor{Shape: NewCuboid(5, 0.1, 5)}))
	b := addBall(t, w, mgl64.Vec3{0, 1, 0}, 0.5, 0)

	stepN(w, 60)

	assert.Less(t, b.Translation().X(), 0.0, "ball should slide down the slope")
}

func TestHeldBodyIsNotMovedOrWoken(t *testing.T) {
	w := newWorld(t)
	held := addBall(t, w, mgl64.Vec3{0, 0.5, 0}, 0.5, 0)
	held.Sleep()
	falling := addBall(t, w, mgl64.Vec3{0, 2.5, 0}, 0.5, 0)

	stepN(w, 120)

	assert.True(t, held.IsSleeping())
	assert.Equal(t, mgl64.Vec3{0, 0.5, 0}, held.Translation())
	assert.InDelta(t, 1.5, falling.Translation().Y(), 0.05)
}

func TestNaturalSleeperIsWokenByContact(t *testing.T) {
	w := newWorld(t)
	floor := w.CreateBody(Fixed, mgl64.Vec3{0, -0.5, 0})
	require.NoError(t, w.AttachShape(floor, ShapeDescriptor{Shape: NewCuboid(10, 0.5, 10)}))
	resting := addBall(t, w, mgl64.Vec3{0, 0.5, 0}, 0.5, 0)
	resting.sleeping = true
	addBall(t, w, mgl64.Vec3{0.3, 2.5, 0}, 0.5, 0)

	woken := false
	for i := 0; i < 120 && !woken; i++ {
		w.Step(frame)
		woken = !resting.IsSleeping()
	}
	assert.True(t, woken)
}

func TestSetterWakesHeldBody(t *testing.T) {
	w := newWorld(t)
	b := addBall(t, w, mgl64.Vec3{0, 5, 0}, 0.5, 0)
	b.Sleep()
	stepN(w, 10)
	assert.Equal(t, mgl64.Vec3{0, 5, 0}, b.Translation())

	b.SetLinvel(mgl64.Vec3{1, 0, 0}, true)
	assert.False(t, b.IsSleeping())
	stepN(w, 10)
	assert.Greater(t, b.Translation().X(), 0.0)
}

func TestFixedBodyIgnoresVelocity(t *testing.T) {
	w := newWorld(t)
	b := w.CreateBody(Fixed, mgl64.Vec3{})
	b.SetLinvel(mgl64.Vec3{1, 2, 3}, true)
	b.Sleep()

	assert.Equal(t, mgl64.Vec3{}, b.Linvel())
	assert.False(t, b.IsSleeping())
	assert.Zero(t, b.Mass())
}

func TestBallsExchangeMomentum(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gravity = mgl64.Vec3{}
	cfg.AngularDamping = 0
	w, err := NewWorld(cfg)
	require.NoError(t, err)

	a := addBall(t, w, mgl64.Vec3{-1, 0, 0}, 0.5, 1)
	b := addBall(t, w, mgl64.Vec3{1, 0, 0}, 0.5, 1)
	a.SetLinvel(mgl64.Vec3{1, 0, 0}, true)
	b.SetLinvel(mgl64.Vec3{-1, 0, 0}, true)

	stepN(w, 120)

	assert.Less(t, a.Linvel().X(), 0.0)
	assert.Greater(t, b.Linvel().X(), 0.0)
	assert.InDelta(t, 0, a.Linvel().X()+b.Linvel().X(), 1e-9)
}

func TestAttachShapeErrors(t *testing.T) {
	w := newWorld(t)
	b := addBall(t, w, mgl64.Vec3{}, 0.5, 0)

	err := w.AttachShape(b, ShapeDescriptor{Shape: NewBall(1), Mass: 1})
	assert.ErrorIs(t, err, dynamo.ErrShapeAttached)

	fresh := w.CreateBody(Dynamic, mgl64.Vec3{})
	err = w.AttachShape(fresh, ShapeDescriptor{Shape: NewBall(-1), Mass: 1})
	assert.ErrorIs(t, err, dynamo.ErrInvalidShape)

	err = w.AttachShape(fresh, ShapeDescriptor{Shape: NewBall(1)})
	assert.ErrorIs(t, err, dynamo.ErrInvalidShape)

	_, ok := fresh.Collider()
	assert.False(t, ok)
}

func TestTrimeshBuffersAreCopied(t *testing.T) {
	w := newWorld(t)
	verts := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}}
	idx := []uint32{0, 2, 1}
	b := w.CreateBody(Fixed, mgl64.Vec3{})
	require.NoError(t, w.AttachShape(b, ShapeDescriptor{Shape: Shape{Kind: Trimesh, Vertices: verts, Indices: idx}}))

	verts[1] = mgl64.Vec3{9, 9, 9}
	desc, ok := b.Collider()
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, desc.Shape.Vertices[1])
}

func TestStepAccounting(t *testing.T) {
	w := newWorld(t)
	w.Step(0.01)
	w.Step(0.02)
	w.Step(0)

	assert.InDelta(t, 0.03, w.Elapsed(), 1e-12)
	assert.Equal(t, uint64(3), w.Steps())
	assert.Zero(t, w.Timestep())
}

func TestRemoveBody(t *testing.T) {
	w := newWorld(t)
	a := addBall(t, w, mgl64.Vec3{}, 0.5, 0)
	b := addBall(t, w, mgl64.Vec3{3, 0, 0}, 0.5, 0)

	assert.True(t, w.RemoveBody(a))
	assert.False(t, w.RemoveBody(a))
	assert.Equal(t, 1, w.Len())

	_, ok := w.Body(a.Handle())
	assert.False(t, ok)
	got, ok := w.Body(b.Handle())
	assert.True(t, ok)
	assert.Same(t, b, got)

	c := w.CreateBody(Dynamic, mgl64.Vec3{})
	assert.NotEqual(t, a.Handle(), c.Handle())
}

func TestNewWorldRejectsUnknownIntegrator(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Integrator = "rk9"
	_, err := NewWorld(cfg)
	assert.Error(t, err)
}
