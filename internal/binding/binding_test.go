package binding

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/physync/internal/dynamo"
	"github.com/san-kum/physync/internal/physics"
	"github.com/san-kum/physync/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	world *physics.World
	scene *render.Scene
	table *Table
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	w, err := physics.NewWorld(physics.DefaultConfig())
	require.NoError(t, err)
	return &fixture{world: w, scene: render.NewScene(), table: NewTable()}
}

func (f *fixture) ball(t *testing.T, at mgl64.Vec3, role Role) Handle {
	t.Helper()
	body := f.world.CreateBody(physics.Dynamic, at)
	require.NoError(t, f.world.AttachShape(body, physics.ShapeDescriptor{Shape: physics.NewBall(0.1), Mass: 1}))
	node := f.scene.Add(render.Sphere(0.1, 6, 4), nil)
	h, err := f.table.Create(node, body, role)
	require.NoError(t, err)
	return h
}

type suspended map[Handle]bool

func (s suspended) IsSuspended(h Handle) bool { return s[h] }
func (s suspended) AnySuspended() bool        { return len(s) > 0 }

func TestCreateAndGet(t *testing.T) {
	f := newFixture(t)
	a := f.ball(t, mgl64.Vec3{0, 1, 0}, RoleBall)
	b := f.ball(t, mgl64.Vec3{0, 2, 0}, RoleCoin)

	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, f.table.Len())

	got, err := f.table.Get(b)
	require.NoError(t, err)
	assert.Equal(t, RoleCoin, got.Role)
	assert.Equal(t, b, got.Handle())

	h, ok := f.table.ByNode(got.Node.Handle())
	assert.True(t, ok)
	assert.Equal(t, b, h)
	assert.Equal(t, []Handle{b}, f.table.ByRole(RoleCoin))
	assert.Empty(t, f.table.ByRole(RoleLever))
}

func TestCreateRejectsRebinding(t *testing.T) {
	f := newFixture(t)
	h := f.ball(t, mgl64.Vec3{}, RoleBall)
	b := f.table.MustGet(h)

	_, err := f.table.Create(b.Node, f.world.CreateBody(physics.Dynamic, mgl64.Vec3{}), RoleBall)
	assert.ErrorIs(t, err, dynamo.ErrAlreadyBound)

	_, err = f.table.Create(f.scene.Add(nil, nil), b.Body, RoleBall)
	assert.ErrorIs(t, err, dynamo.ErrAlreadyBound)
	assert.Equal(t, 1, f.table.Len())
}

func TestInvalidHandle(t *testing.T) {
	f := newFixture(t)
	_, err := f.table.Get(42)
	assert.ErrorIs(t, err, dynamo.ErrInvalidBindingHandle)
	assert.ErrorIs(t, f.table.Remove(42), dynamo.ErrInvalidBindingHandle)
	assert.Panics(t, func() { f.table.MustGet(42) })
}

func TestRemoveKeepsOrder(t *testing.T) {
	f := newFixture(t)
	a := f.ball(t, mgl64.Vec3{}, RoleBall)
	b := f.ball(t, mgl64.Vec3{}, RoleBall)
	c := f.ball(t, mgl64.Vec3{}, RoleBall)
	node := f.table.MustGet(b).Node

	require.NoError(t, f.table.Remove(b))

	var order []Handle
	f.table.ForEach(func(b *Binding) { order = append(order, b.Handle()) })
	assert.Equal(t, []Handle{a, c}, order)
	_, ok := f.table.ByNode(node.Handle())
	assert.False(t, ok)
}

func TestSyncCopiesTransforms(t *testing.T) {
	f := newFixture(t)
	a := f.ball(t, mgl64.Vec3{0, 5, 0}, RoleBall)
	b := f.ball(t, mgl64.Vec3{3, 5, 0}, RoleBall)
	f.table.MustGet(b).Body.SetAngvel(mgl64.Vec3{0, 2, 0}, true)

	for i := 0; i < 10; i++ {
		f.world.Step(1.0 / 60)
		stats := f.table.Sync(nil, false)
		assert.Equal(t, 2, stats.Synced)
	}

	for _, h := range []Handle{a, b} {
		bd := f.table.MustGet(h)
		assert.Equal(t, bd.Body.Translation(), bd.Node.Position())
		assert.Equal(t, bd.Body.Rotation(), bd.Node.Orientation())
	}
}

func TestSyncHonoursSuspension(t *testing.T) {
	f := newFixture(t)
	a := f.ball(t, mgl64.Vec3{0, 5, 0}, RoleBall)
	b := f.ball(t, mgl64.Vec3{3, 5, 0}, RoleCoin)
	coin := f.table.MustGet(b)
	coin.Node.SetPosition(mgl64.Vec3{9, 9, 9})

	f.world.Step(0.1)
	stats := f.table.Sync(suspended{b: true}, false)

	assert.Equal(t, SyncStats{Synced: 1, Suspended: 1}, stats)
	assert.Equal(t, mgl64.Vec3{9, 9, 9}, coin.Node.Position())
	ball := f.table.MustGet(a)
	assert.Equal(t, ball.Body.Translation(), ball.Node.Position())
}

func TestSyncFreezeUnrelated(t *testing.T) {
	f := newFixture(t)
	a := f.ball(t, mgl64.Vec3{0, 5, 0}, RoleBall)
	b := f.ball(t, mgl64.Vec3{3, 5, 0}, RoleCoin)

	f.world.Step(0.1)
	stats := f.table.Sync(suspended{b: true}, true)

	assert.Equal(t, SyncStats{Suspended: 1, Frozen: 1}, stats)
	assert.Equal(t, 2, stats.Skipped())
	assert.Equal(t, mgl64.Vec3{}, f.table.MustGet(a).Node.Position())

	stats = f.table.Sync(suspended{}, true)
	assert.Equal(t, 2, stats.Synced)
}

func TestRoleNames(t *testing.T) {
	for _, r := range []Role{RoleStatic, RoleBall, RoleLever, RoleCoin} {
		got, err := ParseRole(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
	_, err := ParseRole("handle")
	assert.Error(t, err)
}
