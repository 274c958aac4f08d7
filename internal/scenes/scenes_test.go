package scenes

import (
	"context"
	"testing"

	"github.com/san-kum/physync/internal/binding"
	"github.com/san-kum/physync/internal/config"
	"github.com/san-kum/physync/internal/interact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, scene, preset string) *Scene {
	t.Helper()
	cfg := config.GetPreset(scene, preset)
	require.NotNil(t, cfg)
	s, err := NewRegistry().Build(cfg, nil)
	require.NoError(t, err)
	return s
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"balls", "coin", "lever", "playground"}, r.List())
	for _, name := range r.List() {
		assert.NotEmpty(t, r.Describe(name), name)
	}
}

func TestBuildUnknownScene(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scene = "nowhere"
	_, err := NewRegistry().Build(cfg, nil)
	assert.ErrorContains(t, err, "unknown scene")
}

func TestEveryPresetBuilds(t *testing.T) {
	for scene, presets := range config.Presets {
		for preset := range presets {
			t.Run(scene+"/"+preset, func(t *testing.T) {
				s := build(t, scene, preset)
				assert.NotZero(t, s.Ground)
				assert.Len(t, s.Metrics, 6)
				_, err := s.Runner.Run(context.Background(), 3, 1.0/60)
				require.NoError(t, err)
			})
		}
	}
}

func TestPlaygroundContents(t *testing.T) {
	s := build(t, "playground", "default")

	assert.Len(t, s.Balls, 30)
	assert.NotZero(t, s.Lever)
	assert.NotZero(t, s.Coin)
	assert.Equal(t, 33, s.Table.Len())
	assert.Equal(t, 33, s.World.Len())
	assert.Equal(t, 33, s.Render.Len())
	assert.Len(t, s.Table.ByRole(binding.RoleStatic), 1)

	for _, h := range s.Balls {
		assert.True(t, s.Table.MustGet(h).Body.IsSleeping())
	}

	ground := s.Table.MustGet(s.Ground)
	desc, ok := ground.Body.Collider()
	require.True(t, ok)
	assert.Equal(t, "trimesh", desc.Shape.Kind.String())
	assert.Equal(t, 2*8*8, desc.Shape.Triangles())
}

func TestSingleRoleScenes(t *testing.T) {
	balls := build(t, "balls", "shell")
	assert.Len(t, balls.Balls, 30)
	assert.Zero(t, balls.Lever)
	assert.Zero(t, balls.Coin)

	lever := build(t, "lever", "unsigned")
	assert.Empty(t, lever.Balls)
	assert.NotZero(t, lever.Lever)
	assert.Equal(t, 2, lever.Table.Len())

	coin := build(t, "coin", "toss")
	assert.NotZero(t, coin.Coin)
	assert.Equal(t, 2, coin.Table.Len())
}

func TestBoxFloorPreset(t *testing.T) {
	s := build(t, "playground", "box-floor")
	desc, ok := s.Table.MustGet(s.Ground).Body.Collider()
	require.True(t, ok)
	assert.Equal(t, "cuboid", desc.Shape.Kind.String())
	assert.InDelta(t, 2.0, desc.Shape.HalfExtents.X(), 1e-9)
}

func TestBallsWakeAtConfiguredTime(t *testing.T) {
	s := build(t, "balls", "shell")
	require.Equal(t, 0.5, s.Config.Lattice.WakeAt)

	_, err := s.Runner.Run(context.Background(), 4, 0.1)
	require.NoError(t, err)
	for _, h := range s.Balls {
		assert.True(t, s.Table.MustGet(h).Body.IsSleeping())
	}

	_, err = s.Runner.Run(context.Background(), 1, 0.1)
	require.NoError(t, err)
	for _, h := range s.Balls {
		assert.False(t, s.Table.MustGet(h).Body.IsSleeping())
	}
}

func TestAsleepPresetNeverWakes(t *testing.T) {
	s := build(t, "balls", "asleep")
	_, err := s.Runner.Run(context.Background(), 20, 0.1)
	require.NoError(t, err)
	for _, h := range s.Balls {
		assert.True(t, s.Table.MustGet(h).Body.IsSleeping())
	}
	assert.Zero(t, s.Metric("awake").Value())
}

func TestCoinFlick(t *testing.T) {
	s := build(t, "coin", "toss")
	node, err := s.NodeOf(s.Coin)
	require.NoError(t, err)

	s.Push(interact.Event{Kind: interact.DragStart, Node: node})
	s.Push(interact.Event{Kind: interact.Drag, Node: node, Pointer: interact.Pointer{DX: 20, DY: -16}})
	s.Push(interact.Event{Kind: interact.DragEnd, Node: node})

	dt := 1.0 / 60
	_, err = s.Stepper.Step(dt)
	require.NoError(t, err)

	coin := s.Table.MustGet(s.Coin).Body
	v := coin.Linvel()
	assert.InDelta(t, 2.0, v.X(), 1e-9)
	assert.InDelta(t, 2.0-9.81*dt, v.Y(), 1e-6)
	assert.Zero(t, v.Z())
	assert.False(t, coin.IsSleeping())
	assert.False(t, s.Machine.AnySuspended())
}

func TestLeverDragSuspendsAndRestores(t *testing.T) {
	s := build(t, "lever", "unsigned")
	node, err := s.NodeOf(s.Lever)
	require.NoError(t, err)

	s.Push(interact.Event{Kind: interact.DragStart, Node: node})
	s.Push(interact.Event{Kind: interact.Drag, Node: node, Pointer: interact.Pointer{DX: 30, DY: 40}})
	_, err = s.Stepper.Step(1.0 / 60)
	require.NoError(t, err)
	assert.True(t, s.Machine.IsSuspended(s.Lever))

	s.Push(interact.Event{Kind: interact.DragEnd, Node: node})
	_, err = s.Stepper.Step(1.0 / 60)
	require.NoError(t, err)
	assert.False(t, s.Machine.IsSuspended(s.Lever))

	lever := s.Table.MustGet(s.Lever)
	assert.NotEqual(t, 0.0, lever.Body.Rotation().V.Z())
}
