package scenes

import (
	"log/slog"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/physync/internal/binding"
	"github.com/san-kum/physync/internal/config"
	"github.com/san-kum/physync/internal/interact"
	"github.com/san-kum/physync/internal/metrics"
	"github.com/san-kum/physync/internal/physics"
	"github.com/san-kum/physync/internal/render"
	"github.com/san-kum/physync/internal/sim"
	"github.com/san-kum/physync/internal/spawn"
)

// Scene is a fully wired world: bodies, nodes, bindings, the interaction
// machine and the stepper that drives them.
type Scene struct {
	Config  *config.Config
	World   *physics.World
	Render  *render.Scene
	Table   *binding.Table
	Machine *interact.Machine
	Stepper *sim.Stepper
	Runner  *sim.Runner
	Metrics []sim.Metric

	Balls  []binding.Handle
	Ground binding.Handle
	Lever  binding.Handle
	Coin   binding.Handle

	rng *rand.Rand
	log *slog.Logger
}

func assemble(cfg *config.Config, log *slog.Logger) (*Scene, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("scene", cfg.Scene)

	world, err := physics.NewWorld(physics.Config{
		Gravity:        vec(cfg.World.Gravity),
		Integrator:     cfg.World.Integrator,
		LinearDamping:  cfg.World.LinearDamping,
		AngularDamping: cfg.World.AngularDamping,
		SleepThreshold: cfg.World.SleepThreshold,
		SleepTime:      cfg.World.SleepTime,
	})
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	table := binding.NewTable()
	machine, err := interact.New(table, interactConfig(cfg), rng, log)
	if err != nil {
		return nil, err
	}

	stepper := sim.NewStepper(world, table, machine, machine, sim.Config{
		MaxDelta:        cfg.World.MaxFrameDelta,
		FreezeUnrelated: cfg.Interaction.FreezeUnrelatedOnDrag,
		ValidateState:   true,
	})

	return &Scene{
		Config:  cfg,
		World:   world,
		Render:  render.NewScene(),
		Table:   table,
		Machine: machine,
		Stepper: stepper,
		Runner:  sim.NewRunner(stepper, log),
		rng:     rng,
		log:     log,
	}, nil
}

func (s *Scene) finish() {
	s.Metrics = metrics.Standard(s.World, s.Table, s.Machine, s.Config.Interaction.FreezeUnrelatedOnDrag)
	for _, m := range s.Metrics {
		s.Stepper.AddMetric(m)
	}
	if len(s.Balls) > 0 && s.Config.Lattice.WakeAt >= 0 {
		s.Stepper.AddObserver(&waker{scene: s, at: s.Config.Lattice.WakeAt})
	}
}

// Env is the spawn environment of the scene.
func (s *Scene) Env() spawn.Env {
	return spawn.Env{World: s.World, Scene: s.Render, Table: s.Table, Rand: s.rng, Log: s.log}
}

func (s *Scene) Log() *slog.Logger { return s.log }

// Metric returns the named metric, or nil.
func (s *Scene) Metric(name string) sim.Metric {
	for _, m := range s.Metrics {
		if m.Name() == name {
			return m
		}
	}
	return nil
}

// Push hands a pointer event to the interaction machine for the next frame.
func (s *Scene) Push(ev interact.Event) { s.Machine.Push(ev) }

// NodeOf returns the node handle of a binding, for addressing input events.
func (s *Scene) NodeOf(h binding.Handle) (render.NodeHandle, error) {
	return s.Machine.NodeHandle(h)
}

// WakeBalls wakes every lattice ball that is still asleep.
func (s *Scene) WakeBalls() int {
	n := 0
	for _, h := range s.Balls {
		b, err := s.Table.Get(h)
		if err != nil || !b.Body.IsSleeping() {
			continue
		}
		b.Body.WakeUp()
		n++
	}
	return n
}

// waker releases the ball shell once simulated time reaches at.
type waker struct {
	scene *Scene
	at    float64
	done  bool
}

func (w *waker) OnFrame(fi sim.FrameInfo) {
	if w.done || fi.Elapsed < w.at {
		return
	}
	w.done = true
	n := w.scene.WakeBalls()
	w.scene.log.Debug("lattice released", "frame", fi.Frame, "elapsed", fi.Elapsed, "woken", n)
}

func interactConfig(cfg *config.Config) interact.Config {
	ic := interact.DefaultConfig()
	ic.Rotate.Axis = vec(cfg.Lever.Axis)
	ic.Rotate.Gain = cfg.Lever.Gain
	ic.Rotate.RestPose = vec(cfg.Lever.Position)
	ic.Rotate.Signed = cfg.Interaction.SignedRotation

	ic.Launch.PinAxis = cfg.Coin.PinAxis
	ic.Launch.PinOffset = cfg.Coin.PinOffset
	ic.Launch.DragScale = cfg.Coin.DragScale
	ic.Launch.PreRotation = mgl64.QuatIdent()
	if pr := cfg.Coin.PreRotation; pr.Degrees != 0 && vec(pr.Axis).Len() > 0 {
		ic.Launch.PreRotation = mgl64.QuatRotate(mgl64.DegToRad(pr.Degrees), vec(pr.Axis).Normalize())
	}
	return ic
}

func vec(a [3]float64) mgl64.Vec3 { return mgl64.Vec3{a[0], a[1], a[2]} }
