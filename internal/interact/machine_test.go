package interact_test

import (
	"io"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/physync/internal/binding"
	"github.com/san-kum/physync/internal/dynamo"
	"github.com/san-kum/physync/internal/interact"
	"github.com/san-kum/physync/internal/physics"
	"github.com/san-kum/physync/internal/render"
	"github.com/san-kum/physync/internal/spawn"
)

const frame = 1.0 / 60

var _ = Describe("Machine", func() {
	var (
		env     spawn.Env
		m       *interact.Machine
		cfg     interact.Config
		lever   binding.Handle
		coin    binding.Handle
		ball    binding.Handle
		applied []interact.Applied
	)

	entity := func(name string, role binding.Role, at mgl64.Vec3, s physics.Shape, mesh *render.Mesh) binding.Handle {
		h, err := spawn.Entity(env, spawn.EntitySpec{
			Name:     name,
			Role:     role,
			Kind:     physics.Dynamic,
			Position: at,
			Mesh:     mesh,
			Collider: physics.ShapeDescriptor{Shape: s, Mass: 1, Friction: 0.5},
		})
		Expect(err).NotTo(HaveOccurred())
		return h
	}

	node := func(h binding.Handle) render.NodeHandle {
		n, err := m.NodeHandle(h)
		Expect(err).NotTo(HaveOccurred())
		return n
	}

	BeforeEach(func() {
		w, err := physics.NewWorld(physics.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		env = spawn.Env{
			World: w,
			Scene: render.NewScene(),
			Table: binding.NewTable(),
			Log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		}
		lever = entity("lever", binding.RoleLever, mgl64.Vec3{0, 1, 0}, physics.NewCuboid(0.05, 0.4, 0.05), render.Box(0.1, 0.8, 0.1))
		coin = entity("coin", binding.RoleCoin, mgl64.Vec3{0.5, 1, 0.3}, physics.NewCylinder(0.1, 0.01), render.Cylinder(0.1, 0.02, 16))
		ball = entity("ball", binding.RoleBall, mgl64.Vec3{-0.5, 1, 0}, physics.NewBall(0.09), render.Sphere(0.09, 10, 10))

		cfg = interact.DefaultConfig()
		cfg.Rotate.RestPose = mgl64.Vec3{0, 1, 0}
		applied = nil
	})

	JustBeforeEach(func() {
		var err error
		m, err = interact.New(env.Table, cfg, rand.New(rand.NewSource(3)), env.Log)
		Expect(err).NotTo(HaveOccurred())
		m.OnApplied(func(a interact.Applied) { applied = append(applied, a) })
	})

	Describe("LaunchProjectile", func() {
		It("throws the body with a velocity derived from the final pointer delta", func() {
			_, err := m.Begin(coin, interact.Pointer{})
			Expect(err).NotTo(HaveOccurred())
			Expect(m.End(coin, interact.Pointer{DX: 20, DY: -10})).To(Succeed())

			body := env.Table.MustGet(coin).Body
			Expect(body.Linvel()).To(Equal(mgl64.Vec3{2.0, 1.25, 0.0}))
			Expect(body.IsSleeping()).To(BeFalse())
			for _, w := range body.Angvel() {
				Expect(w).To(BeNumerically(">=", -15))
				Expect(w).To(BeNumerically("<=", 15))
			}
			Expect(m.IsSuspended(coin)).To(BeFalse())
		})

		It("adds the motion of the current frame to the release delta", func() {
			n := node(coin)
			m.Push(interact.Event{Kind: interact.DragStart, Node: n})
			m.Push(interact.Event{Kind: interact.Drag, Node: n, Pointer: interact.Pointer{DX: 5, DY: -2}})
			m.Push(interact.Event{Kind: interact.DragEnd, Node: n, Pointer: interact.Pointer{DX: 15, DY: -8}})
			m.Flush()

			Expect(env.Table.MustGet(coin).Body.Linvel()).To(Equal(mgl64.Vec3{2.0, 1.25, 0.0}))
			Expect(applied).To(HaveLen(3))
			for _, a := range applied {
				Expect(a.Err).NotTo(HaveOccurred())
				Expect(a.Gesture).To(Equal(interact.LaunchProjectile))
			}
		})

		It("forgets motion from earlier frames", func() {
			n := node(coin)
			m.Push(interact.Event{Kind: interact.DragStart, Node: n})
			m.Push(interact.Event{Kind: interact.Drag, Node: n, Pointer: interact.Pointer{DX: 300, DY: 300}})
			m.Flush()
			s, ok := m.Session(coin)
			Expect(ok).To(BeTrue())
			Expect(s.DX).To(BeZero())

			m.Push(interact.Event{Kind: interact.DragEnd, Node: n, Pointer: interact.Pointer{DX: 20, DY: -10}})
			m.Flush()
			Expect(env.Table.MustGet(coin).Body.Linvel()).To(Equal(mgl64.Vec3{2.0, 1.25, 0.0}))
		})

		It("pins the constrained axis of the node position", func() {
			_, err := m.Begin(coin, interact.Pointer{})
			Expect(err).NotTo(HaveOccurred())
			n := env.Table.MustGet(coin).Node
			Expect(n.Position().Z()).To(BeZero())

			Expect(m.Update(coin, interact.Pointer{Position: &mgl64.Vec3{1, 2, 3}})).To(Succeed())
			Expect(n.Position()).To(Equal(mgl64.Vec3{1, 2, 0}))

			Expect(m.Update(coin, interact.Pointer{DX: 100, DY: 50})).To(Succeed())
			Expect(n.Position().X()).To(BeNumerically("~", 2, 1e-12))
			Expect(n.Position().Y()).To(BeNumerically("~", 1.5, 1e-12))
			Expect(n.Position().Z()).To(BeZero())

			Expect(m.End(coin, interact.Pointer{})).To(Succeed())
			Expect(env.Table.MustGet(coin).Body.Translation()).To(Equal(n.Position()))
		})

		It("applies the pre-rotation once", func() {
			n := env.Table.MustGet(coin).Node
			want := n.Orientation().Mul(cfg.Launch.PreRotation)

			_, err := m.Begin(coin, interact.Pointer{})
			Expect(err).NotTo(HaveOccurred())
			Expect(n.Orientation().ApproxEqualThreshold(want, 1e-12)).To(BeTrue())

			Expect(m.Update(coin, interact.Pointer{DX: 4})).To(Succeed())
			Expect(n.Orientation().ApproxEqualThreshold(want, 1e-12)).To(BeTrue())

			Expect(m.End(coin, interact.Pointer{})).To(Succeed())
			Expect(env.Table.MustGet(coin).Body.Rotation().ApproxEqualThreshold(want, 1e-12)).To(BeTrue())
		})

		It("keeps the suspended body in place while the world steps", func() {
			body := env.Table.MustGet(coin).Body
			start := body.Translation()
			_, err := m.Begin(coin, interact.Pointer{})
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 200; i++ {
				env.World.Step(frame)
				env.Table.Sync(m, false)
			}
			Expect(body.Translation()).To(Equal(start))
			Expect(m.IsSuspended(coin)).To(BeTrue())

			ballBody := env.Table.MustGet(ball).Body
			Expect(ballBody.Translation().Y()).To(BeNumerically("<", 1))
		})

		It("does not inject velocity twice", func() {
			_, err := m.Begin(coin, interact.Pointer{})
			Expect(err).NotTo(HaveOccurred())
			Expect(m.End(coin, interact.Pointer{DX: 20, DY: -10})).To(Succeed())

			body := env.Table.MustGet(coin).Body
			body.SetLinvel(mgl64.Vec3{}, false)
			body.SetAngvel(mgl64.Vec3{}, false)

			Expect(m.End(coin, interact.Pointer{DX: 20, DY: -10})).To(MatchError(interact.ErrNoActiveSession))
			Expect(body.Linvel()).To(Equal(mgl64.Vec3{}))
			Expect(body.Angvel()).To(Equal(mgl64.Vec3{}))
		})
	})

	Describe("RotateHandle", func() {
		It("turns the node about the axis by the unsigned pointer motion", func() {
			body := env.Table.MustGet(lever).Body
			start := body.Translation()
			_, err := m.Begin(lever, interact.Pointer{})
			Expect(err).NotTo(HaveOccurred())

			Expect(m.Update(lever, interact.Pointer{DX: 10, DY: -5})).To(Succeed())
			Expect(m.Update(lever, interact.Pointer{DX: -10, DY: 5})).To(Succeed())

			s, _ := m.Session(lever)
			Expect(s.Angle).To(BeNumerically("~", 0.3, 1e-12))
			want := mgl64.QuatRotate(0.3, mgl64.Vec3{0, 0, 1})
			n := env.Table.MustGet(lever).Node
			Expect(n.Orientation().ApproxEqualThreshold(want, 1e-12)).To(BeTrue())
			Expect(body.Rotation()).To(Equal(n.Orientation()))
			Expect(body.Translation()).To(Equal(start))
		})

		It("snaps the body to the rest pose on release", func() {
			cfg.Rotate.RestPose = mgl64.Vec3{0, 0.8, 0}
			m2, err := interact.New(env.Table, cfg, nil, env.Log)
			Expect(err).NotTo(HaveOccurred())

			_, err = m2.Begin(lever, interact.Pointer{})
			Expect(err).NotTo(HaveOccurred())
			Expect(m2.Update(lever, interact.Pointer{DX: 30})).To(Succeed())
			Expect(m2.End(lever, interact.Pointer{})).To(Succeed())

			b := env.Table.MustGet(lever)
			Expect(b.Body.Translation()).To(Equal(mgl64.Vec3{0, 0.8, 0}))
			Expect(b.Body.Rotation()).To(Equal(b.Node.Orientation()))
			Expect(b.Body.IsSleeping()).To(BeFalse())
			Expect(b.Body.Linvel()).To(Equal(mgl64.Vec3{}))
		})

		Context("with signed rotation", func() {
			BeforeEach(func() {
				cfg.Rotate.Signed = true
				cfg.Rotate.Pivot = mgl64.Vec2{0, 0}
			})

			It("turns each way depending on the motion around the pivot", func() {
				_, err := m.Begin(lever, interact.Pointer{})
				Expect(err).NotTo(HaveOccurred())

				Expect(m.Update(lever, interact.Pointer{X: 10, Y: 0, DY: 5})).To(Succeed())
				s, _ := m.Session(lever)
				Expect(s.Angle).To(BeNumerically("~", 0.05, 1e-12))

				Expect(m.Update(lever, interact.Pointer{X: 10, Y: 0, DY: -10})).To(Succeed())
				s, _ = m.Session(lever)
				Expect(s.Angle).To(BeNumerically("~", -0.05, 1e-12))

				Expect(m.Update(lever, interact.Pointer{X: 0, Y: 0, DY: 10})).To(Succeed())
				s, _ = m.Session(lever)
				Expect(s.Angle).To(BeNumerically("~", -0.05, 1e-12))
			})
		})
	})

	Describe("session rules", func() {
		It("rejects roles without a gesture", func() {
			_, err := m.Begin(ball, interact.Pointer{})
			Expect(err).To(MatchError(interact.ErrNotDraggable))
			Expect(env.Table.MustGet(ball).Body.IsSleeping()).To(BeFalse())
		})

		It("rejects a second drag on the same binding", func() {
			_, err := m.Begin(coin, interact.Pointer{})
			Expect(err).NotTo(HaveOccurred())
			_, err = m.Begin(coin, interact.Pointer{})
			Expect(err).To(MatchError(interact.ErrSessionActive))
		})

		It("allows concurrent drags on different bindings", func() {
			_, err := m.Begin(coin, interact.Pointer{})
			Expect(err).NotTo(HaveOccurred())
			_, err = m.Begin(lever, interact.Pointer{})
			Expect(err).NotTo(HaveOccurred())

			sessions := m.Sessions()
			Expect(sessions).To(HaveLen(2))
			Expect(sessions[0].Binding).To(Equal(lever))
			Expect(sessions[1].Binding).To(Equal(coin))
			Expect(m.AnySuspended()).To(BeTrue())
		})

		It("rejects unknown bindings", func() {
			_, err := m.Begin(999, interact.Pointer{})
			Expect(err).To(MatchError(dynamo.ErrInvalidBindingHandle))
		})

		It("drops bad queued events and keeps going", func() {
			m.Push(interact.Event{Kind: interact.DragStart, Node: 4242})
			m.Push(interact.Event{Kind: interact.DragEnd, Node: node(coin)})
			m.Push(interact.Event{Kind: interact.DragStart, Node: node(coin)})
			m.Flush()

			Expect(applied).To(HaveLen(3))
			Expect(applied[0].Err).To(MatchError(interact.ErrUnknownNode))
			Expect(applied[1].Err).To(MatchError(interact.ErrNoActiveSession))
			Expect(applied[2].Err).NotTo(HaveOccurred())
			Expect(m.IsSuspended(coin)).To(BeTrue())
		})
	})

	Describe("Inbox", func() {
		It("collects events from other goroutines for the next flush", func() {
			n := node(coin)
			m.Inbox().Post(interact.Event{Kind: interact.DragStart, Node: n})

			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					m.Inbox().Post(interact.Event{Kind: interact.Drag, Node: n, Pointer: interact.Pointer{DX: 1}})
				}()
			}
			wg.Wait()
			Expect(m.Pending()).To(Equal(9))

			m.Flush()
			Expect(m.Pending()).To(BeZero())
			Expect(applied).To(HaveLen(9))
			Expect(env.Table.MustGet(coin).Node.Position().X()).To(BeNumerically("~", 0.5+8*cfg.Launch.DragScale, 1e-12))
		})
	})

	Describe("as a binding suspension", func() {
		It("keeps sync off the dragged node only", func() {
			_, err := m.Begin(coin, interact.Pointer{})
			Expect(err).NotTo(HaveOccurred())

			env.World.Step(0.1)
			stats := env.Table.Sync(m, false)
			Expect(stats.Suspended).To(Equal(1))
			Expect(stats.Synced).To(Equal(2))

			stats = env.Table.Sync(m, true)
			Expect(stats.Frozen).To(Equal(2))
		})
	})
})
