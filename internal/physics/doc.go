// Package physics is a small rigid-body world: bodies, colliders and a
// sequential impulse solver.
//
// A [World] owns its bodies. Each [Body] is either [Fixed] or [Dynamic] and
// takes part in contacts once a [ShapeDescriptor] is attached with
// [World.AttachShape]. Contacts are resolved between a moving body's
// bounding sphere and the exact shape of the body it touches:
//
//   - [Ball]: sphere
//   - [Cuboid]: oriented box
//   - [Cylinder]: Y-aligned cylinder
//   - [Trimesh]: static triangle soup
//
// # Sleeping
//
// Bodies whose speed stays under [Config.SleepThreshold] for
// [Config.SleepTime] fall asleep and are woken by the next contact. A body
// put to sleep with [Body.Sleep] is held: contacts treat it as immovable and
// never wake it. Only [Body.WakeUp] or a setter called with wake=true returns
// it to the solver.
//
//	w, _ := physics.NewWorld(physics.DefaultConfig())
//	b := w.CreateBody(physics.Dynamic, mgl64.Vec3{0, 2, 0})
//	_ = w.AttachShape(b, physics.ShapeDescriptor{Shape: physics.NewBall(0.5), Mass: 1})
//	w.Step(1.0 / 60)
package physics
