// Package interact implements pointer drag gestures that take a body away
// from the physics world while the user holds it and hand it back on release.
//
// Input arrives as [Event] values scoped to a scene node. Events are queued
// with [Machine.Push], or posted from other goroutines through the machine's
// [Inbox], and applied in order by [Machine.Flush] at the start of each
// frame. A [Session] exists per grabbed binding. While it exists the binding
// is suspended: its body is asleep and held, and the node is driven by the
// gesture instead of the body.
//
// Two gestures exist, chosen from the binding's role:
//
//   - [RotateHandle] turns the node about a single axis and snaps the body to
//     a rest pose on release.
//   - [LaunchProjectile] drags the node in a plane and throws the body with a
//     velocity derived from the final pointer delta.
//
// A Machine is not safe for concurrent use. Only the Inbox is.
package interact
