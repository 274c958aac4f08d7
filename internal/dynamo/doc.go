// Package dynamo provides the primitives shared by every layer of the
// physics/visual synchronization engine.
//
// The package defines:
//
//   - [Transform]: a position plus unit-quaternion orientation
//   - the error taxonomy used across the engine ([ErrMissingIndexData],
//     [ErrInvalidBindingHandle], ...)
//   - [FrameError]: wraps an error with the frame it happened on
//   - timestep helpers ([ClampDelta])
//
// # Thread Safety
//
// Nothing in the engine is goroutine-safe. A scene is owned by exactly one
// frame loop; adapters that receive input on other goroutines hand it over
// through an inbox drained by that loop.
package dynamo
