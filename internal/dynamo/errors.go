package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for scene construction and frame stepping.
var (
	// ErrMissingIndexData indicates a mesh without a triangle index buffer.
	ErrMissingIndexData = errors.New("dynamo: mesh has no index data")

	// ErrMalformedMesh indicates vertex or index buffers that do not describe triangles.
	ErrMalformedMesh = errors.New("dynamo: malformed mesh buffers")

	// ErrInvalidShape indicates a collision shape with non-positive or non-finite dimensions.
	ErrInvalidShape = errors.New("dynamo: invalid collision shape")

	// ErrShapeAttached indicates a second collider attached to the same body.
	ErrShapeAttached = errors.New("dynamo: body already has a collision shape")

	// ErrInvalidBindingHandle indicates a lookup of an unknown or removed binding.
	ErrInvalidBindingHandle = errors.New("dynamo: invalid binding handle")

	// ErrAlreadyBound indicates a node or body that already belongs to a binding.
	ErrAlreadyBound = errors.New("dynamo: node or body already bound")

	// ErrReentrantStep indicates Step was called while a step was in progress.
	ErrReentrantStep = errors.New("dynamo: step called re-entrantly")

	// ErrInvalidState indicates a body whose translation or rotation became non-finite.
	ErrInvalidState = errors.New("dynamo: body state is not finite")
)

// FrameError wraps an error with frame context.
type FrameError struct {
	Frame   uint64
	Elapsed float64
	Wrapped error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d (t=%.4f): %v", e.Frame, e.Elapsed, e.Wrapped)
}

func (e *FrameError) Unwrap() error {
	return e.Wrapped
}
