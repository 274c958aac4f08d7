package dynamo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MaxFrameDelta is the longest timestep the world is ever advanced by in a
// single frame, in seconds.
const MaxFrameDelta = 0.1

// Transform is a position plus unit-quaternion orientation.
type Transform struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// Identity returns a transform at the origin with no rotation.
func Identity() Transform {
	return Transform{Orientation: mgl64.QuatIdent()}
}

// ClampDelta returns min(delta, max). Negative, NaN and infinite deltas
// clamp to 0 and max respectively so the solver never sees them.
func ClampDelta(delta, max float64) float64 {
	switch {
	case math.IsNaN(delta) || delta <= 0:
		return 0
	case delta > max:
		return max
	}
	return delta
}

// VecIsValid reports whether every component is finite.
func VecIsValid(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// QuatIsValid reports whether q is finite and has non-zero length.
func QuatIsValid(q mgl64.Quat) bool {
	if math.IsNaN(q.W) || math.IsInf(q.W, 0) || !VecIsValid(q.V) {
		return false
	}
	return q.Len() > 0
}
