package interact

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/physync/internal/binding"
)

// Gesture is the kind of manipulation a drag performs.
type Gesture int

const (
	RotateHandle Gesture = iota + 1
	LaunchProjectile
)

func (g Gesture) String() string {
	switch g {
	case RotateHandle:
		return "rotate"
	case LaunchProjectile:
		return "launch"
	}
	return fmt.Sprintf("Gesture(%d)", int(g))
}

// RotateConfig parameterizes RotateHandle.
type RotateConfig struct {
	// Axis is the single axis the node may turn about.
	Axis mgl64.Vec3
	// Gain converts pointer pixels to radians.
	Gain float64
	// RestPose is where the body is put back on release.
	RestPose mgl64.Vec3
	// Signed derives the rotation direction from the pointer motion around
	// Pivot instead of turning by |dx|+|dy|. This changes behaviour and is
	// off unless enabled.
	Signed bool
	Pivot  mgl64.Vec2
}

// LaunchConfig parameterizes LaunchProjectile.
type LaunchConfig struct {
	// PinAxis (0, 1 or 2) of the node position is held at PinOffset.
	PinAxis   int
	PinOffset float64
	// PreRotation is applied once, in node space, when the drag starts.
	PreRotation mgl64.Quat
	// DragScale maps pointer pixels to world units when an event carries no
	// proposed position.
	DragScale float64
	// The release velocity is (dx/VelocityDivX, -dy/VelocityDivY, 0).
	VelocityDivX float64
	VelocityDivY float64
	// SpinMax bounds the random angular velocity on each axis.
	SpinMax float64
}

// Config binds roles to gestures and carries the gesture parameters.
type Config struct {
	Gestures map[binding.Role]Gesture
	Rotate   RotateConfig
	Launch   LaunchConfig
}

func DefaultConfig() Config {
	return Config{
		Gestures: map[binding.Role]Gesture{
			binding.RoleLever: RotateHandle,
			binding.RoleCoin:  LaunchProjectile,
		},
		Rotate: RotateConfig{
			Axis: mgl64.Vec3{0, 0, 1},
			Gain: 0.01,
		},
		Launch: LaunchConfig{
			PinAxis:      2,
			PinOffset:    0,
			PreRotation:  mgl64.QuatRotate(mgl64.DegToRad(90), mgl64.Vec3{1, 0, 0}),
			DragScale:    0.01,
			VelocityDivX: 10,
			VelocityDivY: 8,
			SpinMax:      15,
		},
	}
}

func (c Config) validate() error {
	if c.Rotate.Axis.Len() == 0 {
		return fmt.Errorf("rotate axis must be non-zero")
	}
	if c.Launch.PinAxis < 0 || c.Launch.PinAxis > 2 {
		return fmt.Errorf("launch pin axis %d out of range", c.Launch.PinAxis)
	}
	if c.Launch.VelocityDivX == 0 || c.Launch.VelocityDivY == 0 {
		return fmt.Errorf("launch velocity divisors must be non-zero")
	}
	return nil
}
