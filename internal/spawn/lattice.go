package spawn

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/physync/internal/binding"
	"github.com/san-kum/physync/internal/physics"
	"github.com/san-kum/physync/internal/render"
)

// LatticeOptions configures a ball shell.
type LatticeOptions struct {
	Scale       float64
	PolarStep   float64
	AzimuthStep float64
	// ReusePolarStep steps the azimuth by PolarStep as well, ignoring
	// AzimuthStep.
	ReusePolarStep bool
	BaseHeight     float64
	BallRadius     float64
	Mass           float64
	Friction       float64
	Restitution    float64
	Segments       int
	Template       *render.Material
}

func DefaultLatticeOptions() LatticeOptions {
	return LatticeOptions{
		Scale:          0.5,
		PolarStep:      math.Pi / 3,
		AzimuthStep:    math.Pi / 3,
		ReusePolarStep: true,
		BaseHeight:     1.5,
		BallRadius:     0.09,
		Mass:           10,
		Friction:       0.5,
		Restitution:    0.75,
		Segments:       10,
		Template:       render.NewMaterial("ball", "#ffffff"),
	}
}

func (o LatticeOptions) azimuthStep() float64 {
	if o.ReusePolarStep {
		return o.PolarStep
	}
	return o.AzimuthStep
}

// steps counts k ≥ first with k·step < 2π. Exact multiples of 2π are
// excluded despite rounding in step.
func steps(step float64, first int) int {
	if !(step > 0) || math.IsInf(step, 0) {
		return 0
	}
	n := int(math.Ceil(2*math.Pi/step-1e-9)) - first
	return max(n, 0)
}

// Positions returns the shell positions in spawn order: θ outer, φ inner.
func Positions(o LatticeOptions) []mgl64.Vec3 {
	dTheta, dPhi := o.PolarStep, o.azimuthStep()
	nTheta, nPhi := steps(dTheta, 1), steps(dPhi, 0)

	out := make([]mgl64.Vec3, 0, nTheta*nPhi)
	for k := 1; k <= nTheta; k++ {
		theta := float64(k) * dTheta
		for j := 0; j < nPhi; j++ {
			phi := float64(j) * dPhi
			out = append(out, mgl64.Vec3{
				o.Scale * math.Cos(theta) * math.Sin(phi),
				o.BaseHeight + o.Scale*math.Sin(theta)*math.Sin(phi),
				o.Scale * math.Cos(theta),
			})
		}
	}
	return out
}

// Lattice spawns one sleeping ball per shell position. All balls share one
// sphere mesh; each gets its own material cloned from the template with a
// random roughness. A failed ball does not stop the others: the handles of
// the balls that were created are returned with the joined errors.
func Lattice(env Env, o LatticeOptions) ([]binding.Handle, error) {
	if o.Template == nil {
		o.Template = render.NewMaterial("ball", "#ffffff")
	}
	mesh := render.Sphere(o.BallRadius, o.Segments, o.Segments)
	rng := env.rng()

	positions := Positions(o)
	handles := make([]binding.Handle, 0, len(positions))
	var errs []error
	for i, p := range positions {
		mat := o.Template.Clone()
		mat.Roughness = rng.Float64()
		h, err := Entity(env, EntitySpec{
			Name:     fmt.Sprintf("ball-%d", i),
			Role:     binding.RoleBall,
			Kind:     physics.Dynamic,
			Position: p,
			Mesh:     mesh,
			Material: mat,
			Collider: physics.ShapeDescriptor{
				Shape:       physics.NewBall(o.BallRadius),
				Mass:        o.Mass,
				Friction:    o.Friction,
				Restitution: o.Restitution,
			},
			Asleep: true,
		})
		if err != nil {
			env.logger().Warn("lattice ball dropped", "index", i, "err", err)
			errs = append(errs, err)
			continue
		}
		handles = append(handles, h)
	}
	env.logger().Info("lattice spawned", "balls", len(handles), "failed", len(errs))
	return handles, errors.Join(errs...)
}
