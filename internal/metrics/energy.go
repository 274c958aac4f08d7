package metrics

import (
	"math"

	"github.com/san-kum/physync/internal/physics"
	"github.com/san-kum/physync/internal/sim"
)

// Mechanical returns the kinetic and gravitational potential energy of every
// dynamic body with a collider. Potential energy is measured from y=0.
func Mechanical(w *physics.World) (kinetic, potential float64) {
	g := w.Gravity().Len()
	w.ForEach(func(b *physics.Body) {
		m := b.Mass()
		if m == 0 {
			return
		}
		v := b.Linvel()
		kinetic += 0.5 * m * v.Dot(v)
		potential += m * g * b.Translation().Y()
	})
	return kinetic, potential
}

// Energy is the mean total mechanical energy over the observed frames.
type Energy struct {
	name        string
	world       *physics.World
	samples     int
	totalEnergy float64
}

func NewEnergy(w *physics.World) *Energy {
	return &Energy{name: "energy", world: w}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(sim.FrameInfo) {
	ke, pe := Mechanical(e.world)
	e.totalEnergy += ke + pe
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyLoss is the largest fraction of the first observed energy that has
// been dissipated by contacts and damping.
type EnergyLoss struct {
	name          string
	world         *physics.World
	initialEnergy float64
	maxLoss       float64
	samples       int
}

func NewEnergyLoss(w *physics.World) *EnergyLoss {
	return &EnergyLoss{name: "energy_loss", world: w}
}

func (e *EnergyLoss) Name() string { return e.name }

func (e *EnergyLoss) Observe(sim.FrameInfo) {
	ke, pe := Mechanical(e.world)
	energy := ke + pe
	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		loss := (e.initialEnergy - energy) / math.Abs(e.initialEnergy)
		e.maxLoss = math.Max(e.maxLoss, loss)
	}
}

func (e *EnergyLoss) Value() float64 { return e.maxLoss }

func (e *EnergyLoss) Reset() {
	e.initialEnergy = 0
	e.maxLoss = 0
	e.samples = 0
}
