// Package metrics provides per-frame scene measurements for sim.Stepper.
package metrics

import (
	"github.com/san-kum/physync/internal/binding"
	"github.com/san-kum/physync/internal/physics"
	"github.com/san-kum/physync/internal/sim"
)

// Standard returns the metrics every scene reports.
func Standard(w *physics.World, t *binding.Table, s binding.Suspension, freezeUnrelated bool) []sim.Metric {
	return []sim.Metric{
		NewEnergy(w),
		NewEnergyLoss(w),
		NewStability(w, 100),
		NewAwake(w),
		NewSyncError(t, s, freezeUnrelated),
		&Clamped{},
	}
}
