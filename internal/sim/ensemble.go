package sim

import (
	"context"
	"fmt"
	"sync"
)

// Factory builds an independent scene for one ensemble member.
type Factory func(seed int64) (*Stepper, error)

// Ensemble runs several independent scenes in parallel, one goroutine each.
// Scenes share nothing, so the single-goroutine rule holds per scene.
type Ensemble struct {
	build     Factory
	numRuns   int
	seedStart int64
}

func NewEnsemble(build Factory, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context, frames int, delta float64) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			seed := e.seedStart + int64(idx)
			s, err := e.build(seed)
			if err != nil {
				errs[idx] = fmt.Errorf("build run %d (seed %d): %w", idx, seed, err)
				return
			}
			results[idx], errs[idx] = NewRunner(s, nil).Run(ctx, frames, delta)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
