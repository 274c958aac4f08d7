package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Runner drives a Stepper either headless with a fixed delta or against the
// wall clock. Cancellation is only observed between frames.
type Runner struct {
	stepper *Stepper
	log     *slog.Logger
	now     func() time.Time
}

func NewRunner(s *Stepper, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{stepper: s, log: log, now: time.Now}
}

func (r *Runner) Stepper() *Stepper { return r.stepper }

// Run steps the scene frames times with the same delta.
func (r *Runner) Run(ctx context.Context, frames int, delta float64) (*Result, error) {
	if frames <= 0 {
		return nil, fmt.Errorf("frames must be positive, got %d", frames)
	}
	start := r.now()
	r.reset()

	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			return r.result(start), ctx.Err()
		default:
		}
		if _, err := r.stepper.Step(delta); err != nil {
			return r.result(start), err
		}
	}
	res := r.result(start)
	r.log.Info("run complete", "frames", res.Frames, "elapsed", res.Elapsed, "wall", res.Wall)
	return res, nil
}

// Loop steps once per tick at fps, feeding the measured wall-clock time
// since the previous frame as the delta. It returns when ctx is done.
func (r *Runner) Loop(ctx context.Context, fps int) (*Result, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", fps)
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	start := r.now()
	last := start
	r.reset()
	for {
		select {
		case <-ctx.Done():
			res := r.result(start)
			r.log.Info("loop stopped", "frames", res.Frames, "elapsed", res.Elapsed)
			return res, nil
		case <-ticker.C:
		}
		now := r.now()
		delta := now.Sub(last).Seconds()
		last = now
		if _, err := r.stepper.Step(delta); err != nil {
			return r.result(start), err
		}
	}
}

func (r *Runner) reset() {
	for _, m := range r.stepper.metrics {
		m.Reset()
	}
}

func (r *Runner) result(start time.Time) *Result {
	res := &Result{
		Frames:  r.stepper.Frame(),
		Elapsed: r.stepper.World().Elapsed(),
		Wall:    r.now().Sub(start),
		Metrics: make(map[string]float64, len(r.stepper.metrics)),
	}
	for _, m := range r.stepper.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	return res
}
