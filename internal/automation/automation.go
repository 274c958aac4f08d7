// Package automation replays scripted pointer gestures against a scene
// without a terminal.
package automation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/physync/internal/config"
	"github.com/san-kum/physync/internal/interact"
	"github.com/san-kum/physync/internal/render"
	"github.com/san-kum/physync/internal/scenes"
	"gopkg.in/yaml.v3"
)

const DefaultDelta = 1.0 / 60

// Script is a scripted gesture sequence for one scene.
type Script struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Scene       string        `yaml:"scene"`
	Preset      string        `yaml:"preset"`
	Seed        *int64        `yaml:"seed"`
	Delta       float64       `yaml:"delta"`
	Steps       []Step        `yaml:"steps"`
	Expect      []Expectation `yaml:"expect"`
}

// Step is one of: wait some frames, perform a drag, push a raw event, or
// wake the ball shell.
type Step struct {
	Wait  int        `yaml:"wait"`
	Drag  *Drag      `yaml:"drag"`
	Event *EventStep `yaml:"event"`
	Wake  bool       `yaml:"wake"`
}

// Drag presses on Target, moves by each pointer delta in Moves (one frame
// per move), holds for Hold frames and releases with the Release delta.
type Drag struct {
	Target  string       `yaml:"target"`
	Moves   [][2]float64 `yaml:"moves"`
	Hold    int          `yaml:"hold"`
	Release [2]float64   `yaml:"release"`
}

// EventStep queues a single event for the next frame.
type EventStep struct {
	Kind     string      `yaml:"kind"`
	Target   string      `yaml:"target"`
	DX       float64     `yaml:"dx"`
	DY       float64     `yaml:"dy"`
	X        float64     `yaml:"x"`
	Y        float64     `yaml:"y"`
	Position *[3]float64 `yaml:"position"`
}

// Expectation bounds a metric at the end of the script.
type Expectation struct {
	Metric string   `yaml:"metric"`
	Min    *float64 `yaml:"min"`
	Max    *float64 `yaml:"max"`
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := ParseScript(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func ParseScript(data []byte) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) validate() error {
	if s.Scene == "" {
		return errors.New("script has no scene")
	}
	if s.Delta < 0 {
		return fmt.Errorf("delta must not be negative, got %g", s.Delta)
	}
	for i, st := range s.Steps {
		n := 0
		if st.Wait != 0 {
			n++
		}
		if st.Drag != nil {
			n++
		}
		if st.Event != nil {
			n++
		}
		if st.Wake {
			n++
		}
		if n != 1 {
			return fmt.Errorf("step %d: exactly one of wait, drag, event or wake is required", i+1)
		}
		if st.Wait < 0 {
			return fmt.Errorf("step %d: wait must be positive", i+1)
		}
		if st.Drag != nil && st.Drag.Target == "" {
			return fmt.Errorf("step %d: drag needs a target", i+1)
		}
		if st.Event != nil {
			if _, err := interact.ParseEventKind(st.Event.Kind); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
		}
	}
	for i, e := range s.Expect {
		if e.Metric == "" {
			return fmt.Errorf("expectation %d: metric is required", i+1)
		}
	}
	return nil
}

// Config resolves the scene configuration the script runs against.
func (s *Script) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Scene = s.Scene
	if s.Preset != "" {
		cfg = config.GetPreset(s.Scene, s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %s/%s", s.Scene, s.Preset)
		}
	}
	if s.Seed != nil {
		cfg.Seed = *s.Seed
	}
	return cfg, nil
}

func (s *Script) delta() float64 {
	if s.Delta == 0 {
		return DefaultDelta
	}
	return s.Delta
}

// Report summarizes a replay.
type Report struct {
	Script   string
	Frames   uint64
	Elapsed  float64
	Events   int
	Rejected int
	Metrics  map[string]float64
	Failures []string
}

func (r *Report) OK() bool { return len(r.Failures) == 0 }

// Run replays the script on sc. Rejected events are counted, not fatal.
func Run(ctx context.Context, sc *scenes.Scene, s *Script) (*Report, error) {
	rep := &Report{Script: s.Name}
	sc.Machine.OnApplied(func(a interact.Applied) {
		rep.Events++
		if a.Err != nil {
			rep.Rejected++
		}
	})
	p := &player{scene: sc, delta: s.delta()}

	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		var err error
		switch {
		case st.Wait > 0:
			err = p.frames(st.Wait)
		case st.Drag != nil:
			err = p.drag(*st.Drag)
		case st.Event != nil:
			err = p.event(*st.Event)
		case st.Wake:
			n := sc.WakeBalls()
			sc.Log().Debug("script woke balls", "count", n)
		}
		if err != nil {
			return rep, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	// Queued events still apply on a final frame.
	if sc.Machine.Pending() > 0 {
		if err := p.frames(1); err != nil {
			return rep, err
		}
	}

	rep.Frames = sc.Stepper.Frame()
	rep.Elapsed = sc.World.Elapsed()
	rep.Metrics = make(map[string]float64, len(sc.Metrics))
	for _, m := range sc.Metrics {
		rep.Metrics[m.Name()] = m.Value()
	}
	rep.Failures = Check(rep.Metrics, s.Expect)
	sc.Log().Info("script complete", "script", s.Name, "frames", rep.Frames, "events", rep.Events, "rejected", rep.Rejected, "failures", len(rep.Failures))
	return rep, nil
}

// Check returns one message per unmet expectation.
func Check(metrics map[string]float64, expect []Expectation) []string {
	var out []string
	for _, e := range expect {
		v, ok := metrics[e.Metric]
		switch {
		case !ok:
			out = append(out, fmt.Sprintf("%s: no such metric", e.Metric))
		case e.Min != nil && v < *e.Min:
			out = append(out, fmt.Sprintf("%s = %g, want >= %g", e.Metric, v, *e.Min))
		case e.Max != nil && v > *e.Max:
			out = append(out, fmt.Sprintf("%s = %g, want <= %g", e.Metric, v, *e.Max))
		}
	}
	return out
}

type player struct {
	scene *scenes.Scene
	delta float64
}

func (p *player) frames(n int) error {
	for i := 0; i < n; i++ {
		if _, err := p.scene.Stepper.Step(p.delta); err != nil {
			return err
		}
	}
	return nil
}

func (p *player) drag(d Drag) error {
	node, err := Resolve(p.scene, d.Target)
	if err != nil {
		return err
	}
	p.scene.Push(interact.Event{Kind: interact.DragStart, Node: node})
	for _, m := range d.Moves {
		p.scene.Push(interact.Event{Kind: interact.Drag, Node: node, Pointer: interact.Pointer{DX: m[0], DY: m[1]}})
		if err := p.frames(1); err != nil {
			return err
		}
	}
	if err := p.frames(d.Hold); err != nil {
		return err
	}
	p.scene.Push(interact.Event{Kind: interact.DragEnd, Node: node, Pointer: interact.Pointer{DX: d.Release[0], DY: d.Release[1]}})
	return p.frames(1)
}

func (p *player) event(e EventStep) error {
	kind, err := interact.ParseEventKind(e.Kind)
	if err != nil {
		return err
	}
	node, err := Resolve(p.scene, e.Target)
	if err != nil {
		return err
	}
	ev := interact.Event{Kind: kind, Node: node, Pointer: interact.Pointer{DX: e.DX, DY: e.DY, X: e.X, Y: e.Y}}
	if e.Position != nil {
		pos := mgl64.Vec3(*e.Position)
		ev.Position = &pos
	}
	p.scene.Push(ev)
	return nil
}

// Resolve maps a target name to a node: ground, lever, coin, ball:N or a
// raw node:N handle.
func Resolve(sc *scenes.Scene, target string) (render.NodeHandle, error) {
	name, arg, _ := strings.Cut(target, ":")
	switch name {
	case "ground":
		return sc.NodeOf(sc.Ground)
	case "lever":
		return sc.NodeOf(sc.Lever)
	case "coin":
		return sc.NodeOf(sc.Coin)
	case "ball":
		i, err := strconv.Atoi(arg)
		if err != nil || i < 0 || i >= len(sc.Balls) {
			return 0, fmt.Errorf("target %q: no such ball", target)
		}
		return sc.NodeOf(sc.Balls[i])
	case "node":
		n, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("target %q: %w", target, err)
		}
		return render.NodeHandle(n), nil
	}
	return 0, fmt.Errorf("unknown target %q", target)
}
