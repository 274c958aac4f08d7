package sim

import (
	"time"

	"github.com/san-kum/physync/internal/dynamo"
)

// FrameInfo describes one completed Step.
type FrameInfo struct {
	Frame uint64
	// Delta is the frame time requested by the caller, Applied what the
	// world was actually advanced by.
	Delta   float64
	Applied float64
	Elapsed float64
	Synced  int
	Skipped int
}

// InputPump applies input queued since the previous frame.
type InputPump interface {
	Flush()
}

type Observer interface {
	OnFrame(FrameInfo)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(FrameInfo)

func (f ObserverFunc) OnFrame(fi FrameInfo) { f(fi) }

type Metric interface {
	Name() string
	Observe(FrameInfo)
	Value() float64
	Reset()
}

type Config struct {
	MaxDelta        float64
	FreezeUnrelated bool
	ValidateState   bool
}

func DefaultConfig() Config {
	return Config{MaxDelta: dynamo.MaxFrameDelta, ValidateState: true}
}

type Result struct {
	Frames  uint64
	Elapsed float64
	Wall    time.Duration
	Metrics map[string]float64
}
