// Package scenes assembles runnable scenes from configuration.
package scenes

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/san-kum/physync/internal/config"
)

// Builder adds a scene's entities to a freshly assembled Scene.
type Builder func(s *Scene) error

type entry struct {
	build       Builder
	description string
}

type Registry struct {
	scenes map[string]entry
}

func NewRegistry() *Registry {
	r := &Registry{scenes: make(map[string]entry)}

	r.Register("balls", "sleeping ball shell released over the ground", func(s *Scene) error {
		return s.spawn(s.ground, s.lattice)
	})
	r.Register("lever", "a lever rotated by dragging", func(s *Scene) error {
		return s.spawn(s.ground, s.lever)
	})
	r.Register("coin", "a coin flicked by dragging", func(s *Scene) error {
		return s.spawn(s.ground, s.coin)
	})
	r.Register("playground", "ground, ball shell, lever and coin as enabled in the config", func(s *Scene) error {
		parts := []func() error{s.ground}
		if s.Config.Lattice.Enabled {
			parts = append(parts, s.lattice)
		}
		if s.Config.Lever.Enabled {
			parts = append(parts, s.lever)
		}
		if s.Config.Coin.Enabled {
			parts = append(parts, s.coin)
		}
		return s.spawn(parts...)
	})

	return r
}

func (r *Registry) Register(name, description string, build Builder) {
	r.scenes[name] = entry{build: build, description: description}
}

func (r *Registry) Describe(name string) string {
	return r.scenes[name].description
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.scenes))
	for name := range r.scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build assembles cfg.Scene from cfg.
func (r *Registry) Build(cfg *config.Config, log *slog.Logger) (*Scene, error) {
	e, ok := r.scenes[cfg.Scene]
	if !ok {
		return nil, fmt.Errorf("unknown scene: %s", cfg.Scene)
	}
	s, err := assemble(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := e.build(s); err != nil {
		return nil, fmt.Errorf("scene %s: %w", cfg.Scene, err)
	}
	s.finish()
	s.log.Info("scene built", "scene", cfg.Scene, "bindings", s.Table.Len(), "bodies", s.World.Len())
	return s, nil
}
