package config

import (
	"math"
	"sort"
)

// Presets are named variations of DefaultConfig, grouped by scene.
var Presets = map[string]map[string]func(*Config){
	"balls": {
		"shell": func(c *Config) {},
		"dense": func(c *Config) {
			c.Lattice.PolarStep = math.Pi / 6
		},
		"wide": func(c *Config) {
			c.Lattice.Scale = 1.0
			c.Lattice.ReusePolarStep = false
			c.Lattice.AzimuthStep = math.Pi / 4
			c.Ground.Size = 6
		},
		"asleep": func(c *Config) {
			c.Lattice.WakeAt = -1
		},
	},
	"lever": {
		"unsigned": func(c *Config) {},
		"signed": func(c *Config) {
			c.Interaction.SignedRotation = true
		},
	},
	"coin": {
		"toss": func(c *Config) {},
		"frozen": func(c *Config) {
			c.Interaction.FreezeUnrelatedOnDrag = true
		},
		"bouncy": func(c *Config) {
			c.Coin.Restitution = 0.9
			c.Ground.Restitution = 0.9
		},
	},
	"playground": {
		"default": func(c *Config) {},
		"moon": func(c *Config) {
			c.World.Gravity = [3]float64{0, -1.62, 0}
		},
		"box-floor": func(c *Config) {
			c.Ground.Shape = "cuboid"
		},
	},
}

// GetPreset returns a fresh config for the scene with the preset applied, or
// nil if either is unknown.
func GetPreset(scene, preset string) *Config {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	apply, ok := scenePresets[preset]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Scene = scene
	apply(cfg)
	return cfg
}

func ListPresets(scene string) []string {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenePresets))
	for name := range scenePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
