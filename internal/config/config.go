package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultScene         = "playground"
	DefaultFPS           = 60
	DefaultMaxFrameDelta = 0.1
	DefaultBallRadius    = 0.09
	DefaultBallMass      = 10.0
	DefaultRestitution   = 0.75
	DefaultFriction      = 0.5
)

type Config struct {
	Scene       string            `yaml:"scene"`
	Seed        int64             `yaml:"seed"`
	World       WorldConfig       `yaml:"world"`
	Lattice     LatticeConfig     `yaml:"lattice"`
	Lever       LeverConfig       `yaml:"lever"`
	Coin        CoinConfig        `yaml:"coin"`
	Ground      GroundConfig      `yaml:"ground"`
	Interaction InteractionConfig `yaml:"interaction"`
	View        ViewConfig        `yaml:"view"`
}

type WorldConfig struct {
	Gravity        [3]float64 `yaml:"gravity"`
	Integrator     string     `yaml:"integrator"`
	MaxFrameDelta  float64    `yaml:"max_frame_delta"`
	LinearDamping  float64    `yaml:"linear_damping"`
	AngularDamping float64    `yaml:"angular_damping"`
	SleepThreshold float64    `yaml:"sleep_threshold"`
	SleepTime      float64    `yaml:"sleep_time"`
}

type LatticeConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Scale          float64 `yaml:"scale"`
	PolarStep      float64 `yaml:"polar_step"`
	AzimuthStep    float64 `yaml:"azimuth_step"`
	ReusePolarStep bool    `yaml:"reuse_polar_step"`
	BaseHeight     float64 `yaml:"base_height"`
	BallRadius     float64 `yaml:"ball_radius"`
	Mass           float64 `yaml:"mass"`
	Friction       float64 `yaml:"friction"`
	Restitution    float64 `yaml:"restitution"`
	// WakeAt is the simulated time at which the sleeping balls are released.
	// Negative keeps them asleep until something hits them.
	WakeAt float64 `yaml:"wake_at"`
}

type LeverConfig struct {
	Enabled  bool       `yaml:"enabled"`
	Position [3]float64 `yaml:"position"`
	Size     [3]float64 `yaml:"size"`
	Axis     [3]float64 `yaml:"axis"`
	Gain     float64    `yaml:"gain"`
	Mass     float64    `yaml:"mass"`
}

type AxisAngle struct {
	Axis    [3]float64 `yaml:"axis"`
	Degrees float64    `yaml:"degrees"`
}

type CoinConfig struct {
	Enabled     bool       `yaml:"enabled"`
	Position    [3]float64 `yaml:"position"`
	Radius      float64    `yaml:"radius"`
	Thickness   float64    `yaml:"thickness"`
	Mass        float64    `yaml:"mass"`
	Friction    float64    `yaml:"friction"`
	Restitution float64    `yaml:"restitution"`
	PinAxis     int        `yaml:"pin_axis"`
	PinOffset   float64    `yaml:"pin_offset"`
	PreRotation AxisAngle  `yaml:"pre_rotation"`
	DragScale   float64    `yaml:"drag_scale"`
}

type GroundConfig struct {
	Shape       string  `yaml:"shape"`
	Size        float64 `yaml:"size"`
	Segments    int     `yaml:"segments"`
	Y           float64 `yaml:"y"`
	Friction    float64 `yaml:"friction"`
	Restitution float64 `yaml:"restitution"`
}

type InteractionConfig struct {
	FreezeUnrelatedOnDrag bool `yaml:"freeze_unrelated_on_drag"`
	SignedRotation        bool `yaml:"signed_rotation"`
}

type ViewConfig struct {
	FPS  int     `yaml:"fps"`
	Zoom float64 `yaml:"zoom"`
}

func DefaultConfig() *Config {
	return &Config{
		Scene: DefaultScene,
		Seed:  1,
		World: WorldConfig{
			Gravity:        [3]float64{0, -9.81, 0},
			Integrator:     "symplectic",
			MaxFrameDelta:  DefaultMaxFrameDelta,
			AngularDamping: 0.05,
			SleepThreshold: 0.05,
			SleepTime:      1.0,
		},
		Lattice: LatticeConfig{
			Enabled:        true,
			Scale:          0.5,
			PolarStep:      math.Pi / 3,
			AzimuthStep:    math.Pi / 3,
			ReusePolarStep: true,
			BaseHeight:     1.5,
			BallRadius:     DefaultBallRadius,
			Mass:           DefaultBallMass,
			Friction:       DefaultFriction,
			Restitution:    DefaultRestitution,
			WakeAt:         0.5,
		},
		Lever: LeverConfig{
			Enabled:  true,
			Position: [3]float64{-0.8, 0.3, 0},
			Size:     [3]float64{0.08, 0.6, 0.08},
			Axis:     [3]float64{0, 0, 1},
			Gain:     0.01,
			Mass:     2,
		},
		Coin: CoinConfig{
			Enabled:     true,
			Position:    [3]float64{0.8, 0.1, 0},
			Radius:      0.1,
			Thickness:   0.02,
			Mass:        1,
			Friction:    DefaultFriction,
			Restitution: 0.3,
			PinAxis:     2,
			PreRotation: AxisAngle{Axis: [3]float64{1, 0, 0}, Degrees: 90},
			DragScale:   0.01,
		},
		Ground: GroundConfig{
			Shape:       "trimesh",
			Size:        4,
			Segments:    8,
			Friction:    DefaultFriction,
			Restitution: 0.2,
		},
		View: ViewConfig{FPS: DefaultFPS, Zoom: 1.0},
	}
}

// Load reads, schema-validates and decodes a YAML scene file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse is Load for in-memory documents.
func Parse(data []byte) (*Config, error) {
	if err := validateDocument(data); err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks cross-field constraints the schema cannot express.
func (c *Config) Validate() error {
	if c.Lattice.Enabled && !c.Lattice.ReusePolarStep && !(c.Lattice.AzimuthStep > 0) {
		return fmt.Errorf("lattice.azimuth_step must be positive when reuse_polar_step is off")
	}
	if c.Coin.Enabled && c.Coin.PreRotation.Degrees != 0 && axisLen(c.Coin.PreRotation.Axis) == 0 {
		return fmt.Errorf("coin.pre_rotation.axis must be non-zero")
	}
	if c.Lever.Enabled && axisLen(c.Lever.Axis) == 0 {
		return fmt.Errorf("lever.axis must be non-zero")
	}
	return nil
}

func axisLen(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}
