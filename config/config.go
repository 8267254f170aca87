// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Fluid      FluidConfig      `yaml:"fluid"`
	Particles  ParticlesConfig  `yaml:"particles"`
	Spawn      SpawnConfig      `yaml:"spawn"`
	Input      InputConfig      `yaml:"input"`
	Turbulence TurbulenceConfig `yaml:"turbulence"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// FluidConfig holds the velocity-field grid and solver parameters.
// The world domain is cols*cell_size by rows*cell_size world units.
type FluidConfig struct {
	Rows      int     `yaml:"rows"`
	Cols      int     `yaml:"cols"`
	CellSize  float64 `yaml:"cell_size"`
	DT        float64 `yaml:"dt"`
	Viscosity float64 `yaml:"viscosity"`
}

// KindConfig holds one particle species' constants.
type KindConfig struct {
	Mass         float64 `yaml:"mass"`
	Radius       float64 `yaml:"radius"`
	GravityCoeff float64 `yaml:"gravity_coeff"`
	MaxSpeed     float64 `yaml:"max_speed"`
	Restitution  float64 `yaml:"restitution"` // wall-bounce energy retention
}

// ParticlesConfig holds particle-system parameters. Particle dt is
// independent of the fluid dt; the two subsystems advance on their own
// time scales.
type ParticlesConfig struct {
	DT         float64    `yaml:"dt"`
	BucketSize float64    `yaml:"bucket_size"` // broad-phase bucket edge
	Sand       KindConfig `yaml:"sand"`
	Dust       KindConfig `yaml:"dust"`
}

// SpawnConfig holds initial particle seeding counts.
type SpawnConfig struct {
	Sand int `yaml:"sand"`
	Dust int `yaml:"dust"`
}

// InputConfig holds force-injection adapter parameters.
type InputConfig struct {
	Radius     float64 `yaml:"radius"`      // injection radius in grid cells
	ForceScale float64 `yaml:"force_scale"` // applied to pointer drag deltas
}

// TurbulenceConfig holds the optional noise-driven background current.
// Strength 0 disables it.
type TurbulenceConfig struct {
	Strength  float64 `yaml:"strength"`
	Scale     float64 `yaml:"scale"`      // noise frequency in cell units
	TimeSpeed float64 `yaml:"time_speed"` // noise animation per tick
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // seconds of sim time per window
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	WorldWidth  float64 // Cols * CellSize
	WorldHeight float64 // Rows * CellSize
	ScreenW32   float32
	ScreenH32   float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate fails fast on values that would corrupt later arithmetic.
// Runtime stepping is total once construction succeeds, so load time is
// where invariants are enforced.
func (c *Config) validate() error {
	if c.Fluid.Rows <= 0 || c.Fluid.Cols <= 0 {
		return fmt.Errorf("config: fluid grid %dx%d must be positive", c.Fluid.Rows, c.Fluid.Cols)
	}
	if c.Fluid.CellSize <= 0 {
		return fmt.Errorf("config: fluid cell_size %v must be positive", c.Fluid.CellSize)
	}
	if c.Particles.BucketSize <= 0 {
		return fmt.Errorf("config: particles bucket_size %v must be positive", c.Particles.BucketSize)
	}
	for _, kind := range []struct {
		name string
		k    KindConfig
	}{{"sand", c.Particles.Sand}, {"dust", c.Particles.Dust}} {
		if kind.k.Mass <= 0 {
			return fmt.Errorf("config: %s mass %v must be positive", kind.name, kind.k.Mass)
		}
		if kind.k.Radius <= 0 {
			return fmt.Errorf("config: %s radius %v must be positive", kind.name, kind.k.Radius)
		}
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.WorldWidth = float64(c.Fluid.Cols) * c.Fluid.CellSize
	c.Derived.WorldHeight = float64(c.Fluid.Rows) * c.Fluid.CellSize
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
