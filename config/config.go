// Package config provides configuration loading and access for the simulator.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulator configuration parameters.
type Config struct {
	Screen      ScreenConfig      `yaml:"screen"`
	Sim         SimConfig         `yaml:"sim"`
	Splat       SplatConfig       `yaml:"splat"`
	Bloom       BloomConfig       `yaml:"bloom"`
	Sunrays     SunraysConfig     `yaml:"sunrays"`
	Display     DisplayConfig     `yaml:"display"`
	Input       InputConfig       `yaml:"input"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
}

// ScreenConfig holds window settings.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	TargetFPS int    `yaml:"target_fps"`
	Title     string `yaml:"title"`
}

// SimConfig holds the solver parameters.
type SimConfig struct {
	SimResolution       int     `yaml:"sim_resolution"`       // minor-axis texels of the velocity/pressure grid
	DyeResolution       int     `yaml:"dye_resolution"`       // minor-axis texels of the dye grid
	DensityDissipation  float32 `yaml:"density_dissipation"`  // dye fade per second
	VelocityDissipation float32 `yaml:"velocity_dissipation"` // velocity fade per second
	Pressure            float32 `yaml:"pressure"`             // warm-start decay of the previous pressure field, [0,1]
	PressureIterations  int     `yaml:"pressure_iterations"`  // Jacobi iterations per step
	Curl                float32 `yaml:"curl"`                 // vorticity confinement strength
	Paused              bool    `yaml:"paused"`
	ForceManualFilter   bool    `yaml:"force_manual_filtering"` // compile advection with in-shader bilinear fetch
}

// SplatConfig holds pointer injection parameters.
type SplatConfig struct {
	Radius float32 `yaml:"radius"` // normalized splat radius
	Force  float32 `yaml:"force"`  // velocity delta multiplier
}

// BloomConfig holds bloom post-effect parameters.
type BloomConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Resolution int     `yaml:"resolution"`
	Iterations int     `yaml:"iterations"`
	Intensity  float32 `yaml:"intensity"`
	Threshold  float32 `yaml:"threshold"`
	SoftKnee   float32 `yaml:"soft_knee"`
	DitherPath string  `yaml:"dither_path"` // PNG used to break banding in the composite; empty = none
}

// SunraysConfig holds the radial light-scattering parameters.
type SunraysConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Resolution int     `yaml:"resolution"`
	Weight     float32 `yaml:"weight"`
}

// DisplayConfig holds compositing settings.
type DisplayConfig struct {
	Shading     bool       `yaml:"shading"`
	Transparent bool       `yaml:"transparent"`
	BackColor   [3]float32 `yaml:"back_color"` // sRGB, used when not transparent
}

// InputConfig holds pointer and landmark input parameters.
type InputConfig struct {
	Colorful         bool    `yaml:"colorful"`
	ColorUpdateSpeed float32 `yaml:"color_update_speed"` // pointer color refresh rate
	LandmarkURL      string  `yaml:"landmark_url"`       // websocket endpoint of the hand detector; empty = disabled
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow int `yaml:"perf_window"` // frames averaged per perf sample
}

// DiagnosticsConfig holds field-readback diagnostics parameters.
// Readback stalls the pipeline; keep the interval large outside experiments.
type DiagnosticsConfig struct {
	Enabled  bool `yaml:"enabled"`
	Interval int  `yaml:"interval"` // frames between divergence-residual readbacks
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

	return cfg, nil
}

// validate rejects values the solver cannot run with.
func (c *Config) validate() error {
	if c.Sim.SimResolution <= 0 {
		return fmt.Errorf("config: sim_resolution must be positive, got %d", c.Sim.SimResolution)
	}
	if c.Sim.DyeResolution <= 0 {
		return fmt.Errorf("config: dye_resolution must be positive, got %d", c.Sim.DyeResolution)
	}
	if c.Sim.PressureIterations <= 0 {
		return fmt.Errorf("config: pressure_iterations must be positive, got %d", c.Sim.PressureIterations)
	}
	if c.Sim.Pressure < 0 || c.Sim.Pressure > 1 {
		return fmt.Errorf("config: pressure must be in [0,1], got %v", c.Sim.Pressure)
	}
	if c.Bloom.Iterations <= 0 {
		return fmt.Errorf("config: bloom iterations must be positive, got %d", c.Bloom.Iterations)
	}
	if c.Bloom.Resolution <= 0 || c.Sunrays.Resolution <= 0 {
		return fmt.Errorf("config: effect resolutions must be positive")
	}
	return nil
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
