package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}

	if cfg.Sim.SimResolution != 128 {
		t.Errorf("sim_resolution = %d, want 128", cfg.Sim.SimResolution)
	}
	if cfg.Sim.DyeResolution != 1024 {
		t.Errorf("dye_resolution = %d, want 1024", cfg.Sim.DyeResolution)
	}
	if cfg.Sim.PressureIterations != 20 {
		t.Errorf("pressure_iterations = %d, want 20", cfg.Sim.PressureIterations)
	}
	if cfg.Sim.Pressure != 0.8 {
		t.Errorf("pressure = %v, want 0.8", cfg.Sim.Pressure)
	}
	if !cfg.Bloom.Enabled || !cfg.Sunrays.Enabled {
		t.Error("bloom and sunrays should default to enabled")
	}
	if cfg.Display.Transparent {
		t.Error("transparent should default to false")
	}
	if cfg.Input.ColorUpdateSpeed != 10 {
		t.Errorf("color_update_speed = %v, want 10", cfg.Input.ColorUpdateSpeed)
	}
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("sim:\n  sim_resolution: 256\n  curl: 15\ndisplay:\n  transparent: true\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	// Overridden keys
	if cfg.Sim.SimResolution != 256 {
		t.Errorf("sim_resolution = %d, want 256", cfg.Sim.SimResolution)
	}
	if cfg.Sim.Curl != 15 {
		t.Errorf("curl = %v, want 15", cfg.Sim.Curl)
	}
	if !cfg.Display.Transparent {
		t.Error("transparent should be overridden to true")
	}

	// Untouched keys keep defaults
	if cfg.Sim.DyeResolution != 1024 {
		t.Errorf("dye_resolution = %d, want default 1024", cfg.Sim.DyeResolution)
	}
	if cfg.Splat.Force != 6000 {
		t.Errorf("splat force = %v, want default 6000", cfg.Splat.Force)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sim resolution", func(c *Config) { c.Sim.SimResolution = 0 }},
		{"negative dye resolution", func(c *Config) { c.Sim.DyeResolution = -1 }},
		{"zero pressure iterations", func(c *Config) { c.Sim.PressureIterations = 0 }},
		{"pressure above one", func(c *Config) { c.Sim.Pressure = 1.5 }},
		{"negative pressure", func(c *Config) { c.Sim.Pressure = -0.1 }},
		{"zero bloom iterations", func(c *Config) { c.Bloom.Iterations = 0 }},
		{"zero sunrays resolution", func(c *Config) { c.Sunrays.Resolution = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			if err := cfg.validate(); err == nil {
				t.Error("validate() = nil, want error")
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Sim.Curl = 42

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load written file: %v", err)
	}
	if loaded.Sim.Curl != 42 {
		t.Errorf("curl = %v after round trip, want 42", loaded.Sim.Curl)
	}
}
