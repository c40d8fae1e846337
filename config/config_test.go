package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected embedded defaults to load, got %v", err)
	}

	if cfg.Fluid.GridSize != 256 {
		t.Errorf("expected grid size 256, got %d", cfg.Fluid.GridSize)
	}
	if cfg.Fluid.TileSize != 8 {
		t.Errorf("expected tile size 8, got %d", cfg.Fluid.TileSize)
	}
	if cfg.Derived.TilesPerSide != 32 {
		t.Errorf("expected 32 tiles per side, got %d", cfg.Derived.TilesPerSide)
	}
	if cfg.Derived.DT32 <= 0.0166 || cfg.Derived.DT32 >= 0.0167 {
		t.Errorf("expected dt ~1/60, got %v", cfg.Derived.DT32)
	}
}

func TestLoadOverlayOnlyOverwritesPresentKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "override.yaml")
	data := []byte("fluid:\n  jacobi_iterations: 40\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Fluid.JacobiIterations != 40 {
		t.Errorf("expected 40 iterations, got %d", cfg.Fluid.JacobiIterations)
	}
	if cfg.Fluid.GridSize != 256 {
		t.Errorf("expected default grid size to survive overlay, got %d", cfg.Fluid.GridSize)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"tile mismatch", func(c *Config) { c.Fluid.GridSize = 100; c.Fluid.TileSize = 8 }},
		{"zero tile", func(c *Config) { c.Fluid.TileSize = 0 }},
		{"zero grid", func(c *Config) { c.Fluid.GridSize = 0 }},
		{"viscosity one", func(c *Config) { c.Fluid.Viscosity = 1.0 }},
		{"retention above one", func(c *Config) { c.Fluid.PressureRetention = 1.5 }},
		{"no iterations", func(c *Config) { c.Fluid.JacobiIterations = 0 }},
		{"no bands", func(c *Config) { c.Render.Bands = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Defaults()
	cfg.Wake.ForceMultiplier = 0.3

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Wake.ForceMultiplier != 0.3 {
		t.Errorf("expected force multiplier 0.3, got %v", loaded.Wake.ForceMultiplier)
	}
}

func TestRefreshRecomputesDerived(t *testing.T) {
	cfg := Defaults()
	cfg.Fluid.GridSize = 64
	if err := cfg.Refresh(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Derived.TilesPerSide != 8 {
		t.Errorf("expected 8 tiles per side, got %d", cfg.Derived.TilesPerSide)
	}

	cfg.Fluid.GridSize = 60
	if err := cfg.Refresh(); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}
