// Package config holds the engine configuration, loadable from a YAML file
// with CLI flag overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the world engine configuration.
type Config struct {
	MetricsAddr string `yaml:"metrics_addr"` // empty disables the endpoint

	Seed       int64  `yaml:"seed"`
	ChunkWidth int    `yaml:"chunk_width"`
	ViewRadius int    `yaml:"view_radius"` // in chunks, around the viewer
	NoiseKind  string `yaml:"noise_kind"`  // "simplex", "perlin" or "ridged"
	GenMode    string `yaml:"gen_mode"`    // "heightmap" or "density"

	Tracer         string     `yaml:"tracer"` // "bresenham" or "dda"
	LightDirection [3]float32 `yaml:"light_direction"`
	LightIntensity float32    `yaml:"light_intensity"`
	Ambient        float32    `yaml:"ambient"`

	GenBudget int `yaml:"gen_budget"` // chunks generated per tick
	Workers   int `yaml:"workers"`    // 0 = NumCPU

	SaveDir string `yaml:"save_dir"` // empty disables persistence
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MetricsAddr:    ":9190",
		ChunkWidth:     16,
		ViewRadius:     4,
		NoiseKind:      "simplex",
		GenMode:        "heightmap",
		Tracer:         "dda",
		LightDirection: [3]float32{-0.4, -1, -0.2},
		LightIntensity: 0.8,
		Ambient:        0.05,
		GenBudget:      1,
	}
}

// Load reads a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks cross-field constraints not expressible in the schema.
func (c *Config) Validate() error {
	if c.ChunkWidth < 2 || c.ChunkWidth&(c.ChunkWidth-1) != 0 {
		return fmt.Errorf("chunk_width %d must be a power of two >= 2", c.ChunkWidth)
	}
	if c.ViewRadius < 0 {
		return fmt.Errorf("view_radius %d must not be negative", c.ViewRadius)
	}
	if c.GenBudget < 1 {
		return fmt.Errorf("gen_budget %d must be at least 1", c.GenBudget)
	}
	return nil
}

// Merge applies file-loaded config values into cfg, but only for fields
// that were NOT explicitly set via CLI flags. explicitFlags contains the
// flag names that were explicitly provided on the command line.
func Merge(cfg *Config, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["metrics-addr"] {
		cfg.MetricsAddr = fromFile.MetricsAddr
	}
	if !explicitFlags["seed"] {
		cfg.Seed = fromFile.Seed
	}
	if !explicitFlags["chunk-width"] {
		cfg.ChunkWidth = fromFile.ChunkWidth
	}
	if !explicitFlags["view-radius"] {
		cfg.ViewRadius = fromFile.ViewRadius
	}
	if !explicitFlags["noise"] {
		cfg.NoiseKind = fromFile.NoiseKind
	}
	if !explicitFlags["gen-mode"] {
		cfg.GenMode = fromFile.GenMode
	}
	if !explicitFlags["tracer"] {
		cfg.Tracer = fromFile.Tracer
	}
	if !explicitFlags["gen-budget"] {
		cfg.GenBudget = fromFile.GenBudget
	}
	if !explicitFlags["workers"] {
		cfg.Workers = fromFile.Workers
	}
	if !explicitFlags["save-dir"] {
		cfg.SaveDir = fromFile.SaveDir
	}
	cfg.LightDirection = fromFile.LightDirection
	cfg.LightIntensity = fromFile.LightIntensity
	cfg.Ambient = fromFile.Ambient
}
