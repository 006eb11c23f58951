package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	data := []byte("seed: 99\nchunk_width: 32\ntracer: bresenham\nlight_intensity: 0.5\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, int64(99), cfg.Seed)
	require.Equal(t, 32, cfg.ChunkWidth)
	require.Equal(t, "bresenham", cfg.Tracer)
	require.Equal(t, float32(0.5), cfg.LightIntensity)

	// Unset fields keep their defaults.
	require.Equal(t, "simplex", cfg.NoiseKind)
	require.Equal(t, "heightmap", cfg.GenMode)
	require.Equal(t, 1, cfg.GenBudget)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: [oops"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.ChunkWidth = 12
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.GenBudget = 0
	require.Error(t, cfg.Validate())
}

func TestMergeKeepsExplicitFlags(t *testing.T) {
	flags := DefaultConfig()
	flags.Seed = 7
	flags.ChunkWidth = 8

	fromFile := DefaultConfig()
	fromFile.Seed = 100
	fromFile.ChunkWidth = 64
	fromFile.NoiseKind = "perlin"
	fromFile.GenMode = "density"

	Merge(flags, fromFile, map[string]bool{"seed": true})

	// Explicit flag wins, file fills the rest.
	require.Equal(t, int64(7), flags.Seed)
	require.Equal(t, 64, flags.ChunkWidth)
	require.Equal(t, "perlin", flags.NoiseKind)
	require.Equal(t, "density", flags.GenMode)
}
