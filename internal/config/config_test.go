package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateClamps(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		check  func(*testing.T, *Config)
	}{
		{
			name:   "crop above style size",
			mutate: func(c *Config) { c.StyleSize = 256; c.CropSize = 512 },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 256, c.CropSize)
			},
		},
		{
			name:   "non-positive scale",
			mutate: func(c *Config) { c.ContentScale = 0 },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 1.0, c.ContentScale)
			},
		},
		{
			name:   "alpha out of range",
			mutate: func(c *Config) { c.Alpha = 1.5 },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 1.0, c.Alpha)
			},
		},
		{
			name:   "negative random interval",
			mutate: func(c *Config) { c.RandomEvery = -3 },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 0, c.RandomEvery)
			},
		},
		{
			name:   "fps below one",
			mutate: func(c *Config) { c.VideoFPS = 0 },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 10.0, c.VideoFPS)
			},
		},
		{
			name:   "empty codec and device",
			mutate: func(c *Config) { c.Codec = ""; c.ComputeDevice = "" },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "XVID", c.Codec)
				assert.Equal(t, "cpu", c.ComputeDevice)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			require.NoError(t, cfg.Validate())
			tt.check(t, cfg)
		})
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := DefaultConfig()
	cfg.StyleDir = "/styles"
	cfg.Interpolate = true
	cfg.RandomEvery = 30
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
