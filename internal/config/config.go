// Package config holds the fully-resolved runtime configuration.
//
// All parsing (flags, optional JSON file) happens in cmd/stylecam; the rest
// of the program receives one immutable Config value through constructors.
package config

import (
	"encoding/json"
	"os"
)

// Config mirrors the command surface of the stylization front end.
// Fields may be loaded from a JSON file and overridden by command-line flags.
type Config struct {
	Debug bool `json:"debug"`

	// Capture
	DeviceIndex   int `json:"device_index"`
	CaptureWidth  int `json:"capture_width"`
	CaptureHeight int `json:"capture_height"`

	// Model
	ModelDir      string `json:"model_dir"`
	ComputeDevice string `json:"compute_device"`

	// Styles
	StyleDir  string `json:"style_dir"`
	StyleSize int    `json:"style_size"`
	CropSize  int    `json:"crop_size"`

	// Stylization parameters
	ContentScale float64 `json:"content_scale"`
	Alpha        float64 `json:"alpha"`
	KeepColors   bool    `json:"keep_colors"`
	Concat       bool    `json:"concat"`
	Interpolate  bool    `json:"interpolate"`
	Noise        bool    `json:"noise"`

	// Reload a random style every N frames; 0 disables.
	RandomEvery int `json:"random_every"`

	// Recording
	VideoOut string  `json:"video_out"`
	VideoFPS float64 `json:"video_fps"`
	Codec    string  `json:"codec"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:         false,
		DeviceIndex:   0,
		ComputeDevice: "cpu",
		StyleSize:     512,
		CropSize:      256,
		ContentScale:  1.0,
		Alpha:         1.0,
		VideoFPS:      10,
		Codec:         "XVID",
	}
}

// Validate clamps values to safe ranges. It never rejects input.
func (c *Config) Validate() error {
	if c.DeviceIndex < 0 {
		c.DeviceIndex = 0
	}
	if c.StyleSize <= 0 {
		c.StyleSize = 512
	}
	if c.CropSize <= 0 {
		c.CropSize = 256
	}
	if c.CropSize > c.StyleSize {
		c.CropSize = c.StyleSize
	}
	if c.ContentScale <= 0 {
		c.ContentScale = 1.0
	}
	if c.Alpha < 0 || c.Alpha > 1 {
		c.Alpha = 1.0
	}
	if c.RandomEvery < 0 {
		c.RandomEvery = 0
	}
	if c.VideoFPS < 1 {
		c.VideoFPS = 10
	}
	if c.Codec == "" {
		c.Codec = "XVID"
	}
	if c.ComputeDevice == "" {
		c.ComputeDevice = "cpu"
	}
	return nil
}

// Load attempts to read configuration from the given JSON file path. If the
// file does not exist it returns DefaultConfig(). On JSON error it returns
// defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return cfg, err
	}
	_ = cfg.Validate()
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
