// Package config loads the optional player configuration file.
// Command-line flags override file values; everything has a default so
// the file is never required.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the user-editable playback configuration
type Config struct {
	// FrameMs is the render frame target in milliseconds
	FrameMs int `yaml:"frame_ms"`
	// ColorMode selects sequence emission: auto, truecolor, 256
	ColorMode string `yaml:"color_mode"`
	// DefaultBPM applies until the script's first bpm command
	DefaultBPM float64 `yaml:"default_bpm"`
	// StartPrompt is printed before the start keypress
	StartPrompt string `yaml:"start_prompt"`

	Audio AudioConfig `yaml:"audio"`
}

// AudioConfig controls the background track
type AudioConfig struct {
	Enabled bool `yaml:"enabled"`
	// VolumeDb is a base-2 gain exponent; 0 is unity, negative quieter
	VolumeDb float64 `yaml:"volume_db"`
}

// Defaults returns the standard configuration
func Defaults() Config {
	return Config{
		FrameMs:     33,
		ColorMode:   "auto",
		DefaultBPM:  120.0,
		StartPrompt: "Press ENTER to start",
		Audio: AudioConfig{
			Enabled: true,
		},
	}
}

// Load reads a YAML configuration file over the defaults. An empty path
// returns the defaults untouched.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.FrameMs <= 0 {
		return fmt.Errorf("frame_ms must be positive, got %d", c.FrameMs)
	}
	if c.DefaultBPM <= 0 {
		return fmt.Errorf("default_bpm must be positive, got %g", c.DefaultBPM)
	}
	switch c.ColorMode {
	case "auto", "truecolor", "256":
	default:
		return fmt.Errorf("color_mode must be auto, truecolor or 256, got %q", c.ColorMode)
	}
	return nil
}

// FrameInterval returns the frame target as a duration
func (c Config) FrameInterval() time.Duration {
	return time.Duration(c.FrameMs) * time.Millisecond
}
