// Package config handles loader and viewer configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Faultbox/glbloader/pkg/math"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	Loader    LoaderConfig    `yaml:"loader"`
	Templates TemplatesConfig `yaml:"templates"`
	Viewer    ViewerConfig    `yaml:"viewer"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoaderConfig holds build scheduler settings.
type LoaderConfig struct {
	TickBudget              time.Duration `yaml:"tick_budget"`
	FlipAxis                string        `yaml:"flip_axis"`
	RecomputeMissingNormals bool          `yaml:"recompute_missing_normals"`
	// MaxTextureSize downscales larger decoded images; 0 disables.
	MaxTextureSize int `yaml:"max_texture_size"`
}

// TemplatesConfig names the host material templates duplicated per material.
type TemplatesConfig struct {
	Lit              string `yaml:"lit"`
	Unlit            string `yaml:"unlit"`
	UnlitCutout      string `yaml:"unlit_cutout"`
	UnlitTransparent string `yaml:"unlit_transparent"`
	MToon            string `yaml:"mtoon"`
	ShaderMotion     string `yaml:"shader_motion"`
}

// ViewerConfig holds display settings for glbview.
type ViewerConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	// Sun angles in degrees for the viewer's directional light.
	LightAzimuth   float32 `yaml:"light_azimuth"`
	LightElevation float32 `yaml:"light_elevation"`
	ScreenshotDir  string  `yaml:"screenshot_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Loader: LoaderConfig{
			TickBudget:              8 * time.Millisecond,
			FlipAxis:                "x",
			RecomputeMissingNormals: true,
		},
		Templates: TemplatesConfig{
			Lit:              "Standard",
			Unlit:            "Unlit/Texture",
			UnlitCutout:      "Unlit/Transparent Cutout",
			UnlitTransparent: "Unlit/Transparent",
			MToon:            "VRM/MToon",
			ShaderMotion:     "Motion/MeshPlayer",
		},
		Viewer: ViewerConfig{
			Width:          1280,
			Height:         720,
			Fullscreen:     false,
			VSync:          true,
			LightAzimuth:   30,
			LightElevation: 50,
			ScreenshotDir:  "screenshots",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Axis returns the handedness flip axis.
func (c LoaderConfig) Axis() (math.Axis, error) {
	switch strings.ToLower(c.FlipAxis) {
	case "x", "":
		return math.AxisX, nil
	case "y":
		return math.AxisY, nil
	case "z":
		return math.AxisZ, nil
	default:
		return math.AxisX, fmt.Errorf("%w: flip_axis %q", ErrInvalidConfig, c.FlipAxis)
	}
}

// Validate checks values the loader cannot run with.
func (c *Config) Validate() error {
	if c.Loader.TickBudget <= 0 {
		return fmt.Errorf("%w: tick_budget must be positive, got %v", ErrInvalidConfig, c.Loader.TickBudget)
	}
	if c.Loader.MaxTextureSize < 0 {
		return fmt.Errorf("%w: max_texture_size must not be negative, got %d", ErrInvalidConfig, c.Loader.MaxTextureSize)
	}
	if _, err := c.Loader.Axis(); err != nil {
		return err
	}
	if c.Templates.Lit == "" {
		return fmt.Errorf("%w: templates.lit is empty", ErrInvalidConfig)
	}
	if c.Viewer.Width <= 0 || c.Viewer.Height <= 0 {
		return fmt.Errorf("%w: viewer size %dx%d", ErrInvalidConfig, c.Viewer.Width, c.Viewer.Height)
	}
	return nil
}
