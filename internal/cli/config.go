package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/topoviz/topoviz/pkg/pipeline"
)

// =============================================================================
// Config File
// =============================================================================

// Config holds user defaults loaded from ~/.config/topoviz/config.toml.
// Every field is optional; command-line flags override config values.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Render RenderConfig `toml:"render"`
	Serve  ServeConfig  `toml:"serve"`
}

// LayoutConfig mirrors the tunable layout constants.
type LayoutConfig struct {
	Algorithm  string  `toml:"algorithm"`
	Padding    float64 `toml:"padding"`
	LeafRadius float64 `toml:"leaf_radius"`
	CanvasBase float64 `toml:"canvas_base"`
}

// RenderConfig mirrors the render defaults.
type RenderConfig struct {
	Formats        []string `toml:"formats"`
	Labels         bool     `toml:"labels"`
	ViewportWidth  float64  `toml:"viewport_width"`
	ViewportHeight float64  `toml:"viewport_height"`
}

// ServeConfig holds server defaults.
type ServeConfig struct {
	Addr     string `toml:"addr"`
	Redis    string `toml:"redis"`
	MongoURI string `toml:"mongo_uri"`
	MongoDB  string `toml:"mongo_db"`
}

// configPath returns the config file location using XDG standard
// (~/.config/topoviz/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// LoadDefaultConfig reads the user's config file. A missing file is not an
// error and yields an empty config.
func LoadDefaultConfig() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return &Config{}, nil
	}
	return LoadConfig(path)
}

// LoadConfig reads a TOML config file from path.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	return &cfg, nil
}

// Apply copies the config's non-zero values onto pipeline options.
func (c *Config) Apply(opts *pipeline.Options) {
	if c.Layout.Algorithm != "" {
		opts.Algorithm = c.Layout.Algorithm
	}
	if c.Layout.Padding > 0 {
		opts.Padding = c.Layout.Padding
	}
	if c.Layout.LeafRadius > 0 {
		opts.LeafRadius = c.Layout.LeafRadius
	}
	if c.Layout.CanvasBase > 0 {
		opts.CanvasBase = c.Layout.CanvasBase
	}
	if len(c.Render.Formats) > 0 {
		opts.Formats = c.Render.Formats
	}
	if c.Render.Labels {
		opts.Labels = true
	}
	if c.Render.ViewportWidth > 0 {
		opts.ViewportWidth = c.Render.ViewportWidth
	}
	if c.Render.ViewportHeight > 0 {
		opts.ViewportHeight = c.Render.ViewportHeight
	}
}
