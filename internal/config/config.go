// Package config loads the viewer settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	log "github.com/sirupsen/logrus"

	"github.com/kyaoi/layerview/internal/render"
)

// DefaultPath is where the config file is looked up when none is given.
const DefaultPath = "~/.config/layerview/config.toml"

// Config contains the user settings. Zero values are replaced by defaults.
type Config struct {
	PanelWidth int    `toml:"panel_width"`
	Background string `toml:"background"`
	Filter     string `toml:"filter"`
	LogFile    string `toml:"log_file"`
	LogLevel   string `toml:"log_level"`
	Watch      *bool  `toml:"watch"`
}

// Default returns the built-in settings.
func Default() Config {
	watch := true
	return Config{
		PanelWidth: 32,
		Background: "checker",
		Filter:     "none",
		LogFile:    "~/.cache/layerview/layerview.log",
		LogLevel:   "info",
		Watch:      &watch,
	}
}

// Load reads the config at path. A missing file at the default path yields
// the defaults; a missing explicit path is an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return Default(), nil
		}
		return Config{}, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", expanded, err)
	}
	cfg.fill()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", expanded, err)
	}
	log.WithField("path", expanded).Debug("loaded config")
	return cfg, nil
}

func (c *Config) fill() {
	def := Default()
	if c.PanelWidth <= 0 {
		c.PanelWidth = def.PanelWidth
	}
	if c.Background == "" {
		c.Background = def.Background
	}
	if c.Filter == "" {
		c.Filter = def.Filter
	}
	if c.LogFile == "" {
		c.LogFile = def.LogFile
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Watch == nil {
		c.Watch = def.Watch
	}
}

// Validate checks the values that are parsed later.
func (c Config) Validate() error {
	if _, err := render.ParseBackground(c.Background); err != nil {
		return err
	}
	if _, err := render.ParseFilter(c.Filter); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Watching reports whether the opened document should be reloaded on change.
func (c Config) Watching() bool {
	return c.Watch == nil || *c.Watch
}

// LogPath returns the expanded log file path and makes sure its directory
// exists.
func (c Config) LogPath() (string, error) {
	path, err := homedir.Expand(c.LogFile)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	return path, nil
}
