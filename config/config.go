// Package config handles mira.toml runtime configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents a mira.toml runtime configuration.
type Config struct {
	Scheduler Scheduler `toml:"scheduler"`
	Store     Store     `toml:"store"`
	Settings  Settings  `toml:"settings"`
	Log       Log       `toml:"log"`

	// Dir is the directory containing the mira.toml file (set at load time).
	Dir string `toml:"-"`
}

// Scheduler configures the task-queue layer.
type Scheduler struct {
	WaitPollMs int `toml:"wait_poll_ms"`
}

// Store selects and locates the document store backend.
type Store struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// Settings configures the settings manager.
type Settings struct {
	AutosaveDelayMs int    `toml:"autosave_delay_ms"`
	Schema          string `toml:"schema"` // optional CUE schema file
}

// Log configures logging output.
type Log struct {
	Verbosity int `toml:"verbosity"`
}

// Default returns the configuration used when no mira.toml exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Scheduler.WaitPollMs <= 0 {
		c.Scheduler.WaitPollMs = 10
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "bolt"
	}
	if c.Store.Path == "" {
		c.Store.Path = "mira.db"
	}
	if c.Settings.AutosaveDelayMs <= 0 {
		c.Settings.AutosaveDelayMs = 500
	}
}

// Load parses a mira.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "mira.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	c.applyDefaults()
	return &c, nil
}

// FindAndLoad walks up from startDir to find a mira.toml file, then loads
// and returns the configuration. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "mira.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// WaitPoll returns the scheduler wait poll interval as a duration.
func (c *Config) WaitPoll() time.Duration {
	return time.Duration(c.Scheduler.WaitPollMs) * time.Millisecond
}

// AutosaveDelay returns the settings autosave debounce as a duration.
func (c *Config) AutosaveDelay() time.Duration {
	return time.Duration(c.Settings.AutosaveDelayMs) * time.Millisecond
}

// StorePath returns the absolute path of the store file.
func (c *Config) StorePath() string {
	if filepath.IsAbs(c.Store.Path) || c.Dir == "" {
		return c.Store.Path
	}
	return filepath.Join(c.Dir, c.Store.Path)
}

// SchemaPath returns the absolute path of the settings schema file, or ""
// when none is configured.
func (c *Config) SchemaPath() string {
	if c.Settings.Schema == "" || filepath.IsAbs(c.Settings.Schema) || c.Dir == "" {
		return c.Settings.Schema
	}
	return filepath.Join(c.Dir, c.Settings.Schema)
}
