// Package config loads suboverlay.yaml. A missing file yields defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultFile = "suboverlay.yaml"

	// StateDirEnv overrides the directory holding the persisted timeline.
	StateDirEnv = "SUBOVERLAY_STATE_DIR"

	xdgStateHomeEnv = "XDG_STATE_HOME"
	appName         = "suboverlay"
	stateFile       = "state.json"
)

const (
	defaultPollInterval = 50 * time.Millisecond
	defaultXOffset      = 40
	defaultYOffset      = 45
	defaultWidth        = 640
	defaultHeight       = 340
	defaultProvider     = "gemini"
	defaultConcurrency  = 3
	defaultBatchSize    = 50
)

type Config struct {
	// where the timeline and cursor are persisted
	StorePath string `yaml:"store_path"`

	PollInterval time.Duration `yaml:"poll_interval"`

	Anchor struct {
		XOffset float64 `yaml:"x_offset"`
		YOffset float64 `yaml:"y_offset"`
	} `yaml:"anchor"`

	// fallback overlay size when no video is probed
	Video struct {
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"video"`

	Translate struct {
		Provider    string `yaml:"provider"`
		Model       string `yaml:"model"`
		Concurrency int    `yaml:"concurrency"`
		BatchSize   int    `yaml:"batch_size"`
	} `yaml:"translate"`

	path string
}

func Default() *Config {
	c := &Config{}
	c.PollInterval = defaultPollInterval
	c.Anchor.XOffset = defaultXOffset
	c.Anchor.YOffset = defaultYOffset
	c.Video.Width = defaultWidth
	c.Video.Height = defaultHeight
	c.Translate.Provider = defaultProvider
	c.Translate.Concurrency = defaultConcurrency
	c.Translate.BatchSize = defaultBatchSize
	return c
}

// Load reads path over the defaults. Fields absent from the file keep
// their default values.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFile
	}

	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path is the file the config was loaded from, which may not exist.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) normalize() error {
	c.StorePath = strings.TrimSpace(c.StorePath)
	if c.StorePath == "" {
		p, err := DefaultStorePath()
		if err != nil {
			return err
		}
		c.StorePath = p
	}
	c.StorePath = filepath.Clean(c.StorePath)

	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		c.Video.Width = defaultWidth
		c.Video.Height = defaultHeight
	}

	c.Translate.Provider = strings.TrimSpace(strings.ToLower(c.Translate.Provider))
	if c.Translate.Provider == "" {
		c.Translate.Provider = defaultProvider
	}
	c.Translate.Model = strings.TrimSpace(c.Translate.Model)
	if c.Translate.Concurrency <= 0 {
		c.Translate.Concurrency = defaultConcurrency
	}
	if c.Translate.BatchSize <= 0 {
		c.Translate.BatchSize = defaultBatchSize
	}
	return nil
}

// StateDir returns the directory for persisted state.
// Resolution order:
//  1. SUBOVERLAY_STATE_DIR (if set)
//  2. XDG_STATE_HOME/suboverlay (if XDG_STATE_HOME is set)
//  3. os.UserConfigDir()/suboverlay
func StateDir() (string, error) {
	if override := strings.TrimSpace(os.Getenv(StateDirEnv)); override != "" {
		return filepath.Clean(override), nil
	}

	if xdg := strings.TrimSpace(os.Getenv(xdgStateHomeEnv)); xdg != "" {
		return filepath.Join(filepath.Clean(xdg), appName), nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user config directory: %w", err)
	}
	return filepath.Join(configDir, appName), nil
}

func DefaultStorePath() (string, error) {
	dir, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, stateFile), nil
}
