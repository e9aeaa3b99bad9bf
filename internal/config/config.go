// Package config holds the settings of one conversion run: CLI flags
// layered over an optional TOML file layered over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"avifgun/internal/scheduler"
	"avifgun/internal/transform"
)

// Encoder configures the external tools.
type Encoder struct {
	Path           string   `toml:"path"`
	Args           []string `toml:"args"`
	SimilarityPath string   `toml:"dssim_path"`
}

// Logging configures the slog logger.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// Config is the full run configuration. Input/output selection comes only
// from the command line.
type Config struct {
	InputPath string `toml:"-"`
	OutputDir string `toml:"-"`
	// Recursive selects directory input. Only direct children are
	// converted unless Deep is also set.
	Recursive bool `toml:"-"`
	Deep      bool `toml:"deep"`

	Verbose        bool `toml:"verbose"`
	LiveSimilarity bool `toml:"live_dssim"`
	// Threads is the requested parallelism; 0 means the host CPU count.
	Threads   int  `toml:"threads"`
	HardCap   int  `toml:"hard_cap"`
	NoTUI     bool `toml:"no_tui"`
	RefreshMS int  `toml:"refresh_ms"`

	Encoder Encoder `toml:"encoder"`
	Logging Logging `toml:"logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HardCap:   scheduler.HardCap,
		RefreshMS: 100,
		Encoder: Encoder{
			Path:           "avifenc",
			Args:           append([]string(nil), transform.DefaultEncoderArgs...),
			SimilarityPath: "dssim",
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// RefreshInterval is the progress refresh period.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshMS) * time.Millisecond
}

// DefaultPath is the per-user config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "avifgun", "config.toml"), nil
}

// Load reads path over the defaults. An empty path tries DefaultPath and
// silently falls back to defaults when it does not exist; an explicit path
// must exist. It returns the file actually read, or "".
func Load(path string) (Config, string, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, "", nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, "", nil
		}
		return cfg, "", fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, "", fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, path, nil
}

func (c *Config) normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Encoder.Path = strings.TrimSpace(c.Encoder.Path)
	c.Encoder.SimilarityPath = strings.TrimSpace(c.Encoder.SimilarityPath)
	if c.Encoder.Path == "" {
		c.Encoder.Path = "avifenc"
	}
	if c.Encoder.SimilarityPath == "" {
		c.Encoder.SimilarityPath = "dssim"
	}
	if c.HardCap <= 0 {
		c.HardCap = scheduler.HardCap
	}
	if c.RefreshMS <= 0 {
		c.RefreshMS = 100
	}
}
