// Package config loads the shellglobal TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"

	"github.com/Gaurav-Gosain/shellglobal/internal/inputmode"
	"github.com/Gaurav-Gosain/shellglobal/internal/logging"
	"github.com/Gaurav-Gosain/shellglobal/internal/stage"
)

var logger = logging.New("config")

// AppName is the directory name under the XDG config home.
const AppName = "shellglobal"

// FileName is the configuration file name.
const FileName = "config.toml"

// ErrInvalid is wrapped by Validate errors.
var ErrInvalid = errors.New("invalid configuration")

// Config is the on-disk configuration.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Display DisplayConfig `toml:"display"`
	Stage   StageConfig   `toml:"stage"`
	DnD     DnDConfig     `toml:"dnd"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// DisplayConfig selects the X display and windows.
type DisplayConfig struct {
	Name        string `toml:"name"`         // empty uses $DISPLAY
	StageWindow uint32 `toml:"stage_window"` // 0 creates a stage window
	UseOverlay  bool   `toml:"use_overlay"`  // composite overlay as DND proxy
}

// StageConfig is applied at startup and on every reload.
type StageConfig struct {
	InitialMode inputmode.Mode    `toml:"initial_mode"`
	Regions     []stage.Rectangle `toml:"regions"`
}

// DnDConfig controls the XDND status replies.
type DnDConfig struct {
	AcceptDrops bool `toml:"accept_drops"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Display: DisplayConfig{
			UseOverlay: true,
		},
		Stage: StageConfig{
			// No region is configured, so Normal would absorb all input.
			InitialMode: inputmode.Nonreactive,
		},
		DnD: DnDConfig{AcceptDrops: true},
	}
}

// GetConfigPath returns the configuration file path under the XDG config
// home, creating its directory.
func GetConfigPath() (string, error) {
	return xdg.ConfigFile(filepath.Join(AppName, FileName))
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("no config file, using defaults", "path", path)
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadUserConfig loads the file at GetConfigPath.
func LoadUserConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	return Load(path)
}

// Save writes cfg to path, creating parent directories.
func Save(path string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks values the TOML decoder cannot.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}
	for i, r := range c.Stage.Regions {
		if r.Width < 0 || r.Height < 0 {
			return fmt.Errorf("%w: stage.regions[%d] has negative size", ErrInvalid, i)
		}
		if r.X < -32768 || r.X > 32767 || r.Y < -32768 || r.Y > 32767 ||
			r.Width > 65535 || r.Height > 65535 {
			return fmt.Errorf("%w: stage.regions[%d] out of range", ErrInvalid, i)
		}
	}
	return nil
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
