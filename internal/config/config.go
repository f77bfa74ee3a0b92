// internal/config/config.go
//
// This package handles configuration and the .ember directory structure.
// Ember keeps everything under a single .ember/ folder: config, logs,
// state, and the SQLite database.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// EmberDir is the name of the directory we create for the user
	EmberDir = ".ember"

	// StoreBackendMemory keeps everything in process memory.
	StoreBackendMemory = "memory"
	// StoreBackendSQLite persists to .ember/ember.db.
	StoreBackendSQLite = "sqlite"
)

const defaultConfigYAML = `# ember configuration
version: 1

# Storage backend: memory (volatile) or sqlite (persistent).
store:
  backend: sqlite
  # path overrides the default .ember/ember.db location.
  path: ""

defaults:
  user: local
  timezone: UTC
  block_minutes: 25

focus_dock:
  enabled: true
  nudge_level: normal
`

// StoreConfig selects and locates the storage backend.
type StoreConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path,omitempty"`
}

// DefaultsConfig holds user-facing defaults applied when a request does
// not specify them.
type DefaultsConfig struct {
	User         string `yaml:"user"`
	Timezone     string `yaml:"timezone"`
	BlockMinutes int    `yaml:"block_minutes"`
}

// FocusDockConfig configures the dock surface.
type FocusDockConfig struct {
	Enabled    bool   `yaml:"enabled"`
	NudgeLevel string `yaml:"nudge_level"`
}

// FileConfig models .ember/config.yaml.
type FileConfig struct {
	Version   int             `yaml:"version"`
	Store     StoreConfig     `yaml:"store"`
	Defaults  DefaultsConfig  `yaml:"defaults"`
	FocusDock FocusDockConfig `yaml:"focus_dock"`
}

// Config holds the runtime configuration for ember.
type Config struct {
	// BaseDir is the directory that contains the .ember folder. It
	// defaults to the user home directory and can be overridden with
	// the EMBER_HOME environment variable.
	BaseDir string

	// EmberHomeDir is BaseDir/.ember
	EmberHomeDir string

	File FileConfig
}

// InitEmberDir creates the .ember directory structure under baseDir and
// writes the default config file if none exists.
//
// Structure created:
// .ember/
// ├── logs/     <- agent run logs
// └── state/    <- session and dock state
func InitEmberDir(baseDir string) error {
	emberDir := filepath.Join(baseDir, EmberDir)

	dirs := []string{
		filepath.Join(emberDir, "logs"),
		filepath.Join(emberDir, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return ensureConfigFile(filepath.Join(emberDir, "config.yaml"))
}

// ResolveBaseDir picks the ember base directory: EMBER_HOME when set,
// otherwise the user home directory.
func ResolveBaseDir() (string, error) {
	if dir := os.Getenv("EMBER_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return home, nil
}

// NewConfig creates a Config rooted at baseDir, loading config.yaml when
// it exists and falling back to the embedded defaults otherwise.
func NewConfig(baseDir string) (*Config, error) {
	cfg := &Config{
		BaseDir:      baseDir,
		EmberHomeDir: filepath.Join(baseDir, EmberDir),
		File:         defaultFileConfig(),
	}
	if err := cfg.loadFileConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.EmberHomeDir, "logs")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.EmberHomeDir, "state")
}

// ConfigPath returns the on-disk location for the config file.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.EmberHomeDir, "config.yaml")
}

// DBPath returns the SQLite database location, honoring the configured
// override.
func (c *Config) DBPath() string {
	if c.File.Store.Path != "" {
		return c.File.Store.Path
	}
	return filepath.Join(c.EmberHomeDir, "ember.db")
}

// StoreBackend returns the configured backend, defaulting to sqlite.
func (c *Config) StoreBackend() string {
	backend := strings.TrimSpace(c.File.Store.Backend)
	if backend == "" {
		return StoreBackendSQLite
	}
	return backend
}

// DefaultUser returns the user id applied when the CLI runs without an
// explicit user.
func (c *Config) DefaultUser() string {
	if c.File.Defaults.User == "" {
		return "local"
	}
	return c.File.Defaults.User
}

// DefaultBlockMinutes returns the configured default session length.
func (c *Config) DefaultBlockMinutes() int {
	if c.File.Defaults.BlockMinutes <= 0 {
		return 25
	}
	return c.File.Defaults.BlockMinutes
}

// SetStoreBackend updates the backend and persists the config file.
func (c *Config) SetStoreBackend(backend string) error {
	backend = strings.TrimSpace(backend)
	switch backend {
	case StoreBackendMemory, StoreBackendSQLite:
	default:
		return fmt.Errorf("config: unknown store backend %q", backend)
	}
	c.File.Store.Backend = backend
	return c.saveFileConfig()
}

func (c *Config) loadFileConfig() error {
	path := c.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var parsed FileConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.File = mergeFileConfig(c.File, parsed)
	return nil
}

func (c *Config) saveFileConfig() error {
	if err := os.MkdirAll(c.EmberHomeDir, 0755); err != nil {
		return fmt.Errorf("config: ensure %s: %w", c.EmberHomeDir, err)
	}
	data, err := yaml.Marshal(c.File)
	if err != nil {
		return fmt.Errorf("config: marshal config: %w", err)
	}
	if err := os.WriteFile(c.ConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", c.ConfigPath(), err)
	}
	return nil
}

func ensureConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0644); err != nil {
		return fmt.Errorf("config: write default %s: %w", path, err)
	}
	return nil
}

func defaultFileConfig() FileConfig {
	var cfg FileConfig
	// The embedded default YAML is the source of truth for defaults.
	if err := yaml.Unmarshal([]byte(defaultConfigYAML), &cfg); err != nil {
		panic(fmt.Sprintf("config: invalid embedded defaults: %v", err))
	}
	return cfg
}

// mergeFileConfig overlays parsed values on the defaults so a sparse
// config file keeps sane settings.
func mergeFileConfig(base, parsed FileConfig) FileConfig {
	out := base
	if parsed.Version != 0 {
		out.Version = parsed.Version
	}
	if parsed.Store.Backend != "" {
		out.Store.Backend = parsed.Store.Backend
	}
	if parsed.Store.Path != "" {
		out.Store.Path = parsed.Store.Path
	}
	if parsed.Defaults.User != "" {
		out.Defaults.User = parsed.Defaults.User
	}
	if parsed.Defaults.Timezone != "" {
		out.Defaults.Timezone = parsed.Defaults.Timezone
	}
	if parsed.Defaults.BlockMinutes != 0 {
		out.Defaults.BlockMinutes = parsed.Defaults.BlockMinutes
	}
	if parsed.FocusDock.NudgeLevel != "" {
		out.FocusDock = parsed.FocusDock
	}
	return out
}
