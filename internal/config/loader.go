package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tacogips/nodestage/internal/stage/reader"
)

// Loader defines the interface for loading configuration files.
type Loader interface {
	// Load loads configuration from the specified file path.
	Load(path string) (*Config, error)
	// LoadOrDefault loads configuration or returns defaults if file doesn't exist.
	LoadOrDefault(path string) (*Config, error)
	// Validate validates the configuration.
	Validate(config *Config) error
}

// FileLoader implements the Loader interface for file-based configuration loading.
type FileLoader struct{}

// NewLoader creates a new FileLoader instance.
func NewLoader() Loader {
	return &FileLoader{}
}

// Load loads configuration from the specified file path.
// Fields absent from the file keep their default values.
func (l *FileLoader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewConfigErrorWithCause(ConfigNotFound, path, "configuration file not found", err)
		}
		return nil, NewConfigErrorWithCause(ConfigInvalid, path, "failed to read configuration file", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, NewConfigErrorWithCause(ConfigInvalid, path, "invalid JSON syntax", err)
	}

	mergeConfig(cfg, DefaultConfig())

	return cfg, nil
}

// LoadOrDefault loads configuration or returns defaults if file doesn't exist.
func (l *FileLoader) LoadOrDefault(path string) (*Config, error) {
	cfg, err := l.Load(path)
	if err != nil {
		if cfgErr, ok := err.(*ConfigError); ok && cfgErr.Type == ConfigNotFound {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration.
func (l *FileLoader) Validate(config *Config) error {
	if !filepath.IsAbs(config.ConfigRoot) {
		return NewConfigErrorWithField(ConfigValidationFailed, "", "config_root", "config root must be an absolute path")
	}
	if !filepath.IsAbs(config.BinRoot) {
		return NewConfigErrorWithField(ConfigValidationFailed, "", "bin_root", "bin root must be an absolute path")
	}
	if config.HTTP.StatusTimeoutSec < 0 {
		return NewConfigErrorWithField(ConfigValidationFailed, "", "http.status_timeout_sec", "timeout cannot be negative")
	}
	if config.HTTP.DownloadTimeoutSec < 0 {
		return NewConfigErrorWithField(ConfigValidationFailed, "", "http.download_timeout_sec", "timeout cannot be negative")
	}
	if config.HTTP.DownloadRetries < 0 {
		return NewConfigErrorWithField(ConfigValidationFailed, "", "http.download_retries", "retries cannot be negative")
	}
	switch reader.Kind(config.Reader) {
	case reader.KindLine, reader.KindTOML:
	default:
		return NewConfigErrorWithField(ConfigValidationFailed, "", "reader",
			fmt.Sprintf("unknown reader %q (expected line or toml)", config.Reader))
	}
	if config.StatusParallelism < 1 {
		return NewConfigErrorWithField(ConfigValidationFailed, "", "status_parallelism", "parallelism must be at least 1")
	}
	return nil
}

// Validate validates the global configuration.
func Validate(config *Config) error {
	return NewLoader().Validate(config)
}

// StatusTimeout returns the catalog request timeout.
func (c *Config) StatusTimeout() time.Duration {
	return time.Duration(c.HTTP.StatusTimeoutSec) * time.Second
}

// DownloadTimeout returns the per-attempt archive download timeout (0 = unbounded).
func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.HTTP.DownloadTimeoutSec) * time.Second
}

// mergeConfig restores defaults for fields that cannot be meaningfully empty.
func mergeConfig(cfg, defaults *Config) {
	if cfg.ConfigRoot == "" {
		cfg.ConfigRoot = defaults.ConfigRoot
	}
	if cfg.BinRoot == "" {
		cfg.BinRoot = defaults.BinRoot
	}
	if cfg.ProfileDir == "" {
		cfg.ProfileDir = defaults.ProfileDir
	}
	if cfg.StagingDir == "" {
		cfg.StagingDir = defaults.StagingDir
	}
	if cfg.Render.Placeholder == "" {
		cfg.Render.Placeholder = defaults.Render.Placeholder
	}
	if cfg.Reader == "" {
		cfg.Reader = defaults.Reader
	}
	if cfg.StatusParallelism == 0 {
		cfg.StatusParallelism = defaults.StatusParallelism
	}
}

// ExpandPath expands ~ to home directory and resolves relative paths.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	// Expand ~ to home directory
	if len(path) > 0 && path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		if len(path) == 1 {
			return homeDir, nil
		}
		if path[1] == filepath.Separator {
			return filepath.Join(homeDir, path[2:]), nil
		}
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	return absPath, nil
}
