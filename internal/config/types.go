package config

import "github.com/tacogips/nodestage/internal/stage/model"

// Config represents the global nodestage configuration.
type Config struct {
	// ConfigRoot holds one config directory per protocol version.
	ConfigRoot string `json:"config_root"`
	// BinRoot holds one binary directory per protocol version.
	BinRoot string `json:"bin_root"`
	// ProfileDir holds the {network}.conf network profiles.
	ProfileDir string `json:"profile_dir"`
	// StagingDir holds transient archives and install locks.
	StagingDir string `json:"staging_dir"`
	// DefaultNetwork is used when --network is not given.
	DefaultNetwork string `json:"default_network"`
	// HTTP configuration for catalog and archive requests.
	HTTP HTTPConfig `json:"http"`
	// Render configuration for config generation.
	Render RenderConfig `json:"render"`
	// Reader selects the chainspec/config reader: "line" or "toml".
	Reader string `json:"reader"`
	// RequiredUser is the account staging must run as (empty = any).
	RequiredUser string `json:"required_user"`
	// StatusParallelism bounds concurrent status checks.
	StatusParallelism int `json:"status_parallelism"`
}

// HTTPConfig represents remote access settings.
type HTTPConfig struct {
	// StatusTimeoutSec bounds catalog requests in seconds.
	StatusTimeoutSec int `json:"status_timeout_sec"`
	// DownloadTimeoutSec bounds one archive download attempt in seconds (0 = unbounded).
	DownloadTimeoutSec int `json:"download_timeout_sec"`
	// DownloadRetries is the number of extra attempts on transient download failures.
	DownloadRetries int `json:"download_retries"`
}

// RenderConfig represents config generation settings.
type RenderConfig struct {
	// Placeholder is the address token in config templates.
	Placeholder string `json:"placeholder"`
	// LegacyBlankLines reproduces the blank line after every overridden-pass line.
	LegacyBlankLines bool `json:"legacy_blank_lines"`
}

// Layout returns the on-disk layout described by the configuration.
func (c *Config) Layout() model.Layout {
	return model.Layout{ConfigRoot: c.ConfigRoot, BinRoot: c.BinRoot}
}
