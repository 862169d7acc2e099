package config

import (
	"os"
	"path/filepath"

	"github.com/tacogips/nodestage/internal/stage/model"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ConfigRoot: "/etc/casper",
		BinRoot:    "/var/lib/casper/bin",
		ProfileDir: "/etc/casper/network_configs",
		StagingDir: filepath.Join(os.TempDir(), "nodestage"),
		HTTP: HTTPConfig{
			StatusTimeoutSec:   10,
			DownloadTimeoutSec: 0,
			DownloadRetries:    2,
		},
		Render: RenderConfig{
			Placeholder:      model.DefaultAddressPlaceholder,
			LegacyBlankLines: false,
		},
		Reader:            "line",
		RequiredUser:      "root",
		StatusParallelism: 4,
	}
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "nodestage", "config.json")
}
