package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. NODESTAGE_HTTP_DOWNLOAD_RETRIES.
const EnvPrefix = "NODESTAGE"

// Keys recognised by Overlay. Nested keys use dots; the environment form uses underscores.
const (
	KeyConfigRoot        = "config_root"
	KeyBinRoot           = "bin_root"
	KeyProfileDir        = "profile_dir"
	KeyStagingDir        = "staging_dir"
	KeyDefaultNetwork    = "default_network"
	KeyStatusTimeout     = "http.status_timeout_sec"
	KeyDownloadTimeout   = "http.download_timeout_sec"
	KeyDownloadRetries   = "http.download_retries"
	KeyPlaceholder       = "render.placeholder"
	KeyLegacyBlankLines  = "render.legacy_blank_lines"
	KeyReader            = "reader"
	KeyRequiredUser      = "required_user"
	KeyStatusParallelism = "status_parallelism"
)

// NewViper returns a viper instance reading NODESTAGE_* environment variables.
// Callers may bind command flags to the same keys before calling Overlay.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Overlay copies every key explicitly set in v (environment or changed flag) over cfg.
func Overlay(cfg *Config, v *viper.Viper) {
	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	num := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}

	str(KeyConfigRoot, &cfg.ConfigRoot)
	str(KeyBinRoot, &cfg.BinRoot)
	str(KeyProfileDir, &cfg.ProfileDir)
	str(KeyStagingDir, &cfg.StagingDir)
	str(KeyDefaultNetwork, &cfg.DefaultNetwork)
	num(KeyStatusTimeout, &cfg.HTTP.StatusTimeoutSec)
	num(KeyDownloadTimeout, &cfg.HTTP.DownloadTimeoutSec)
	num(KeyDownloadRetries, &cfg.HTTP.DownloadRetries)
	str(KeyPlaceholder, &cfg.Render.Placeholder)
	if v.IsSet(KeyLegacyBlankLines) {
		cfg.Render.LegacyBlankLines = v.GetBool(KeyLegacyBlankLines)
	}
	str(KeyReader, &cfg.Reader)
	str(KeyRequiredUser, &cfg.RequiredUser)
	num(KeyStatusParallelism, &cfg.StatusParallelism)
}
