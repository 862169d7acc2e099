package cli

import (
	"fmt"
	"net"
	"strings"
)

// Common flag names and descriptions
const (
	// Flag names
	FlagConfig     = "config"
	FlagNetwork    = "network"
	FlagConfigRoot = "config-root"
	FlagBinRoot    = "bin-root"
	FlagProfileDir = "profile-dir"
	FlagIP         = "ip"
	FlagOverrides  = "overrides"
	FlagOutput     = "output"
	FlagYes        = "yes"
	FlagNoProgress = "no-progress"
	FlagNoColor    = "no-color"
	FlagQuiet      = "quiet"
	FlagDebug      = "debug"

	// Flag descriptions
	DescConfig     = "Path to config file"
	DescNetwork    = "Network profile name (default: default_network from config)"
	DescConfigRoot = "Root of per-version config directories"
	DescBinRoot    = "Root of per-version binary directories"
	DescProfileDir = "Directory holding {network}.conf profiles"
	DescIP         = "Public IP address of this node"
	DescOverrides  = "Override file applied when rendering config.toml"
	DescOutput     = "Output format: text, json or yaml"
	DescYes        = "Do not ask for confirmation"
	DescNoProgress = "Disable download progress bars"
	DescNoColor    = "Disable colored output"
	DescQuiet      = "Suppress non-error output"
	DescDebug      = "Enable debug logging"
)

// Output formats
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// ValidateOutputFormat checks an --output value.
func ValidateOutputFormat(format string) error {
	switch strings.ToLower(format) {
	case OutputText, OutputJSON, OutputYAML:
		return nil
	default:
		return fmt.Errorf("invalid output format %q (expected text, json or yaml)", format)
	}
}

// ValidateAddress checks an --ip value.
func ValidateAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("address cannot be empty")
	}
	if net.ParseIP(addr) == nil {
		return fmt.Errorf("invalid IP address: %s", addr)
	}
	return nil
}
