package model

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/coreos/go-semver/semver"
)

// File and endpoint names shared by the staging components.
const (
	// ChainspecFile is the chainspec file name inside a version's config directory.
	ChainspecFile = "chainspec.toml"
	// ConfigFile is the deployable configuration file name.
	ConfigFile = "config.toml"
	// ExampleConfigFile is the configuration template shipped with each version.
	ExampleConfigFile = "config-example.toml"
	// NewFileSuffix is appended to a config path when the target already exists.
	NewFileSuffix = ".new"
	// ProtocolVersionsEndpoint is the catalog listing path below a network.
	ProtocolVersionsEndpoint = "protocol_versions"
	// DefaultAddressPlaceholder is the token replaced by the node's public address.
	DefaultAddressPlaceholder = "<IP ADDRESS>"
)

// ArchiveKind identifies one of the two per-version archives.
type ArchiveKind string

const (
	// ArchiveConfig is the configuration tree archive.
	ArchiveConfig ArchiveKind = "config"
	// ArchiveBin is the binary tree archive.
	ArchiveBin ArchiveKind = "bin"
)

// FileName returns the remote archive file name.
func (k ArchiveKind) FileName() string {
	return string(k) + ".tar.gz"
}

// ProtocolVersion is an opaque version token as issued by the remote catalog, e.g. "1_0_0".
// Ordering is always catalog order.
type ProtocolVersion string

// String returns the raw token.
func (v ProtocolVersion) String() string {
	return string(v)
}

// Semver converts an underscore separated token into a semantic version.
// Used for display and consistency warnings only.
func (v ProtocolVersion) Semver() (*semver.Version, error) {
	dotted := strings.ReplaceAll(string(v), "_", ".")
	sv, err := semver.NewVersion(dotted)
	if err != nil {
		return nil, fmt.Errorf("protocol version %q is not semver shaped: %w", v, err)
	}
	return sv, nil
}

// Validate rejects tokens that could escape the configured roots.
func (v ProtocolVersion) Validate() error {
	s := string(v)
	if s == "" {
		return fmt.Errorf("protocol version cannot be empty")
	}
	if strings.ContainsAny(s, `/\`) || s == "." || s == ".." {
		return fmt.Errorf("invalid protocol version token: %q", s)
	}
	return nil
}

// NetworkProfile scopes every remote operation of one invocation.
type NetworkProfile struct {
	// SourceURL is the base URL of the artifact host.
	SourceURL string `json:"source_url" yaml:"source_url" validate:"required,url"`
	// NetworkName is the network path segment and the expected chainspec name.
	NetworkName string `json:"network_name" yaml:"network_name" validate:"required,excludesall=/\\ "`
}

// ChainspecDescriptor is the identity a staged version claims in its chainspec.
type ChainspecDescriptor struct {
	NetworkName     string
	ProtocolVersion string
}

// Layout resolves on-disk locations for protocol versions.
type Layout struct {
	// ConfigRoot holds one directory per version with chainspec and config files.
	ConfigRoot string
	// BinRoot holds one directory per version with the node executable.
	BinRoot string
}

// ConfigDir returns the configuration directory of a version.
func (l Layout) ConfigDir(v ProtocolVersion) string {
	return filepath.Join(l.ConfigRoot, string(v))
}

// BinDir returns the binary directory of a version.
func (l Layout) BinDir(v ProtocolVersion) string {
	return filepath.Join(l.BinRoot, string(v))
}

// ConfigFile returns the deployable config path of a version.
func (l Layout) ConfigFile(v ProtocolVersion) string {
	return filepath.Join(l.ConfigDir(v), ConfigFile)
}

// ChainspecFile returns the chainspec path of a version.
func (l Layout) ChainspecFile(v ProtocolVersion) string {
	return filepath.Join(l.ConfigDir(v), ChainspecFile)
}

// ExampleConfigFile returns the config template path of a version.
func (l Layout) ExampleConfigFile(v ProtocolVersion) string {
	return filepath.Join(l.ConfigDir(v), ExampleConfigFile)
}

// TargetDir returns the extraction directory for an archive kind.
func (l Layout) TargetDir(v ProtocolVersion, kind ArchiveKind) string {
	if kind == ArchiveBin {
		return l.BinDir(v)
	}
	return l.ConfigDir(v)
}
