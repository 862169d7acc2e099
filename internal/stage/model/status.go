package model

import "fmt"

// StagedStatus is the on-disk completeness of one protocol version at observation time.
// It is derived on every check and never persisted.
type StagedStatus int

const (
	// Unstaged means neither the config nor the bin directory exists.
	Unstaged StagedStatus = iota
	// BinOnly means the bin directory exists without a config directory.
	BinOnly
	// ConfigOnly means the config directory exists without a bin directory.
	ConfigOnly
	// NoConfig means both directories exist but config.toml has not been generated.
	NoConfig
	// WrongNetwork means the version is complete but its chainspec names another network.
	WrongNetwork
	// Staged means the version is complete and belongs to the expected network.
	Staged
)

var statusNames = [...]string{
	Unstaged:     "Unstaged",
	BinOnly:      "BinOnly",
	ConfigOnly:   "ConfigOnly",
	NoConfig:     "NoConfig",
	WrongNetwork: "WrongNetwork",
	Staged:       "Staged",
}

// AllStatuses lists every status in declaration order.
func AllStatuses() []StagedStatus {
	return []StagedStatus{Unstaged, BinOnly, ConfigOnly, NoConfig, WrongNetwork, Staged}
}

// String returns the status name.
func (s StagedStatus) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("StagedStatus(%d)", int(s))
	}
	return statusNames[s]
}

// IsStaged reports whether no remediation is needed.
func (s StagedStatus) IsStaged() bool {
	return s == Staged
}

// Recoverable reports whether the orchestrator may remediate the status automatically.
func (s StagedStatus) Recoverable() bool {
	return s == Unstaged || s == NoConfig
}

// MarshalText implements encoding.TextMarshaler.
func (s StagedStatus) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(statusNames) {
		return nil, fmt.Errorf("unknown staged status %d", int(s))
	}
	return []byte(statusNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *StagedStatus) UnmarshalText(text []byte) error {
	st, err := ParseStagedStatus(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ParseStagedStatus parses a status name.
func ParseStagedStatus(name string) (StagedStatus, error) {
	for i, n := range statusNames {
		if n == name {
			return StagedStatus(i), nil
		}
	}
	return Unstaged, fmt.Errorf("unknown staged status %q", name)
}
