package app

import (
	"fmt"

	"github.com/tacogips/nodestage/internal/stage/model"
)

// UnstageOptions holds options for removing one version.
type UnstageOptions struct {
	Services Services
	Version  model.ProtocolVersion
}

// UnstageResult lists the removed directories.
type UnstageResult struct {
	Version model.ProtocolVersion `json:"version" yaml:"version"`
	Removed []string              `json:"removed" yaml:"removed"`
}

// UnstageProtocol deletes the config and bin directories of a version.
func UnstageProtocol(opts UnstageOptions) (*UnstageResult, error) {
	svc := opts.Services
	if err := svc.verify(); err != nil {
		return nil, err
	}
	if err := opts.Version.Validate(); err != nil {
		return nil, NewValidationError("invalid protocol version", err)
	}

	removed, err := svc.Installer.Unstage(opts.Version)
	if err != nil {
		return &UnstageResult{Version: opts.Version, Removed: removed},
			NewAppError(UnstageFailed, fmt.Sprintf("failed to unstage %s", opts.Version), err)
	}
	svc.Log.Info().Str("version", string(opts.Version)).Int("removed", len(removed)).Msg("version unstaged")
	return &UnstageResult{Version: opts.Version, Removed: removed}, nil
}
