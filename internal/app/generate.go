package app

import (
	"fmt"

	"github.com/tacogips/nodestage/internal/stage/model"
	"github.com/tacogips/nodestage/internal/stage/reader"
)

// GenerateOptions holds options for rendering one version's config.
type GenerateOptions struct {
	Session  *Session
	Services Services
	Version  model.ProtocolVersion
}

// GenerateResult reports where the config was written.
type GenerateResult struct {
	Version model.ProtocolVersion `json:"version" yaml:"version"`
	Path    string                `json:"path" yaml:"path"`
	// Sibling is true when an existing config forced a ".new" file.
	Sibling bool `json:"sibling" yaml:"sibling"`
}

// GenerateConfig renders the config of an already installed version.
func GenerateConfig(opts GenerateOptions) (*GenerateResult, error) {
	s, svc := opts.Session, opts.Services

	if err := svc.verify(); err != nil {
		return nil, err
	}
	if err := opts.Version.Validate(); err != nil {
		return nil, NewValidationError("invalid protocol version", err)
	}
	if err := validate.Var(s.Address, "required,ip"); err != nil {
		return nil, NewValidationError(fmt.Sprintf("invalid node address %q", s.Address), err)
	}

	overrides, err := reader.LoadOverrides(s.OverridesPath)
	if err != nil {
		return nil, NewAppError(OverridesLoadFailed, "failed to load overrides", err)
	}

	written, err := svc.Renderer.RenderVersion(opts.Version, s.Address, overrides)
	if err != nil {
		return nil, NewAppError(RenderFailed, fmt.Sprintf("failed to render config for %s", opts.Version), err)
	}

	return &GenerateResult{
		Version: opts.Version,
		Path:    written,
		Sibling: written != s.Layout.ConfigFile(opts.Version),
	}, nil
}

// KnownAddresses returns [network] known_addresses from a version's config file.
func KnownAddresses(s *Session, svc Services, version model.ProtocolVersion) ([]string, error) {
	if err := version.Validate(); err != nil {
		return nil, NewValidationError("invalid protocol version", err)
	}
	path := s.Layout.ConfigFile(version)

	r, err := reader.Open(svc.ReaderKind, path)
	if err != nil {
		return nil, err
	}
	raw, ok, err := r.Value("network", "known_addresses")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, model.NewPreconditionError(path, "known_addresses not set in [network]")
	}
	return reader.ParseArray(raw)
}
