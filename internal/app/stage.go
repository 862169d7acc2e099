package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/tacogips/nodestage/internal/logging"
	"github.com/tacogips/nodestage/internal/stage/model"
	"github.com/tacogips/nodestage/internal/stage/reader"
)

var validate = validator.New()

// Action is what the orchestrator did for one version.
type Action string

const (
	// ActionNone means the version was already staged.
	ActionNone Action = "none"
	// ActionInstall means artifacts were installed and the config rendered.
	ActionInstall Action = "install"
	// ActionRender means only the config was rendered.
	ActionRender Action = "render"
	// ActionReport means the state needs an operator and was left as found.
	ActionReport Action = "report"
	// ActionFailed means classification itself failed.
	ActionFailed Action = "failed"
	// ActionSkipped means the run was interrupted before reaching the version.
	ActionSkipped Action = "skipped"
)

// VersionOutcome records one version's trip through the orchestrator.
type VersionOutcome struct {
	Version model.ProtocolVersion `json:"version" yaml:"version"`
	Initial model.StagedStatus    `json:"initial" yaml:"initial"`
	Final   model.StagedStatus    `json:"final" yaml:"final"`
	Action  Action                `json:"action" yaml:"action"`
	// ConfigPath is the rendered file, possibly a ".new" sibling.
	ConfigPath string `json:"config_path,omitempty" yaml:"config_path,omitempty"`
	Err        error  `json:"-" yaml:"-"`
	// Error mirrors Err for structured output.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Ok reports whether the version ended fully staged without error.
func (o VersionOutcome) Ok() bool {
	return o.Err == nil && o.Action != ActionSkipped && o.Action != ActionFailed && o.Final == model.Staged
}

// StageResult is the outcome of a staging run.
type StageResult struct {
	RunID       string           `json:"run_id" yaml:"run_id"`
	Network     string           `json:"network" yaml:"network"`
	Versions    []VersionOutcome `json:"versions" yaml:"versions"`
	Interrupted bool             `json:"interrupted" yaml:"interrupted"`
}

// Success reports whether every catalog version ended Staged.
func (r *StageResult) Success() bool {
	if r.Interrupted {
		return false
	}
	for _, v := range r.Versions {
		if !v.Ok() {
			return false
		}
	}
	return true
}

// ByStatus groups the versions that did not end Staged by their final status.
// Versions that could not be classified or were skipped are not included.
func (r *StageResult) ByStatus() map[model.StagedStatus][]model.ProtocolVersion {
	groups := make(map[model.StagedStatus][]model.ProtocolVersion)
	for _, v := range r.Versions {
		if v.Action == ActionSkipped || v.Action == ActionFailed || v.Final == model.Staged {
			continue
		}
		groups[v.Final] = append(groups[v.Final], v.Version)
	}
	return groups
}

// Count returns how many versions took action a.
func (r *StageResult) Count(a Action) int {
	n := 0
	for _, v := range r.Versions {
		if v.Action == a {
			n++
		}
	}
	return n
}

// Err aggregates the per-version errors, or returns nil.
func (r *StageResult) Err() error {
	var result *multierror.Error
	for _, v := range r.Versions {
		if v.Err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", v.Version, v.Err))
		}
	}
	return result.ErrorOrNil()
}

// StageOptions holds options for a staging run.
type StageOptions struct {
	Session  *Session
	Services Services
}

// StageProtocols brings every catalog version to Staged where that can be done safely.
// Per-version failures are recorded in the result; the returned error is reserved for
// failures that stop the run before any version is processed.
func StageProtocols(ctx context.Context, opts StageOptions) (*StageResult, error) {
	s, svc := opts.Session, opts.Services
	log := svc.Log.With().Str("run_id", s.RunID).Str("network", s.Profile.NetworkName).Logger()
	start := time.Now()

	if err := svc.verify(); err != nil {
		return nil, err
	}
	if err := validate.Var(s.Address, "required,ip"); err != nil {
		return nil, NewValidationError(fmt.Sprintf("invalid node address %q", s.Address), err)
	}
	if err := checkRoots(s.Layout); err != nil {
		return nil, err
	}

	overrides, err := reader.LoadOverrides(s.OverridesPath)
	if err != nil {
		return nil, NewAppError(OverridesLoadFailed, "failed to load overrides", err)
	}

	versions, err := svc.Catalog.ProtocolVersions(ctx, s.Profile)
	if err != nil {
		return nil, NewCatalogFetchError("failed to fetch protocol versions", err)
	}
	log.Info().Int("versions", len(versions)).Msg("staging protocol versions")

	result := &StageResult{RunID: s.RunID, Network: s.Profile.NetworkName}
	for i, v := range versions {
		if ctx.Err() != nil {
			log.Warn().Int("remaining", len(versions)-i).Msg("staging interrupted")
			result.Interrupted = true
			for _, rest := range versions[i:] {
				result.Versions = append(result.Versions, VersionOutcome{Version: rest, Action: ActionSkipped})
			}
			break
		}
		outcome := stageVersion(ctx, s, svc, overrides, v, log.With().Str("version", string(v)).Logger())
		if outcome.Err != nil {
			outcome.Error = outcome.Err.Error()
		}
		result.Versions = append(result.Versions, outcome)
	}
	if ctx.Err() != nil && !result.Interrupted {
		log.Warn().Msg("staging interrupted after the last version")
		result.Interrupted = true
	}

	log.Info().
		Int("installed", result.Count(ActionInstall)).
		Int("rendered", result.Count(ActionRender)).
		Bool("success", result.Success()).
		Msg("staging finished")
	logging.Elapsed(log, "stage", start)
	return result, nil
}

func stageVersion(ctx context.Context, s *Session, svc Services, overrides model.OverrideSet, v model.ProtocolVersion, log zerolog.Logger) VersionOutcome {
	out := VersionOutcome{Version: v}

	initial, err := svc.Classifier.Classify(v, s.Profile.NetworkName)
	if err != nil {
		log.Error().Err(err).Msg("status check failed")
		out.Action = ActionFailed
		out.Err = NewAppError(StatusCheckFailed, "failed to classify version", err)
		return out
	}
	out.Initial, out.Final = initial, initial
	log.Debug().Stringer("status", initial).Msg("classified")

	switch initial {
	case model.Staged:
		out.Action = ActionNone
		return out
	case model.BinOnly, model.ConfigOnly:
		out.Action = ActionReport
		out.Err = model.NewPreconditionError(s.Layout.ConfigDir(v),
			fmt.Sprintf("version is %s; config and bin directories must be repaired manually", initial))
		log.Warn().Stringer("status", initial).Msg("inconsistent version left untouched")
		return out
	case model.WrongNetwork:
		out.Action = ActionReport
		out.Err = model.NewPreconditionError(s.Layout.ChainspecFile(v),
			fmt.Sprintf("chainspec does not belong to network %q", s.Profile.NetworkName))
		log.Warn().Msg("version staged for another network")
		return out
	case model.Unstaged:
		out.Action = ActionInstall
		// an install that has started runs to completion; cancellation only
		// takes effect between versions
		if err := svc.Installer.Install(context.WithoutCancel(ctx), s.Profile, v); err != nil {
			log.Error().Err(err).Msg("install failed")
			out.Err = err
			out.Final = reclassify(svc, s, v, initial, log)
			return out
		}
		fallthrough
	case model.NoConfig:
		if out.Action == "" {
			out.Action = ActionRender
		}
		written, err := svc.Renderer.RenderVersion(v, s.Address, overrides)
		if err != nil {
			log.Error().Err(err).Msg("config render failed")
			out.Err = NewAppError(RenderFailed, "failed to render config", err)
		}
		out.ConfigPath = written
	}

	out.Final = reclassify(svc, s, v, out.Final, log)
	if out.Err == nil && out.Final != model.Staged {
		out.Err = fmt.Errorf("version ended %s after remediation", out.Final)
	}
	return out
}

// reclassify returns the post-remediation status, falling back to prev when it cannot be read.
func reclassify(svc Services, s *Session, v model.ProtocolVersion, prev model.StagedStatus, log zerolog.Logger) model.StagedStatus {
	st, err := svc.Classifier.Classify(v, s.Profile.NetworkName)
	if err != nil {
		log.Warn().Err(err).Msg("failed to re-check status")
		return prev
	}
	return st
}

func checkRoots(l model.Layout) error {
	for _, root := range []string{l.ConfigRoot, l.BinRoot} {
		info, err := os.Stat(root)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return NewPreconditionError("staging root missing",
					model.NewPreconditionError(root, "directory does not exist"))
			}
			return NewPreconditionError("staging root unreadable", model.NewIOError(root, "failed to stat", err))
		}
		if !info.IsDir() {
			return NewPreconditionError("staging root invalid", model.NewPreconditionError(root, "not a directory"))
		}
	}
	return nil
}
