package app

import (
	"context"

	"github.com/tacogips/nodestage/internal/stage/model"
	"github.com/tacogips/nodestage/internal/stage/status"
)

// CheckOptions holds options for a read-only status check.
type CheckOptions struct {
	Session  *Session
	Services Services
	// Parallelism bounds concurrent classification.
	Parallelism int
}

// CheckResult lists every catalog version with its current status.
type CheckResult struct {
	RunID    string          `json:"run_id" yaml:"run_id"`
	Network  string          `json:"network" yaml:"network"`
	Versions []status.Report `json:"versions" yaml:"versions"`
}

// AllStaged reports whether every version is Staged.
func (r *CheckResult) AllStaged() bool {
	for _, v := range r.Versions {
		if v.Status != model.Staged {
			return false
		}
	}
	return true
}

// CheckProtocols classifies every catalog version without touching the filesystem.
func CheckProtocols(ctx context.Context, opts CheckOptions) (*CheckResult, error) {
	s, svc := opts.Session, opts.Services

	versions, err := svc.Catalog.ProtocolVersions(ctx, s.Profile)
	if err != nil {
		return nil, NewCatalogFetchError("failed to fetch protocol versions", err)
	}

	reports, err := svc.Classifier.ClassifyAll(ctx, versions, s.Profile.NetworkName, opts.Parallelism)
	if err != nil {
		return nil, NewAppError(StatusCheckFailed, "failed to classify versions", err)
	}

	svc.Log.Debug().Str("run_id", s.RunID).Int("versions", len(reports)).Msg("status check complete")
	return &CheckResult{RunID: s.RunID, Network: s.Profile.NetworkName, Versions: reports}, nil
}

// ListVersions returns the catalog for the session's network in catalog order.
func ListVersions(ctx context.Context, s *Session, svc Services) ([]model.ProtocolVersion, error) {
	versions, err := svc.Catalog.ProtocolVersions(ctx, s.Profile)
	if err != nil {
		return nil, NewCatalogFetchError("failed to fetch protocol versions", err)
	}
	return versions, nil
}
