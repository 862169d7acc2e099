package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tacogips/nodestage/internal/config"
	"github.com/tacogips/nodestage/internal/stage/catalog"
	"github.com/tacogips/nodestage/internal/stage/installer"
	"github.com/tacogips/nodestage/internal/stage/model"
	"github.com/tacogips/nodestage/internal/stage/reader"
	"github.com/tacogips/nodestage/internal/stage/render"
	"github.com/tacogips/nodestage/internal/stage/status"
)

// Installer fetches and unpacks a version's artifacts.
type Installer interface {
	Install(ctx context.Context, profile model.NetworkProfile, version model.ProtocolVersion) error
	Unstage(version model.ProtocolVersion) ([]string, error)
}

// Classifier reports the on-disk status of versions.
type Classifier interface {
	Classify(version model.ProtocolVersion, expectedNetwork string) (model.StagedStatus, error)
	ClassifyAll(ctx context.Context, versions []model.ProtocolVersion, expectedNetwork string, parallelism int) ([]status.Report, error)
}

// Renderer writes a version's config file.
type Renderer interface {
	RenderVersion(version model.ProtocolVersion, address string, overrides model.OverrideSet) (string, error)
}

// Services bundles the collaborators a workflow runs against.
type Services struct {
	Catalog    catalog.Catalog
	Installer  Installer
	Classifier Classifier
	Renderer   Renderer
	Verifier   AccountVerifier
	ReaderKind reader.Kind
	Log        zerolog.Logger
}

// NewServices wires the production collaborators from cfg.
func NewServices(cfg *config.Config, log zerolog.Logger, progress installer.ProgressFunc) Services {
	layout := cfg.Layout()
	kind := reader.Kind(cfg.Reader)

	cat := catalog.NewHTTPCatalog(log)
	cat.Timeout = cfg.StatusTimeout()

	inst := installer.New(installer.Options{
		Layout:          layout,
		StagingDir:      cfg.StagingDir,
		DownloadTimeout: cfg.DownloadTimeout(),
		Retries:         uint64(cfg.HTTP.DownloadRetries),
		Progress:        progress,
	}, log)

	return Services{
		Catalog:    cat,
		Installer:  inst,
		Classifier: status.NewClassifier(layout, kind, log),
		Renderer: render.NewRenderer(layout, render.Options{
			Placeholder:      cfg.Render.Placeholder,
			LegacyBlankLines: cfg.Render.LegacyBlankLines,
		}, log),
		Verifier:   NewUserVerifier(cfg.RequiredUser),
		ReaderKind: kind,
		Log:        log,
	}
}

func (s Services) verify() error {
	if s.Verifier == nil {
		return nil
	}
	return s.Verifier.Verify()
}
