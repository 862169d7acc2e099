package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tacogips/nodestage/internal/stage/catalog"
	"github.com/tacogips/nodestage/internal/stage/installer"
	"github.com/tacogips/nodestage/internal/stage/model"
	"github.com/tacogips/nodestage/internal/stage/reader"
	"github.com/tacogips/nodestage/internal/stage/render"
	"github.com/tacogips/nodestage/internal/stage/stagetest"
	"github.com/tacogips/nodestage/internal/stage/status"
)

const testAddress = "203.0.113.5"

type fixture struct {
	host    *stagetest.Host
	layout  model.Layout
	session *Session
	svc     Services
}

func newFixture(t *testing.T, network string) *fixture {
	t.Helper()
	host := stagetest.NewHost(t, network)
	layout := stagetest.Roots(t)
	log := zerolog.Nop()

	cat := catalog.NewHTTPCatalog(log)
	cat.HTTPClient = host.Server.Client()

	svc := Services{
		Catalog: cat,
		Installer: installer.New(installer.Options{
			Layout:     layout,
			StagingDir: filepath.Join(t.TempDir(), "staging"),
			Retries:    1,
			RetryBase:  time.Millisecond,
		}, log).WithHTTPClient(host.Server.Client()),
		Classifier: status.NewClassifier(layout, reader.KindLine, log),
		Renderer:   render.NewRenderer(layout, render.Options{}, log),
		Verifier:   AnyAccount,
		ReaderKind: reader.KindLine,
		Log:        log,
	}

	return &fixture{
		host:    host,
		layout:  layout,
		session: NewSession(host.Profile(), layout, testAddress, ""),
		svc:     svc,
	}
}
