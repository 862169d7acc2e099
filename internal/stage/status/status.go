// Package status classifies the on-disk state of a protocol version.
package status

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tacogips/nodestage/internal/stage/model"
	"github.com/tacogips/nodestage/internal/stage/reader"
)

// Classifier inspects a version's directories and chainspec.
type Classifier struct {
	layout model.Layout
	kind   reader.Kind
	log    zerolog.Logger
}

// NewClassifier creates a Classifier reading chainspecs with the given reader kind.
func NewClassifier(layout model.Layout, kind reader.Kind, log zerolog.Logger) *Classifier {
	return &Classifier{
		layout: layout,
		kind:   kind,
		log:    log.With().Str("component", "status").Logger(),
	}
}

// Layout returns the layout the classifier inspects.
func (c *Classifier) Layout() model.Layout {
	return c.layout
}

// Classify reports the status of version against the expected network.
// The checks run in a fixed order and the first failing one decides the status.
// Errors are returned only for unexpected filesystem or reader failures.
func (c *Classifier) Classify(version model.ProtocolVersion, expectedNetwork string) (model.StagedStatus, error) {
	configDir, err := exists(c.layout.ConfigDir(version))
	if err != nil {
		return model.Unstaged, err
	}
	binDir, err := exists(c.layout.BinDir(version))
	if err != nil {
		return model.Unstaged, err
	}

	if !configDir {
		if binDir {
			return model.BinOnly, nil
		}
		return model.Unstaged, nil
	}
	if !binDir {
		return model.ConfigOnly, nil
	}

	config, err := exists(c.layout.ConfigFile(version))
	if err != nil {
		return model.Unstaged, err
	}
	if !config {
		return model.NoConfig, nil
	}

	chainspecPath := c.layout.ChainspecFile(version)
	present, err := exists(chainspecPath)
	if err != nil {
		return model.Unstaged, err
	}
	if !present {
		c.log.Debug().Str("version", string(version)).Msg("chainspec missing")
		return model.WrongNetwork, nil
	}

	r, err := reader.Open(c.kind, chainspecPath)
	if err != nil {
		return model.Unstaged, err
	}
	desc, err := reader.ReadChainspec(r)
	if err != nil {
		return model.Unstaged, err
	}

	if desc.NetworkName == "" || desc.NetworkName != expectedNetwork {
		c.log.Debug().
			Str("version", string(version)).
			Str("expected", expectedNetwork).
			Str("found", desc.NetworkName).
			Msg("chainspec network mismatch")
		return model.WrongNetwork, nil
	}

	c.checkVersion(version, desc.ProtocolVersion)
	return model.Staged, nil
}

// checkVersion warns when the chainspec disagrees with the directory token.
func (c *Classifier) checkVersion(version model.ProtocolVersion, declared string) {
	if declared == "" {
		return
	}
	want, err := version.Semver()
	if err != nil {
		return
	}
	got, err := model.ProtocolVersion(declared).Semver()
	if err != nil {
		c.log.Warn().Str("version", string(version)).Str("chainspec_version", declared).Msg("chainspec protocol version is not semver shaped")
		return
	}
	if !want.Equal(*got) {
		c.log.Warn().
			Str("version", string(version)).
			Str("chainspec_version", got.String()).
			Msg("chainspec protocol version differs from directory name")
	}
}

// Report pairs a version with its status.
type Report struct {
	Version model.ProtocolVersion `json:"version" yaml:"version"`
	Status  model.StagedStatus    `json:"status" yaml:"status"`
}

// ClassifyAll classifies versions concurrently and returns reports in input order.
// parallelism < 1 means one at a time.
func (c *Classifier) ClassifyAll(ctx context.Context, versions []model.ProtocolVersion, expectedNetwork string, parallelism int) ([]Report, error) {
	if parallelism < 1 {
		parallelism = 1
	}
	reports := make([]Report, len(versions))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, v := range versions {
		i, v := i, v
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			st, err := c.Classify(v, expectedNetwork)
			if err != nil {
				return err
			}
			reports[i] = Report{Version: v, Status: st}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, model.NewIOError(path, "failed to stat path", err)
}
