package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacogips/nodestage/internal/stage/model"
	"github.com/tacogips/nodestage/internal/stage/stagetest"
)

func TestStageProtocolsEndToEnd(t *testing.T) {
	f := newFixture(t, "casper-test")
	f.host.AddVersion(t, "1_0_0")
	f.host.AddVersion(t, "1_1_0")
	// 1_0_0 is already fully staged; only 1_1_0 must be fetched
	stagetest.StageVersion(t, f.layout, "casper-test", "1_0_0")

	result, err := StageProtocols(context.Background(), StageOptions{Session: f.session, Services: f.svc})
	require.NoError(t, err)

	require.Len(t, result.Versions, 2)
	assert.Equal(t, model.ProtocolVersion("1_0_0"), result.Versions[0].Version)
	assert.Equal(t, ActionNone, result.Versions[0].Action)
	assert.Equal(t, model.ProtocolVersion("1_1_0"), result.Versions[1].Version)
	assert.Equal(t, ActionInstall, result.Versions[1].Action)
	assert.Equal(t, model.Unstaged, result.Versions[1].Initial)
	assert.Equal(t, model.Staged, result.Versions[1].Final)

	assert.True(t, result.Success())
	assert.NoError(t, result.Err())
	assert.Empty(t, result.ByStatus())
	assert.NotEmpty(t, result.RunID)

	assert.Zero(t, f.host.Hits(f.host.ArchivePath("1_0_0", model.ArchiveConfig)))
	assert.Equal(t, 1, f.host.Hits(f.host.ArchivePath("1_1_0", model.ArchiveConfig)))
	assert.Equal(t, 1, f.host.Hits(f.host.ArchivePath("1_1_0", model.ArchiveBin)))

	config, err := os.ReadFile(f.layout.ConfigFile("1_1_0"))
	require.NoError(t, err)
	assert.Equal(t, strings.ReplaceAll(stagetest.ExampleConfig, "<IP ADDRESS>", testAddress), string(config))
	assert.Equal(t, f.layout.ConfigFile("1_1_0"), result.Versions[1].ConfigPath)
}

func TestStageProtocolsIdempotent(t *testing.T) {
	f := newFixture(t, "casper")
	f.host.AddVersion(t, "1_0_0")
	f.host.AddVersion(t, "1_1_0")
	opts := StageOptions{Session: f.session, Services: f.svc}

	first, err := StageProtocols(context.Background(), opts)
	require.NoError(t, err)
	require.True(t, first.Success())
	assert.Equal(t, 2, first.Count(ActionInstall))
	archiveHits := f.host.ArchiveHits()

	second, err := StageProtocols(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, second.Success())
	assert.Zero(t, second.Count(ActionInstall))
	assert.Zero(t, second.Count(ActionRender))
	assert.Equal(t, 2, second.Count(ActionNone))
	assert.Equal(t, archiveHits, f.host.ArchiveHits(), "second run must not download")
	assert.NoFileExists(t, f.layout.ConfigFile("1_0_0")+".new")
}

func TestStageProtocolsNoConfigRendersOnly(t *testing.T) {
	f := newFixture(t, "casper")
	f.host.AddVersion(t, "1_0_0")
	stagetest.StageVersion(t, f.layout, "casper", "1_0_0")
	require.NoError(t, os.Remove(f.layout.ConfigFile("1_0_0")))

	overrides := filepath.Join(t.TempDir(), "overrides.toml")
	stagetest.WriteFile(t, overrides, "[rpc_server]\naddress = '0.0.0.0:9999'\n")
	f.session.OverridesPath = overrides

	result, err := StageProtocols(context.Background(), StageOptions{Session: f.session, Services: f.svc})
	require.NoError(t, err)

	require.Len(t, result.Versions, 1)
	assert.Equal(t, ActionRender, result.Versions[0].Action)
	assert.Equal(t, model.NoConfig, result.Versions[0].Initial)
	assert.Equal(t, model.Staged, result.Versions[0].Final)
	assert.Zero(t, f.host.ArchiveHits())

	config, err := os.ReadFile(f.layout.ConfigFile("1_0_0"))
	require.NoError(t, err)
	assert.Contains(t, string(config), "address = '0.0.0.0:9999'")
	assert.Contains(t, string(config), "public_address = '203.0.113.5:0'")
}

func TestStageProtocolsRecordsUnrecoverable(t *testing.T) {
	f := newFixture(t, "casper")
	for _, v := range []model.ProtocolVersion{"1_0_0", "1_1_0", "1_2_0", "1_3_0"} {
		f.host.AddVersion(t, v)
	}
	stagetest.WriteFile(t, filepath.Join(f.layout.BinDir("1_0_0"), "casper-node"), "")
	stagetest.WriteFile(t, f.layout.ChainspecFile("1_1_0"), stagetest.Chainspec("casper", "1_1_0"))
	stagetest.StageVersion(t, f.layout, "other-net", "1_2_0")

	result, err := StageProtocols(context.Background(), StageOptions{Session: f.session, Services: f.svc})
	require.NoError(t, err)
	require.Len(t, result.Versions, 4)

	assert.False(t, result.Success())
	assert.Equal(t, map[model.StagedStatus][]model.ProtocolVersion{
		model.BinOnly:      {"1_0_0"},
		model.ConfigOnly:   {"1_1_0"},
		model.WrongNetwork: {"1_2_0"},
	}, result.ByStatus())

	for _, o := range result.Versions[:3] {
		assert.Equal(t, ActionReport, o.Action, o.Version)
		assert.True(t, model.IsKind(o.Err, model.PreconditionViolation), o.Version)
		assert.NotEmpty(t, o.Error)
	}
	// the inconsistent versions are not repaired and the run continues
	assert.Equal(t, ActionInstall, result.Versions[3].Action)
	assert.Equal(t, model.Staged, result.Versions[3].Final)
	assert.Zero(t, f.host.Hits(f.host.ArchivePath("1_0_0", model.ArchiveConfig)))
	assert.Zero(t, f.host.Hits(f.host.ArchivePath("1_1_0", model.ArchiveBin)))
	assert.NoDirExists(t, f.layout.ConfigDir("1_0_0"))

	err = result.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1_0_0")
	assert.Contains(t, err.Error(), "1_2_0")
}

func TestStageProtocolsInstallFailureContinues(t *testing.T) {
	f := newFixture(t, "casper")
	f.host.AddVersion(t, "1_0_0")
	f.host.AddVersion(t, "1_1_0")
	f.host.FailPath(f.host.ArchivePath("1_0_0", model.ArchiveBin), http.StatusNotFound)

	result, err := StageProtocols(context.Background(), StageOptions{Session: f.session, Services: f.svc})
	require.NoError(t, err)
	require.Len(t, result.Versions, 2)

	failed := result.Versions[0]
	assert.True(t, model.IsKind(failed.Err, model.RemoteStatusError))
	assert.Equal(t, model.ConfigOnly, failed.Final, "partial install is left for the operator")
	assert.Empty(t, failed.ConfigPath)

	assert.True(t, result.Versions[1].Ok())
	assert.False(t, result.Success())
	assert.Equal(t, []model.ProtocolVersion{"1_0_0"}, result.ByStatus()[model.ConfigOnly])
}

func TestStageProtocolsPreconditions(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		f := newFixture(t, "casper")
		f.session.Layout.BinRoot = filepath.Join(t.TempDir(), "missing")

		_, err := StageProtocols(context.Background(), StageOptions{Session: f.session, Services: f.svc})
		require.Error(t, err)
		assert.True(t, IsType(err, PreconditionFailed))
		assert.True(t, model.IsKind(err, model.PreconditionViolation))
		assert.Zero(t, f.host.Hits("/casper/protocol_versions"))
	})

	t.Run("wrong account", func(t *testing.T) {
		f := newFixture(t, "casper")
		f.svc.Verifier = verifierFunc(func() error { return NewPreconditionError("must run as root", nil) })

		_, err := StageProtocols(context.Background(), StageOptions{Session: f.session, Services: f.svc})
		assert.True(t, IsType(err, PreconditionFailed))
	})

	t.Run("invalid address", func(t *testing.T) {
		f := newFixture(t, "casper")
		f.session.Address = "not-an-ip"

		_, err := StageProtocols(context.Background(), StageOptions{Session: f.session, Services: f.svc})
		assert.True(t, IsType(err, ValidationFailed))
	})

	t.Run("catalog failure", func(t *testing.T) {
		f := newFixture(t, "casper")
		f.host.FailPath("/casper/protocol_versions", http.StatusServiceUnavailable)

		_, err := StageProtocols(context.Background(), StageOptions{Session: f.session, Services: f.svc})
		require.Error(t, err)
		assert.True(t, IsType(err, CatalogFetchFailed))
		assert.True(t, model.IsKind(err, model.RemoteStatusError))
		assert.Equal(t, 1, f.host.Hits("/casper/protocol_versions"), "catalog is not retried")
	})

	t.Run("malformed overrides", func(t *testing.T) {
		f := newFixture(t, "casper")
		f.host.AddVersion(t, "1_0_0")
		overrides := filepath.Join(t.TempDir(), "overrides.toml")
		stagetest.WriteFile(t, overrides, "[network]\nbroken\n")
		f.session.OverridesPath = overrides

		_, err := StageProtocols(context.Background(), StageOptions{Session: f.session, Services: f.svc})
		assert.True(t, IsType(err, OverridesLoadFailed))
		assert.True(t, model.IsKind(err, model.MalformedConfigLine))
		assert.Zero(t, f.host.ArchiveHits())
	})
}

// cancellingInstaller cancels the run after the first install.
type cancellingInstaller struct {
	Installer
	cancel context.CancelFunc
	calls  int
}

func (c *cancellingInstaller) Install(ctx context.Context, profile model.NetworkProfile, version model.ProtocolVersion) error {
	c.calls++
	err := c.Installer.Install(ctx, profile, version)
	c.cancel()
	return err
}

func TestStageProtocolsInterrupted(t *testing.T) {
	f := newFixture(t, "casper")
	f.host.AddVersion(t, "1_0_0")
	f.host.AddVersion(t, "1_1_0")
	f.host.AddVersion(t, "1_2_0")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	inst := &cancellingInstaller{Installer: f.svc.Installer, cancel: cancel}
	f.svc.Installer = inst

	result, err := StageProtocols(ctx, StageOptions{Session: f.session, Services: f.svc})
	require.NoError(t, err)

	assert.True(t, result.Interrupted)
	assert.False(t, result.Success())
	assert.Equal(t, 1, inst.calls)
	require.Len(t, result.Versions, 3)
	assert.Equal(t, model.Staged, result.Versions[0].Final, "the version in flight completes")
	assert.Equal(t, ActionSkipped, result.Versions[1].Action)
	assert.Equal(t, ActionSkipped, result.Versions[2].Action)
	assert.NoDirExists(t, f.layout.ConfigDir("1_1_0"))
}

func TestStageProtocolsCancelDuringInstall(t *testing.T) {
	f := newFixture(t, "casper")
	f.host.AddVersion(t, "1_0_0")
	f.host.AddVersion(t, "1_1_0")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.host.OnServe(f.host.ArchivePath("1_0_0", model.ArchiveBin), cancel)

	result, err := StageProtocols(ctx, StageOptions{Session: f.session, Services: f.svc})
	require.NoError(t, err)
	require.Len(t, result.Versions, 2)

	first := result.Versions[0]
	assert.NoError(t, first.Err)
	assert.Equal(t, ActionInstall, first.Action)
	assert.Equal(t, model.Staged, first.Final, "an install in flight is not torn down")
	assert.FileExists(t, f.layout.ConfigFile("1_0_0"))

	assert.Equal(t, ActionSkipped, result.Versions[1].Action)
	assert.True(t, result.Interrupted)
	assert.Zero(t, f.host.Hits(f.host.ArchivePath("1_1_0", model.ArchiveConfig)))
}

func TestStageProtocolsCancelDuringLastVersion(t *testing.T) {
	f := newFixture(t, "casper")
	f.host.AddVersion(t, "1_0_0")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.host.OnServe(f.host.ArchivePath("1_0_0", model.ArchiveBin), cancel)

	result, err := StageProtocols(ctx, StageOptions{Session: f.session, Services: f.svc})
	require.NoError(t, err)
	require.Len(t, result.Versions, 1)

	assert.Equal(t, model.Staged, result.Versions[0].Final)
	assert.True(t, result.Interrupted)
	assert.False(t, result.Success())
}

func TestStageResultErr(t *testing.T) {
	r := &StageResult{Versions: []VersionOutcome{
		{Version: "1_0_0", Action: ActionNone, Final: model.Staged},
	}}
	assert.NoError(t, r.Err())

	boom := errors.New("boom")
	r.Versions = append(r.Versions, VersionOutcome{Version: "1_1_0", Action: ActionInstall, Err: boom})
	assert.ErrorIs(t, r.Err(), boom)
}
