// Package installer downloads and unpacks per-version config and bin archives.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	units "github.com/docker/go-units"
	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/tacogips/nodestage/internal/logging"
	"github.com/tacogips/nodestage/internal/stage/catalog"
	"github.com/tacogips/nodestage/internal/stage/model"
)

// ProgressFunc returns a writer that observes the bytes of one download.
// size is -1 when the server does not announce a length.
type ProgressFunc func(name string, size int64) io.Writer

// Options configures an Installer.
type Options struct {
	// Layout resolves the target directories.
	Layout model.Layout
	// StagingDir holds transient archives and lock files.
	StagingDir string
	// DownloadTimeout bounds one archive download attempt (0 = unbounded).
	DownloadTimeout time.Duration
	// Retries is the number of extra attempts for transient download failures.
	Retries uint64
	// RetryBase is the first backoff interval.
	RetryBase time.Duration
	// Progress is an optional download observer.
	Progress ProgressFunc
}

// Installer installs protocol version artifacts. Installs of the same version are
// serialized through a lock file; transient archive names are unique per version and kind.
type Installer struct {
	opts       Options
	httpClient *http.Client
	log        zerolog.Logger
}

// New creates an Installer.
func New(opts Options, log zerolog.Logger) *Installer {
	if opts.StagingDir == "" {
		opts.StagingDir = os.TempDir()
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = time.Second
	}
	return &Installer{
		opts:       opts,
		httpClient: &http.Client{},
		log:        log.With().Str("component", "installer").Logger(),
	}
}

// WithHTTPClient replaces the HTTP client used for downloads.
func (i *Installer) WithHTTPClient(c *http.Client) *Installer {
	i.httpClient = c
	return i
}

// Layout returns the layout the installer writes into.
func (i *Installer) Layout() model.Layout {
	return i.opts.Layout
}

// Install downloads and extracts the config archive, then the bin archive.
// It refuses to start if either target directory already exists, and it never
// rolls back a partially populated directory on failure.
func (i *Installer) Install(ctx context.Context, profile model.NetworkProfile, version model.ProtocolVersion) error {
	if err := version.Validate(); err != nil {
		return model.NewPreconditionError("", err.Error())
	}
	if err := i.checkTargetsAbsent(version); err != nil {
		return err
	}

	if err := os.MkdirAll(i.opts.StagingDir, 0755); err != nil {
		return model.NewIOError(i.opts.StagingDir, "failed to create staging directory", err)
	}
	lockPath := filepath.Join(i.opts.StagingDir, string(version)+".lock")
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return model.NewIOError(lockPath, "failed to acquire install lock", err)
	}
	if !locked {
		return model.NewPreconditionError(lockPath, "another install of this version is in progress")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			i.log.Warn().Err(err).Str("lock", lockPath).Msg("failed to release install lock")
		}
	}()

	// the directories may have appeared while waiting for the lock
	if err := i.checkTargetsAbsent(version); err != nil {
		return err
	}

	log := i.log.With().Str("version", string(version)).Logger()
	log.Info().Msg("installing protocol version")
	defer logging.Elapsed(log, "install", time.Now())

	for _, kind := range []model.ArchiveKind{model.ArchiveConfig, model.ArchiveBin} {
		if err := i.installArchive(ctx, profile, version, kind, log); err != nil {
			return fmt.Errorf("failed to install %s archive of %s: %w", kind, version, err)
		}
	}

	log.Info().Msg("protocol version installed")
	return nil
}

// Unstage removes both directories of a version. Missing directories are not an error.
// It returns the directories that existed and were removed.
func (i *Installer) Unstage(version model.ProtocolVersion) ([]string, error) {
	if err := version.Validate(); err != nil {
		return nil, model.NewPreconditionError("", err.Error())
	}
	var removed []string
	for _, dir := range []string{i.opts.Layout.ConfigDir(version), i.opts.Layout.BinDir(version)} {
		exists, err := pathExists(dir)
		if err != nil {
			return removed, err
		}
		if !exists {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			return removed, model.NewIOError(dir, "failed to remove directory", err)
		}
		i.log.Info().Str("dir", dir).Msg("removed")
		removed = append(removed, dir)
	}
	return removed, nil
}

func (i *Installer) checkTargetsAbsent(version model.ProtocolVersion) error {
	for _, dir := range []string{i.opts.Layout.ConfigDir(version), i.opts.Layout.BinDir(version)} {
		exists, err := pathExists(dir)
		if err != nil {
			return err
		}
		if exists {
			return model.NewPreconditionError(dir, "target directory already exists; refusing to overwrite")
		}
	}
	return nil
}

func (i *Installer) installArchive(ctx context.Context, profile model.NetworkProfile, version model.ProtocolVersion, kind model.ArchiveKind, log zerolog.Logger) error {
	url := catalog.ArchiveURL(profile, version, kind)
	transient := filepath.Join(i.opts.StagingDir, fmt.Sprintf("%s-%s", version, kind.FileName()))
	target := i.opts.Layout.TargetDir(version, kind)

	size, err := i.download(ctx, url, transient)
	if err != nil {
		_ = os.Remove(transient)
		return err
	}
	log.Info().Str("archive", kind.FileName()).Str("size", units.HumanSize(float64(size))).Msg("downloaded")

	if err := Extract(transient, target); err != nil {
		log.Error().Err(err).Str("archive", transient).Msg("extraction failed; archive kept for diagnosis")
		return err
	}

	if err := os.Remove(transient); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("archive", transient).Msg("failed to remove transient archive")
	}
	return nil
}

// download fetches url into path, retrying transport errors and 5xx responses.
func (i *Installer) download(ctx context.Context, url, path string) (int64, error) {
	backoff := retry.WithMaxRetries(i.opts.Retries, retry.NewExponential(i.opts.RetryBase))

	var written int64
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		n, err := i.fetch(ctx, url, path)
		if err == nil {
			written = n
			return nil
		}
		if isTransient(err) {
			i.log.Warn().Err(err).Int("attempt", attempt).Str("url", url).Msg("download failed, retrying")
			return retry.RetryableError(err)
		}
		return err
	})
	return written, err
}

func (i *Installer) fetch(ctx context.Context, url, path string) (int64, error) {
	if i.opts.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.opts.DownloadTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, model.NewIOError("", "failed to build download request", err)
	}
	resp, err := i.httpClient.Do(req)
	if err != nil {
		return 0, &model.StageError{Kind: model.IOFailure, Message: "download request failed", URL: url, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, model.NewRemoteStatusError(url, resp.StatusCode)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return 0, model.NewIOError(path, "failed to create transient archive", err)
	}

	var dst io.Writer = f
	if i.opts.Progress != nil {
		if pw := i.opts.Progress(filepath.Base(path), resp.ContentLength); pw != nil {
			dst = io.MultiWriter(f, pw)
		}
	}

	n, copyErr := io.Copy(dst, resp.Body)
	closeErr := f.Close()
	if copyErr != nil {
		return n, &model.StageError{Kind: model.IOFailure, Message: "failed to download archive", Path: path, URL: url, Cause: copyErr}
	}
	if closeErr != nil {
		return n, model.NewIOError(path, "failed to close transient archive", closeErr)
	}
	return n, nil
}

// isTransient reports whether a download failure is worth another attempt.
func isTransient(err error) bool {
	var se *model.StageError
	if !errors.As(err, &se) {
		return false
	}
	switch se.Kind {
	case model.RemoteStatusError:
		return se.StatusCode >= 500
	case model.IOFailure:
		return se.URL != ""
	default:
		return false
	}
}

func pathExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, model.NewIOError(path, "failed to stat path", err)
}
