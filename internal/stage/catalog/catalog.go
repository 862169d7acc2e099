// Package catalog resolves a network's artifact host and lists its published protocol versions.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tacogips/nodestage/internal/stage/model"
)

// DefaultStatusTimeout bounds status-style catalog queries.
const DefaultStatusTimeout = 10 * time.Second

// Catalog abstracts the remote protocol version catalog.
type Catalog interface {
	// ProtocolVersions lists published versions in catalog order.
	ProtocolVersions(ctx context.Context, profile model.NetworkProfile) ([]model.ProtocolVersion, error)

	// ArchiveURL returns the download location of one archive of a version.
	ArchiveURL(profile model.NetworkProfile, version model.ProtocolVersion, kind model.ArchiveKind) string
}

// HTTPCatalog implements Catalog over plain HTTP.
type HTTPCatalog struct {
	// HTTPClient performs the requests.
	HTTPClient *http.Client
	// Timeout bounds each listing request (0 = no additional bound).
	Timeout time.Duration

	log zerolog.Logger
}

// NewHTTPCatalog creates a catalog client with the default status timeout.
func NewHTTPCatalog(log zerolog.Logger) *HTTPCatalog {
	return &HTTPCatalog{
		HTTPClient: &http.Client{},
		Timeout:    DefaultStatusTimeout,
		log:        log.With().Str("component", "catalog").Logger(),
	}
}

// ProtocolVersions implements Catalog. Every call re-fetches; failures are not retried.
func (c *HTTPCatalog) ProtocolVersions(ctx context.Context, profile model.NetworkProfile) ([]model.ProtocolVersion, error) {
	url := fmt.Sprintf("%s/%s/%s", BaseURL(profile.SourceURL), profile.NetworkName, model.ProtocolVersionsEndpoint)

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	c.log.Debug().Str("url", url).Msg("fetching protocol versions")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, model.NewIOError("", "failed to build catalog request", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &model.StageError{Kind: model.IOFailure, Message: "catalog request failed", URL: url, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, model.NewRemoteStatusError(url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.StageError{Kind: model.IOFailure, Message: "failed to read catalog body", URL: url, Cause: err}
	}

	versions := ParseVersionList(string(body))
	c.log.Debug().Int("count", len(versions)).Msg("protocol versions fetched")
	return versions, nil
}

// ArchiveURL implements Catalog.
func (c *HTTPCatalog) ArchiveURL(profile model.NetworkProfile, version model.ProtocolVersion, kind model.ArchiveKind) string {
	return ArchiveURL(profile, version, kind)
}

// ArchiveURL builds {sourceUrl}/{networkName}/{version}/{kind}.tar.gz.
func ArchiveURL(profile model.NetworkProfile, version model.ProtocolVersion, kind model.ArchiveKind) string {
	return fmt.Sprintf("%s/%s/%s/%s", BaseURL(profile.SourceURL), profile.NetworkName, version, kind.FileName())
}

// ParseVersionList splits a newline separated listing, trimming tokens and dropping blanks.
func ParseVersionList(body string) []model.ProtocolVersion {
	var versions []model.ProtocolVersion
	for _, line := range strings.Split(body, "\n") {
		token := strings.TrimSpace(line)
		if token == "" {
			continue
		}
		versions = append(versions, model.ProtocolVersion(token))
	}
	return versions
}

// BaseURL normalizes a profile source. Profiles historically carry bare hostnames,
// which are served over https.
func BaseURL(source string) string {
	source = strings.TrimSpace(source)
	source = strings.TrimRight(source, "/")
	if !strings.Contains(source, "://") {
		source = "https://" + source
	}
	return source
}
