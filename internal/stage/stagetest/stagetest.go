// Package stagetest provides archive builders and a fake artifact host for tests.
package stagetest

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/tacogips/nodestage/internal/stage/model"
)

// Entry is one archive member.
type Entry struct {
	Name string
	Body string
	Mode int64
	Dir  bool
	// Link makes the entry a symlink to Link.
	Link string
}

// Archive builds a tar.gz payload from entries.
func Archive(t testing.TB, entries ...Entry) []byte {
	t.Helper()

	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gzw)

	for _, e := range entries {
		hdr := &tar.Header{Name: e.Name, Mode: e.Mode}
		switch {
		case e.Dir:
			hdr.Typeflag = tar.TypeDir
			if hdr.Mode == 0 {
				hdr.Mode = 0755
			}
		case e.Link != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.Link
			hdr.Mode = 0777
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.Body))
			if hdr.Mode == 0 {
				hdr.Mode = 0644
			}
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("failed to write tar header %s: %v", e.Name, err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(e.Body)); err != nil {
				t.Fatalf("failed to write tar body %s: %v", e.Name, err)
			}
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("failed to close tar writer: %v", err)
	}
	if err := gzw.Close(); err != nil {
		t.Fatalf("failed to close gzip writer: %v", err)
	}
	return buf.Bytes()
}

// Chainspec renders a minimal chainspec for network and version.
func Chainspec(network string, version model.ProtocolVersion) string {
	return fmt.Sprintf("[protocol]\nversion = '%s'\n\n[network]\nname = '%s'\n",
		strings.ReplaceAll(string(version), "_", "."), network)
}

// ExampleConfig is a config template carrying the address placeholder twice.
const ExampleConfig = `[consensus]
secret_key_path = '/etc/casper/validator_keys/secret_key.pem'

[network]
public_address = '<IP ADDRESS>:0'
bind_address = '0.0.0.0:35000'
known_addresses = ['<IP ADDRESS>:35000', '2.2.2.2:35000']

[rpc_server]
address = '0.0.0.0:7777'
`

// ConfigArchive builds the config archive of a version.
func ConfigArchive(t testing.TB, network string, version model.ProtocolVersion) []byte {
	return Archive(t,
		Entry{Name: "chainspec.toml", Body: Chainspec(network, version)},
		Entry{Name: "config-example.toml", Body: ExampleConfig},
		Entry{Name: "accounts.toml", Body: "# accounts\n"},
	)
}

// BinArchive builds the bin archive of a version.
func BinArchive(t testing.TB) []byte {
	return Archive(t, Entry{Name: "casper-node", Body: "#!/bin/sh\necho node\n", Mode: 0755})
}

// Host is a fake artifact host serving one network.
type Host struct {
	Server  *httptest.Server
	Network string

	mu       sync.Mutex
	versions []model.ProtocolVersion
	files    map[string][]byte
	status   map[string]int
	hits     map[string]int
	hooks    map[string]func()
}

// NewHost starts a fake host. The server is closed when the test ends.
func NewHost(t testing.TB, network string) *Host {
	h := &Host{
		Network: network,
		files:   make(map[string][]byte),
		status:  make(map[string]int),
		hits:    make(map[string]int),
		hooks:   make(map[string]func()),
	}
	h.Server = httptest.NewServer(http.HandlerFunc(h.serve))
	t.Cleanup(h.Server.Close)
	return h
}

// Profile returns a network profile pointing at the host.
func (h *Host) Profile() model.NetworkProfile {
	return model.NetworkProfile{SourceURL: h.Server.URL, NetworkName: h.Network}
}

// AddVersion publishes a version with standard config and bin archives.
func (h *Host) AddVersion(t testing.TB, version model.ProtocolVersion) {
	h.AddVersionArchives(version, ConfigArchive(t, h.Network, version), BinArchive(t))
}

// AddVersionArchives publishes a version with explicit archive payloads.
func (h *Host) AddVersionArchives(version model.ProtocolVersion, config, bin []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.versions = append(h.versions, version)
	h.files[h.archivePath(version, model.ArchiveConfig)] = config
	h.files[h.archivePath(version, model.ArchiveBin)] = bin
}

// FailPath makes path answer with status.
func (h *Host) FailPath(path string, status int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status[path] = status
}

// OnServe runs fn while path is being served, before its body is written.
func (h *Host) OnServe(path string, fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks[path] = fn
}

// ArchivePath returns the URL path of an archive.
func (h *Host) ArchivePath(version model.ProtocolVersion, kind model.ArchiveKind) string {
	return h.archivePath(version, kind)
}

func (h *Host) archivePath(version model.ProtocolVersion, kind model.ArchiveKind) string {
	return fmt.Sprintf("/%s/%s/%s", h.Network, version, kind.FileName())
}

// Hits returns the request count for path.
func (h *Host) Hits(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hits[path]
}

// ArchiveHits returns the number of archive requests across all versions.
func (h *Host) ArchiveHits() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	total := 0
	for path, n := range h.hits {
		if strings.HasSuffix(path, ".tar.gz") {
			total += n
		}
	}
	return total
}

func (h *Host) serve(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.hits[r.URL.Path]++
	status, failing := h.status[r.URL.Path]
	versions := append([]model.ProtocolVersion(nil), h.versions...)
	body, found := h.files[r.URL.Path]
	hook := h.hooks[r.URL.Path]
	h.mu.Unlock()

	if hook != nil {
		hook()
	}

	if failing {
		w.WriteHeader(status)
		return
	}
	if r.URL.Path == "/"+h.Network+"/"+model.ProtocolVersionsEndpoint {
		for _, v := range versions {
			fmt.Fprintln(w, v)
		}
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Length", fmt.Sprint(len(body)))
	_, _ = w.Write(body)
}

// Roots creates config and bin roots below a temp dir.
func Roots(t testing.TB) model.Layout {
	t.Helper()
	base := t.TempDir()
	l := model.Layout{
		ConfigRoot: filepath.Join(base, "etc"),
		BinRoot:    filepath.Join(base, "bin"),
	}
	for _, dir := range []string{l.ConfigRoot, l.BinRoot} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create root %s: %v", dir, err)
		}
	}
	return l
}

// StageVersion lays out a fully staged version on disk for network.
func StageVersion(t testing.TB, l model.Layout, network string, version model.ProtocolVersion) {
	t.Helper()
	WriteFile(t, l.ChainspecFile(version), Chainspec(network, version))
	WriteFile(t, l.ExampleConfigFile(version), ExampleConfig)
	WriteFile(t, l.ConfigFile(version), "[network]\npublic_address = '203.0.113.5:0'\n")
	WriteFile(t, filepath.Join(l.BinDir(version), "casper-node"), "#!/bin/sh\n")
}

// WriteFile writes content creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// Tree lists the files below dir as sorted relative paths.
func Tree(t testing.TB, dir string) []string {
	t.Helper()
	var out []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to walk %s: %v", dir, err)
	}
	sort.Strings(out)
	return out
}
