package installer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacogips/nodestage/internal/stage/model"
	"github.com/tacogips/nodestage/internal/stage/stagetest"
)

func writeArchive(t *testing.T, entries ...stagetest.Entry) string {
	path := filepath.Join(t.TempDir(), "archive.tar.gz")
	require.NoError(t, os.WriteFile(path, stagetest.Archive(t, entries...), 0644))
	return path
}

func TestExtractPreservesMemberPaths(t *testing.T) {
	archive := writeArchive(t,
		stagetest.Entry{Name: "./", Dir: true},
		stagetest.Entry{Name: "nested/", Dir: true},
		stagetest.Entry{Name: "nested/deeper/file.txt", Body: "deep"},
		stagetest.Entry{Name: "top.txt", Body: "top"},
		stagetest.Entry{Name: "link.txt", Link: "top.txt"},
	)
	dest := filepath.Join(t.TempDir(), "out")

	require.NoError(t, Extract(archive, dest))

	assert.Equal(t, []string{"link.txt", "nested/deeper/file.txt", "top.txt"}, stagetest.Tree(t, dest))
	data, err := os.ReadFile(filepath.Join(dest, "nested", "deeper", "file.txt"))
	require.NoError(t, err)
	assert.Equal(t, "deep", string(data))

	target, err := os.Readlink(filepath.Join(dest, "link.txt"))
	require.NoError(t, err)
	assert.Equal(t, "top.txt", target)
}

func TestExtractRejectsEscapes(t *testing.T) {
	tests := []struct {
		name  string
		entry stagetest.Entry
	}{
		{"parent traversal", stagetest.Entry{Name: "../escape.txt", Body: "x"}},
		{"absolute symlink", stagetest.Entry{Name: "abs", Link: "/etc/passwd"}},
		{"escaping symlink", stagetest.Entry{Name: "up", Link: "../../outside"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archive := writeArchive(t, tt.entry)
			err := Extract(archive, filepath.Join(t.TempDir(), "out"))
			require.Error(t, err)
			assert.True(t, model.IsKind(err, model.ExtractionFailed))
		})
	}
}

func TestExtractRejectsSymlinkChains(t *testing.T) {
	tests := []struct {
		name    string
		entries []stagetest.Entry
	}{
		{
			name: "link through a link",
			entries: []stagetest.Entry{
				{Name: "a", Link: "."},
				{Name: "a/b", Link: ".."},
				{Name: "a/b/evil", Body: "x"},
			},
		},
		{
			name: "file written through a directory link",
			entries: []stagetest.Entry{
				{Name: "sub", Dir: true},
				{Name: "sub/up", Link: ".."},
				{Name: "sub/up/overwritten.txt", Body: "x"},
			},
		},
		{
			name: "file replacing a link",
			entries: []stagetest.Entry{
				{Name: "top.txt", Body: "top"},
				{Name: "link.txt", Link: "top.txt"},
				{Name: "link.txt", Body: "x"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archive := writeArchive(t, tt.entries...)
			parent := t.TempDir()
			dest := filepath.Join(parent, "out")

			err := Extract(archive, dest)
			require.Error(t, err)
			assert.True(t, model.IsKind(err, model.ExtractionFailed))
			assert.NoFileExists(t, filepath.Join(parent, "evil"))
			assert.NoFileExists(t, filepath.Join(parent, "overwritten.txt"))
		})
	}

	t.Run("top file untouched", func(t *testing.T) {
		archive := writeArchive(t,
			stagetest.Entry{Name: "top.txt", Body: "top"},
			stagetest.Entry{Name: "link.txt", Link: "top.txt"},
			stagetest.Entry{Name: "link.txt", Body: "x"},
		)
		dest := filepath.Join(t.TempDir(), "out")
		require.Error(t, Extract(archive, dest))
		data, err := os.ReadFile(filepath.Join(dest, "top.txt"))
		require.NoError(t, err)
		assert.Equal(t, "top", string(data))
	})
}

func TestSafeJoin(t *testing.T) {
	base := "/var/lib/casper/bin/1_0_0"

	got, err := safeJoin(base, "casper-node")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "casper-node"), got)

	got, err = safeJoin(base, "a/../b")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "b"), got)

	for _, bad := range []string{"", ".", "..", "../x", "/abs"} {
		_, err := safeJoin(base, bad)
		assert.Error(t, err, bad)
	}
}
