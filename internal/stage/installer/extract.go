package installer

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tacogips/nodestage/internal/stage/model"
)

// Extract unpacks a .tar.gz archive into dest, preserving member paths.
// Members that would land outside dest are rejected.
func Extract(archivePath, dest string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return model.NewExtractionError(archivePath, "failed to open archive", err)
	}
	defer func() { _ = file.Close() }()

	gzr, err := gzip.NewReader(file)
	if err != nil {
		return model.NewExtractionError(archivePath, "failed to create gzip reader", err)
	}
	defer func() { _ = gzr.Close() }()

	if err := os.MkdirAll(dest, 0755); err != nil {
		return model.NewExtractionError(dest, "failed to create target directory", err)
	}

	tr := tar.NewReader(gzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.NewExtractionError(archivePath, "failed to read tar entry", err)
		}

		target, err := safeJoin(dest, header.Name)
		if err != nil {
			if header.Typeflag == tar.TypeDir {
				// "./" root entries
				continue
			}
			return model.NewExtractionError(archivePath, "unsafe archive member", err)
		}
		if err := checkNoSymlinks(dest, target); err != nil {
			return model.NewExtractionError(archivePath, "unsafe archive member", err)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, dirMode(header)); err != nil {
				return model.NewExtractionError(target, "failed to create directory", err)
			}
		case tar.TypeReg:
			if err := writeMember(tr, target, header); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := writeSymlink(dest, target, header); err != nil {
				return err
			}
		default:
			// devices, fifos and hard links are not part of release archives
		}
	}

	return nil
}

func writeMember(r io.Reader, target string, header *tar.Header) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return model.NewExtractionError(target, "failed to create parent directory", err)
	}

	mode := os.FileMode(header.Mode).Perm()
	if mode&0600 == 0 {
		mode |= 0600
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return model.NewExtractionError(target, "failed to create file", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return model.NewExtractionError(target, "failed to write file", err)
	}
	if err := out.Close(); err != nil {
		return model.NewExtractionError(target, "failed to close file", err)
	}
	return nil
}

func writeSymlink(dest, target string, header *tar.Header) error {
	if filepath.IsAbs(header.Linkname) {
		return model.NewExtractionError(target, "absolute symlink target in archive", fmt.Errorf("link to %s", header.Linkname))
	}
	resolved := filepath.Join(filepath.Dir(target), header.Linkname)
	if !within(dest, resolved) {
		return model.NewExtractionError(target, "symlink escapes target directory", fmt.Errorf("link to %s", header.Linkname))
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return model.NewExtractionError(target, "failed to create parent directory", err)
	}
	if err := os.Symlink(header.Linkname, target); err != nil {
		return model.NewExtractionError(target, "failed to create symlink", err)
	}
	return nil
}

func dirMode(header *tar.Header) os.FileMode {
	mode := os.FileMode(header.Mode).Perm()
	if mode == 0 {
		return 0755
	}
	return mode | 0700
}

// safeJoin resolves an archive member name below base.
func safeJoin(base, name string) (string, error) {
	clean := filepath.Clean(strings.TrimSpace(name))
	if clean == "." || clean == "" {
		return "", fmt.Errorf("invalid archive path: %q", name)
	}
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("absolute archive path: %q", name)
	}
	target := filepath.Join(base, clean)
	if !within(base, target) {
		return "", fmt.Errorf("archive path escapes target: %q", name)
	}
	return target, nil
}

// checkNoSymlinks rejects a target when an existing path component below base,
// the target included, is a symlink. Lexical checks alone cannot see links
// created by earlier members.
func checkNoSymlinks(base, target string) error {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return err
	}
	cur := base
	for _, part := range strings.Split(rel, string(os.PathSeparator)) {
		cur = filepath.Join(cur, part)
		info, err := os.Lstat(cur)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("archive path %q passes through symlink %s", rel, cur)
		}
	}
	return nil
}

func within(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}
