package render

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/tacogips/nodestage/internal/stage/model"
)

// FileWriter writes rendered configs without clobbering existing ones.
type FileWriter struct {
	log zerolog.Logger
}

// NewFileWriter creates a FileWriter.
func NewFileWriter(log zerolog.Logger) *FileWriter {
	return &FileWriter{log: log}
}

// Write stores content at path. When path already exists the content goes to
// path + ".new" instead and the original is left untouched. It returns the path written.
func (w *FileWriter) Write(path string, content []byte) (string, error) {
	target := path
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		target = path + model.NewFileSuffix
		w.log.Warn().Str("path", path).Str("written", target).Msg("config exists, writing sibling")
	case !errors.Is(err, fs.ErrNotExist):
		return "", model.NewIOError(path, "failed to stat config file", err)
	}

	if err := writeAtomic(target, content, 0644); err != nil {
		return "", err
	}
	w.log.Debug().Str("path", target).Int("size", len(content)).Msg("file written")
	return target, nil
}

// writeAtomic writes through a temporary file and rename.
func writeAtomic(path string, content []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return model.NewIOError(path, "failed to create parent directory", err)
	}

	tempFile := path + ".tmp"
	f, err := os.OpenFile(tempFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return model.NewIOError(path, "failed to create temporary file", err)
	}

	_, err = f.Write(content)
	closeErr := f.Close()
	if err != nil {
		_ = os.Remove(tempFile)
		return model.NewIOError(path, "failed to write file content", err)
	}
	if closeErr != nil {
		_ = os.Remove(tempFile)
		return model.NewIOError(path, "failed to close file", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		_ = os.Remove(tempFile)
		return model.NewIOError(path, "failed to rename temporary file", err)
	}
	return nil
}
