package reader

import (
	"io"
	"os"
	"strings"

	"github.com/tacogips/nodestage/internal/stage/model"
)

// ParseOverrides parses an override file: [section] headers and key = value lines.
// Comments and blank lines are ignored. Values are kept literally so they can be
// written back verbatim.
func ParseOverrides(path string, r io.Reader) (model.OverrideSet, error) {
	lines, err := SplitLines(r)
	if err != nil {
		return nil, model.NewIOError(path, "failed to scan override file", err)
	}

	var set model.OverrideSet
	section := ""
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || IsComment(trimmed) {
			continue
		}
		if name, ok := SectionHeader(trimmed); ok {
			section = name
			continue
		}
		key, value, ok := SplitKeyValue(trimmed)
		if !ok || key == "" {
			return nil, model.NewMalformedLineError(path, i+1, trimmed)
		}
		set = append(set, model.Override{Section: section, Key: key, Value: value})
	}
	return set, nil
}

// LoadOverrides parses the override file at path. An empty path yields no overrides.
func LoadOverrides(path string) (model.OverrideSet, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, model.NewIOError(path, "failed to open override file", err)
	}
	defer func() { _ = f.Close() }()
	return ParseOverrides(path, f)
}
