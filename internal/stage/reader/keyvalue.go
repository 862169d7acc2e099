package reader

import (
	"io"
	"strings"

	"github.com/tacogips/nodestage/internal/stage/model"
)

// ParseKeyValue parses KEY=VALUE lines such as network profile files.
// Later keys overwrite earlier ones.
func ParseKeyValue(path string, r io.Reader) (map[string]string, error) {
	lines, err := SplitLines(r)
	if err != nil {
		return nil, model.NewIOError(path, "failed to scan file", err)
	}

	values := make(map[string]string)
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || IsComment(trimmed) {
			continue
		}
		key, value, ok := SplitKeyValue(trimmed)
		if !ok || key == "" {
			return nil, model.NewMalformedLineError(path, i+1, trimmed)
		}
		values[key] = Unquote(value)
	}
	return values, nil
}
