package reader

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/tacogips/nodestage/internal/stage/model"
)

// TOMLReader is the structured Reader backed by a full TOML decoder.
// Array values are rendered back into the single-line literal form so
// ParseArray behaves identically for both readers.
type TOMLReader struct {
	path string
	doc  map[string]interface{}
}

// NewTOMLReader decodes data as TOML.
func NewTOMLReader(path string, data []byte) (*TOMLReader, error) {
	doc := make(map[string]interface{})
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, model.NewIOError(path, "failed to decode TOML", err)
	}
	return &TOMLReader{path: path, doc: doc}, nil
}

// NewTOMLReaderFromFile reads and decodes path.
func NewTOMLReaderFromFile(path string) (*TOMLReader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.NewIOError(path, "failed to read file", err)
	}
	return NewTOMLReader(path, data)
}

// Value implements Reader.
func (r *TOMLReader) Value(section, key string) (string, bool, error) {
	table := r.doc
	if section != "" {
		raw, ok := r.doc[section]
		if !ok {
			return "", false, nil
		}
		table, ok = raw.(map[string]interface{})
		if !ok {
			return "", false, nil
		}
	}
	raw, ok := table[key]
	if !ok {
		return "", false, nil
	}
	return formatTOMLValue(raw), true, nil
}

func formatTOMLValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				parts = append(parts, fmt.Sprintf("'%s'", s))
				continue
			}
			parts = append(parts, fmt.Sprint(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(val)
	}
}
