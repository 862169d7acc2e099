// Package reader implements the minimal line-oriented reader for section/key-value files
// used by chainspecs, node configs, override files and network profiles.
//
// It deliberately does not validate TOML: no nesting, arrays of tables or multi-line values.
// Callers go through the Reader interface so a structured parser can be substituted.
package reader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tacogips/nodestage/internal/stage/model"
)

// Reader extracts single values by section and key.
type Reader interface {
	// Value returns the value of key inside section.
	// ok is false, with a nil error, when the section or key never appears.
	Value(section, key string) (value string, ok bool, err error)
}

// Kind selects a Reader implementation.
type Kind string

const (
	// KindLine selects the line-oriented LineReader.
	KindLine Kind = "line"
	// KindTOML selects the structured TOMLReader.
	KindTOML Kind = "toml"
)

// LineReader scans lines positionally.
type LineReader struct {
	path  string
	lines []string
}

// NewLineReader creates a LineReader over lines. path is used in error messages only.
func NewLineReader(path string, lines []string) *LineReader {
	return &LineReader{path: path, lines: lines}
}

// NewLineReaderFromFile reads path and splits it into lines.
func NewLineReaderFromFile(path string) (*LineReader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.NewIOError(path, "failed to read file", err)
	}
	lines, err := SplitLines(bytes.NewReader(data))
	if err != nil {
		return nil, model.NewIOError(path, "failed to scan file", err)
	}
	return NewLineReader(path, lines), nil
}

// Open returns a Reader of the requested kind for the file at path.
func Open(kind Kind, path string) (Reader, error) {
	switch kind {
	case KindTOML:
		return NewTOMLReaderFromFile(path)
	case KindLine, "":
		return NewLineReaderFromFile(path)
	default:
		return nil, fmt.Errorf("unknown reader kind %q", kind)
	}
}

// Value implements Reader.
func (r *LineReader) Value(section, key string) (string, bool, error) {
	current := ""
	for i, line := range r.lines {
		if name, ok := SectionHeader(line); ok {
			current = name
			continue
		}
		if current != section {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, key) || IsComment(trimmed) {
			continue
		}
		name, value, ok := SplitKeyValue(trimmed)
		if !ok {
			if trimmed == key {
				return "", false, model.NewMalformedLineError(r.path, i+1, trimmed)
			}
			continue
		}
		if name != key {
			continue
		}
		return Unquote(value), true, nil
	}
	return "", false, nil
}

// SectionHeader reports whether line is exactly "[name]" after trimming.
func SectionHeader(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 2 || trimmed[0] != '[' || trimmed[len(trimmed)-1] != ']' {
		return "", false
	}
	name := trimmed[1 : len(trimmed)-1]
	if strings.ContainsAny(name, "[]") {
		return "", false
	}
	return strings.TrimSpace(name), true
}

// IsComment reports whether a trimmed line is a '#' comment.
func IsComment(trimmed string) bool {
	return strings.HasPrefix(trimmed, "#")
}

// SplitKeyValue splits once on '=' and trims both sides.
func SplitKeyValue(line string) (name, value string, ok bool) {
	idx := strings.IndexByte(line, '=')
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}

// Unquote strips one pair of matching surrounding quote characters.
func Unquote(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' || first == '\'') && first == last {
			return value[1 : len(value)-1]
		}
	}
	return value
}

// SplitLines splits r into lines without trailing newline characters.
func SplitLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
