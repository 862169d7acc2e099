package reader

import (
	"strings"

	"github.com/tacogips/nodestage/internal/stage/model"
)

// ParseArray splits a literal single-line list such as ['a:1', 'b:2'].
// The value must be wrapped in exactly one bracket pair.
func ParseArray(value string) ([]string, error) {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) < 2 || trimmed[0] != '[' || trimmed[len(trimmed)-1] != ']' {
		return nil, model.NewMalformedArrayError(value)
	}
	inner := trimmed[1 : len(trimmed)-1]
	if strings.ContainsAny(inner, "[]") {
		return nil, model.NewMalformedArrayError(value)
	}

	var items []string
	for _, part := range strings.Split(inner, ",") {
		item := Unquote(strings.TrimSpace(part))
		if item == "" {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}
