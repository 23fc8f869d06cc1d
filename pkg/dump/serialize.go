// serialize.go - Field sets and output formats.
package dump

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FieldSet is a set of field names. Membership is by name only: a name
// excludes the field on every entity that declares it.
type FieldSet map[string]struct{}

// NewFieldSet returns a set holding the non-blank names.
func NewFieldSet(names ...string) FieldSet {
	s := make(FieldSet, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

// Has reports whether name is in the set. A nil set holds nothing.
func (s FieldSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the members in sorted order.
func (s FieldSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Format selects the textual output of Serialize.
type Format string

const (
	FormatJSON       Format = "json"
	FormatJSONIndent Format = "json-indent"
	FormatTOON       Format = "toon"
)

// ParseFormat validates a format name. Empty means FormatJSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatJSONIndent, FormatTOON:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q: use json, json-indent or toon", s)
}

// Serialize encodes v with every field named in excluded left out.
func Serialize(v any, excluded FieldSet, format Format) ([]byte, error) {
	root, err := Build(v)
	if err != nil {
		return nil, err
	}
	root = root.Without(excluded)

	switch format {
	case FormatJSON, "":
		return root.MarshalJSON()
	case FormatJSONIndent:
		compact, _ := root.MarshalJSON()
		var buf bytes.Buffer
		if err := json.Indent(&buf, compact, "", "  "); err != nil {
			return nil, fmt.Errorf("dump: indent: %w", err)
		}
		return buf.Bytes(), nil
	case FormatTOON:
		out, err := root.MarshalTOON()
		if err != nil {
			return nil, fmt.Errorf("dump: encode toon: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("dump: unknown format %q", format)
}
