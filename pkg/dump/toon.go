// toon.go - TOON emission from an ordered Node tree.
// Layout follows github.com/alpkeskin/gotoon, which also encodes scalars and
// keys, but object members are written in tree order instead of sorted.
package dump

import (
	"strconv"
	"strings"

	"github.com/alpkeskin/gotoon"
)

const toonIndent = 2

// MarshalTOON encodes the tree as TOON, keeping member order.
func (n *Node) MarshalTOON() ([]byte, error) {
	if n.scalar() {
		return []byte(toonScalar(n)), nil
	}
	w := gotoon.NewLineWriter(toonIndent)
	if n.Kind == Array {
		writeTOONArray(w, "", n, 0, "")
	} else {
		for _, m := range n.Members {
			writeTOONMember(w, m, 0, "")
		}
	}
	return []byte(w.String()), nil
}

func (n *Node) scalar() bool {
	return n == nil || (n.Kind != Array && n.Kind != Object)
}

func toonScalar(n *Node) string {
	s, _ := gotoon.Encode(n.Interface())
	return s
}

func toonKey(key string) string {
	s, _ := gotoon.Encode(map[string]any{key: nil})
	return strings.TrimSuffix(s, gotoon.Colon+gotoon.Space+gotoon.NullLiteral)
}

func toonHeader(key string, length int, fields []string) string {
	var sb strings.Builder
	if key != "" {
		sb.WriteString(toonKey(key))
	}
	sb.WriteString(gotoon.OpenBracket + strconv.Itoa(length) + gotoon.CloseBracket)
	if len(fields) > 0 {
		keys := make([]string, len(fields))
		for i, f := range fields {
			keys[i] = toonKey(f)
		}
		sb.WriteString(gotoon.OpenBrace + strings.Join(keys, gotoon.DefaultDelimiter) + gotoon.CloseBrace)
	}
	sb.WriteString(gotoon.Colon)
	return sb.String()
}

func toonInline(key string, n *Node) string {
	header := toonHeader(key, len(n.Items), nil)
	if len(n.Items) == 0 {
		return header
	}
	vals := make([]string, len(n.Items))
	for i, it := range n.Items {
		vals[i] = toonScalar(it)
	}
	return header + gotoon.Space + strings.Join(vals, gotoon.DefaultDelimiter)
}

// writeTOONMember writes one key/value pair. prefix is the list item marker
// when the pair opens an object inside a list.
func writeTOONMember(w *gotoon.LineWriter, m Member, depth int, prefix string) {
	v := m.Value
	switch {
	case v.scalar():
		w.Push(depth, prefix+toonKey(m.Key)+gotoon.Colon+gotoon.Space+toonScalar(v))
	case v.Kind == Array:
		writeTOONArray(w, m.Key, v, depth, prefix)
	default:
		w.Push(depth, prefix+toonKey(m.Key)+gotoon.Colon)
		child := depth + 1
		if prefix != "" {
			child++
		}
		for _, mm := range v.Members {
			writeTOONMember(w, mm, child, "")
		}
	}
}

func writeTOONArray(w *gotoon.LineWriter, key string, n *Node, depth int, prefix string) {
	if allScalars(n.Items) {
		w.Push(depth, prefix+toonInline(key, n))
		return
	}
	if fields := tabularFields(n.Items); fields != nil {
		w.Push(depth, prefix+toonHeader(key, len(n.Items), fields))
		for _, it := range n.Items {
			row := make([]string, len(it.Members))
			for i, m := range it.Members {
				row[i] = toonScalar(m.Value)
			}
			w.Push(depth+1, strings.Join(row, gotoon.DefaultDelimiter))
		}
		return
	}

	w.Push(depth, prefix+toonHeader(key, len(n.Items), nil))
	for _, it := range n.Items {
		switch {
		case it.scalar():
			w.Push(depth+1, gotoon.ListItemPrefix+toonScalar(it))
		case it.Kind == Array:
			writeTOONArray(w, "", it, depth+1, gotoon.ListItemPrefix)
		case len(it.Members) == 0:
			w.Push(depth+1, gotoon.ListItemMarker)
		default:
			writeTOONMember(w, it.Members[0], depth+1, gotoon.ListItemPrefix)
			for _, m := range it.Members[1:] {
				writeTOONMember(w, m, depth+2, "")
			}
		}
	}
}

func allScalars(items []*Node) bool {
	for _, it := range items {
		if !it.scalar() {
			return false
		}
	}
	return true
}

// tabularFields returns the shared keys of items when every item is a
// non-empty object with the same keys in the same order and scalar values.
func tabularFields(items []*Node) []string {
	if len(items) == 0 || items[0] == nil || items[0].Kind != Object || len(items[0].Members) == 0 {
		return nil
	}
	fields := make([]string, len(items[0].Members))
	for i, m := range items[0].Members {
		fields[i] = m.Key
	}
	for _, it := range items {
		if it == nil || it.Kind != Object || len(it.Members) != len(fields) {
			return nil
		}
		for i, m := range it.Members {
			if m.Key != fields[i] || !m.Value.scalar() {
				return nil
			}
		}
	}
	return fields
}
