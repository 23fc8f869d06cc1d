// Package dump turns decoded assets into structured documents with a
// caller-chosen set of fields left out.
//
// Values are first encoded with encoding/json, which lists struct fields in
// declaration order, and then parsed into an ordered Node tree. Filtering and
// emission work on that tree, so the output keeps the source field order.
package dump

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Kind is the type of a Node.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

// Member is one key/value pair of an Object node.
type Member struct {
	Key   string
	Value *Node
}

// Node is an ordered, format-neutral document tree.
type Node struct {
	Kind    Kind
	Scalar  json.RawMessage // encoded literal for Bool, Number and String
	Items   []*Node
	Members []Member
}

// Build encodes v and returns its document tree.
func Build(v any) (*Node, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("dump: encode: %w", err)
	}
	return Parse(data)
}

// Parse reads a single JSON document into a tree, keeping member order.
func Parse(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	n, err := parseNode(dec)
	if err != nil {
		return nil, fmt.Errorf("dump: parse: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("dump: parse: trailing data")
	}
	return n, nil
}

func parseNode(dec *json.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case nil:
		return &Node{Kind: Null}, nil
	case bool:
		lit := "false"
		if t {
			lit = "true"
		}
		return &Node{Kind: Bool, Scalar: json.RawMessage(lit)}, nil
	case json.Number:
		return &Node{Kind: Number, Scalar: json.RawMessage(t.String())}, nil
	case string:
		lit, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: String, Scalar: lit}, nil
	case json.Delim:
		switch t {
		case '{':
			n := &Node{Kind: Object, Members: []Member{}}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected key %v", keyTok)
				}
				child, err := parseNode(dec)
				if err != nil {
					return nil, err
				}
				n.Members = append(n.Members, Member{Key: key, Value: child})
			}
			_, err := dec.Token()
			return n, err
		case '[':
			n := &Node{Kind: Array, Items: []*Node{}}
			for dec.More() {
				child, err := parseNode(dec)
				if err != nil {
					return nil, err
				}
				n.Items = append(n.Items, child)
			}
			_, err := dec.Token()
			return n, err
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// Without returns a copy of the tree with every object member whose key is
// in excluded removed, at any depth.
func (n *Node) Without(excluded FieldSet) *Node {
	if n == nil {
		return nil
	}

	switch n.Kind {
	case Object:
		out := &Node{Kind: Object, Members: make([]Member, 0, len(n.Members))}
		for _, m := range n.Members {
			if excluded.Has(m.Key) {
				continue
			}
			out.Members = append(out.Members, Member{Key: m.Key, Value: m.Value.Without(excluded)})
		}
		return out
	case Array:
		out := &Node{Kind: Array, Items: make([]*Node, len(n.Items))}
		for i, it := range n.Items {
			out.Items[i] = it.Without(excluded)
		}
		return out
	}
	return n
}

// Keys returns every object key in the tree in document order.
func (n *Node) Keys() []string {
	var keys []string
	n.walk(func(m Member) { keys = append(keys, m.Key) })
	return keys
}

func (n *Node) walk(fn func(Member)) {
	if n == nil {
		return
	}
	for _, m := range n.Members {
		fn(m)
		m.Value.walk(fn)
	}
	for _, it := range n.Items {
		it.walk(fn)
	}
}

// MarshalJSON implements json.Marshaler. The output is compact and keeps
// member order.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	n.writeJSON(&buf)
	return buf.Bytes(), nil
}

func (n *Node) writeJSON(buf *bytes.Buffer) {
	if n == nil {
		buf.WriteString("null")
		return
	}

	switch n.Kind {
	case Null:
		buf.WriteString("null")
	case Bool, Number, String:
		buf.Write(n.Scalar)
	case Array:
		buf.WriteByte('[')
		for i, it := range n.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			it.writeJSON(buf)
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, m := range n.Members {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, _ := json.Marshal(m.Key)
			buf.Write(key)
			buf.WriteByte(':')
			m.Value.writeJSON(buf)
		}
		buf.WriteByte('}')
	}
}

// Interface converts the tree to plain Go values: map[string]any, []any,
// string, bool, int64, float64 and nil. Member order is lost.
func (n *Node) Interface() any {
	if n == nil {
		return nil
	}

	switch n.Kind {
	case Bool:
		return string(n.Scalar) == "true"
	case Number:
		num := json.Number(n.Scalar)
		if i, err := num.Int64(); err == nil {
			return i
		}
		f, _ := num.Float64()
		return f
	case String:
		var s string
		_ = json.Unmarshal(n.Scalar, &s)
		return s
	case Array:
		out := make([]any, len(n.Items))
		for i, it := range n.Items {
			out[i] = it.Interface()
		}
		return out
	case Object:
		out := make(map[string]any, len(n.Members))
		for _, m := range n.Members {
			out[m.Key] = m.Value.Interface()
		}
		return out
	}
	return nil
}
