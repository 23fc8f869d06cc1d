// lines.go - JSON-lines entity stream. Every non-blank line is one JSON object
// whose "@type" member names the entity.
package asset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	ErrInvalidBlueprint = errors.New("invalid blueprint")
	ErrInvalidSavegame  = errors.New("invalid savegame")
)

// maxLineSize bounds a single entity line.
const maxLineSize = 64 << 20

type typeTag struct {
	Type string `json:"@type"`
}

// newElement returns an empty entity for a known type name, or nil.
func newElement(typ string) Element {
	switch typ {
	case "BlueprintHeader":
		return &BlueprintHeader{}
	case "Coaster":
		return &Coaster{}
	case "SavegameHeader":
		return &SavegameHeader{}
	case "Park":
		return &Park{}
	}
	return nil
}

// decodeLines reads an entity stream. Unknown types become *RawElement.
func decodeLines(r io.Reader) ([]Element, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineSize)

	var elements []Element
	for n := 1; sc.Scan(); n++ {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		var tag typeTag
		if err := json.Unmarshal(line, &tag); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		if tag.Type == "" {
			return nil, fmt.Errorf("line %d: missing @type", n)
		}

		el := newElement(tag.Type)
		if el == nil {
			elements = append(elements, &RawElement{Type: tag.Type, Line: bytes.Clone(line)})
			continue
		}
		if err := json.Unmarshal(line, el); err != nil {
			return nil, fmt.Errorf("line %d (%s): %w", n, tag.Type, err)
		}
		elements = append(elements, el)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return elements, nil
}

// encodeLines writes elements as an entity stream, one line each.
func encodeLines(w io.Writer, elements []Element) error {
	for _, el := range elements {
		line, err := encodeElement(el)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return err
		}
	}
	return nil
}

func encodeElement(el Element) ([]byte, error) {
	if raw, ok := el.(*RawElement); ok {
		return raw.Line, nil
	}

	body, err := json.Marshal(el)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", el.TypeName(), err)
	}
	tag, err := json.Marshal(typeTag{Type: el.TypeName()})
	if err != nil {
		return nil, err
	}

	// Splice the tag in front of the entity members.
	if len(body) == 2 {
		return tag, nil
	}
	line := append(tag[:len(tag)-1], ',')
	return append(line, body[1:]...), nil
}
