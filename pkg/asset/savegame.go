// savegame.go - Default savegame codec: an entity stream stored as text,
// optionally gzip-compressed.
package asset

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// SavegameReader decodes savegame streams.
type SavegameReader struct{}

// Decode reads a savegame from r. Every failure wraps ErrInvalidSavegame.
func (SavegameReader) Decode(r io.Reader) (*Savegame, error) {
	br := bufio.NewReader(r)
	var src io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSavegame, err)
		}
		defer zr.Close()
		src = zr
	}

	elements, err := decodeLines(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSavegame, err)
	}

	sg := &Savegame{}
	for _, el := range elements {
		switch v := el.(type) {
		case *SavegameHeader:
			if sg.Header == nil {
				sg.Header = v
				continue
			}
		case *Park:
			if sg.Park == nil {
				sg.Park = v
				continue
			}
		}
		sg.Elements = append(sg.Elements, el)
	}
	if sg.Header == nil {
		return nil, fmt.Errorf("%w: missing header", ErrInvalidSavegame)
	}
	return sg, nil
}

// EncodeSavegame writes sg as an uncompressed entity stream.
func EncodeSavegame(w io.Writer, sg *Savegame) error {
	if sg.Header == nil {
		return fmt.Errorf("encode savegame: missing header")
	}
	elements := []Element{sg.Header}
	if sg.Park != nil {
		elements = append(elements, sg.Park)
	}
	return encodeLines(w, append(elements, sg.Elements...))
}

// EncodeSavegameBytes is EncodeSavegame into a byte slice.
func EncodeSavegameBytes(sg *Savegame) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeSavegame(&buf, sg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
