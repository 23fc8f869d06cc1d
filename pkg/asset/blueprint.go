// blueprint.go - Default blueprint codec: a gzip-compressed entity stream
// carried in the low bits of the blueprint PNG.
package asset

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"image"

	"github.com/parkitectnexus/assettools/pkg/carrier"
)

// BlueprintReader extracts and decodes the payload of a blueprint image.
type BlueprintReader struct{}

// Read decodes the blueprint carried by img. Every failure wraps ErrInvalidBlueprint.
func (BlueprintReader) Read(img image.Image) (*Blueprint, error) {
	raw, err := carrier.Extract(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBlueprint, err)
	}
	return DecodeBlueprint(raw)
}

// BlueprintWriter embeds a blueprint payload into a carrier image.
type BlueprintWriter struct{}

// Write embeds bp into dst. The original payload is reused verbatim when the
// blueprint was decoded from an image.
func (BlueprintWriter) Write(bp *Blueprint, dst *image.NRGBA) error {
	payload := bp.Raw
	if payload == nil {
		var err error
		if payload, err = EncodeBlueprint(bp); err != nil {
			return err
		}
	}
	return carrier.Embed(dst, payload)
}

// DecodeBlueprint parses a raw (compressed) blueprint payload.
func DecodeBlueprint(raw []byte) (*Blueprint, error) {
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBlueprint, err)
	}
	defer zr.Close()

	elements, err := decodeLines(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBlueprint, err)
	}

	bp := &Blueprint{Raw: raw}
	for _, el := range elements {
		if h, ok := el.(*BlueprintHeader); ok && bp.Header == nil {
			bp.Header = h
			continue
		}
		bp.Elements = append(bp.Elements, el)
	}
	if bp.Header == nil {
		return nil, fmt.Errorf("%w: missing header", ErrInvalidBlueprint)
	}
	return bp, nil
}

// EncodeBlueprint serializes bp into a compressed payload, header first.
func EncodeBlueprint(bp *Blueprint) ([]byte, error) {
	if bp.Header == nil {
		return nil, fmt.Errorf("encode blueprint: missing header")
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	elements := append([]Element{bp.Header}, bp.Elements...)
	if err := encodeLines(zw, elements); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Coaster returns the first coaster of the blueprint, or nil.
func (bp *Blueprint) Coaster() *Coaster {
	for _, el := range bp.Elements {
		if c, ok := el.(*Coaster); ok {
			return c
		}
	}
	return nil
}
