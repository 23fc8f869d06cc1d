// png.go - PNG and WebP encoders.
package generator

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/HugoSmits86/nativewebp"
)

var pngEncoder = png.Encoder{CompressionLevel: png.BestCompression}

// writePNG encodes img as PNG. Blueprint images travel through mod sites, so
// size matters more than encode time.
func writePNG(w io.Writer, img image.Image) error {
	if err := pngEncoder.Encode(w, img); err != nil {
		return fmt.Errorf("encode PNG: %w", err)
	}
	return nil
}

// writeWebP encodes img as lossless WebP.
func writeWebP(w io.Writer, img image.Image) error {
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return fmt.Errorf("encode WebP: %w", err)
	}
	return nil
}
