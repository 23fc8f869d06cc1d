// Package generator writes finished blueprint images.
//
// Blueprints must be written losslessly or the payload in the low bits is
// lost, so only PNG and lossless WebP are offered. PNG is what the game
// reads; WebP is for previews.
package generator

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format is an output image format, named by its file extension.
type Format string

const (
	PNG  Format = ".png"
	WebP Format = ".webp"
)

// FormatOf returns the format for path's extension.
func FormatOf(path string) (Format, error) {
	switch f := Format(strings.ToLower(filepath.Ext(path))); f {
	case PNG, WebP:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q: use .png or .webp", f)
	}
}

// Generate writes img to output. The format is inferred from the extension:
//   - ".png" → PNG image
//   - ".webp" → lossless WebP image
func Generate(output string, img image.Image) error {
	f, err := FormatOf(output)
	if err != nil {
		return err
	}
	return WriteFile(output, f, img)
}

// WriteFile writes img to output in format f, whatever the extension.
// A failed write leaves no file behind.
func WriteFile(output string, f Format, img image.Image) error {
	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	if err := GenerateToWriter(file, f, img); err != nil {
		file.Close()
		os.Remove(output)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(output)
		return fmt.Errorf("close %s: %w", output, err)
	}
	return nil
}

// GenerateToWriter encodes img to w. This is what the HTTP API uses to answer
// without touching the filesystem.
func GenerateToWriter(w io.Writer, f Format, img image.Image) error {
	switch f {
	case PNG:
		return writePNG(w, img)
	case WebP:
		return writeWebP(w, img)
	default:
		return fmt.Errorf("unsupported format %q: use .png or .webp", f)
	}
}
