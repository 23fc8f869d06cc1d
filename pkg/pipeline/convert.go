// Package pipeline wires the asset codecs, compositor and annotator into the
// operations the command line and HTTP API expose.
package pipeline

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/parkitectnexus/assettools/pkg/annotate"
	"github.com/parkitectnexus/assettools/pkg/asset"
	"github.com/parkitectnexus/assettools/pkg/carrier"
	"github.com/parkitectnexus/assettools/pkg/compose"
	"github.com/parkitectnexus/assettools/pkg/generator"
)

// BlueprintReader decodes the blueprint carried by an image.
type BlueprintReader interface {
	Read(img image.Image) (*asset.Blueprint, error)
}

// BlueprintWriter embeds a blueprint into an image.
type BlueprintWriter interface {
	Write(bp *asset.Blueprint, dst *image.NRGBA) error
}

// SavegameReader decodes a savegame stream.
type SavegameReader interface {
	Decode(r io.Reader) (*asset.Savegame, error)
}

// FontLoader resolves a font spec to a family.
type FontLoader interface {
	Load(spec string) (*annotate.Family, error)
}

// DefaultLogoRect is where the logo goes on the stock blueprint artwork.
var DefaultLogoRect = image.Rect(14, 418, 14+160, 418+80)

// ConvertOptions selects the artwork and text applied to a blueprint.
// An image field takes precedence over the path next to it, and FontData
// over Font. Empty paths skip their step.
type ConvertOptions struct {
	Background      string
	BackgroundImage image.Image
	Logo            string
	LogoImage       image.Image
	LogoRect        image.Rectangle // zero means DefaultLogoRect

	Font      string
	FontData  []byte
	FontStyle annotate.Style
	DrawText  []string
}

// DefaultConvertOptions returns the options used when nothing is configured.
func DefaultConvertOptions() ConvertOptions {
	return ConvertOptions{
		Background: "blueprint_bg.png",
		Logo:       "logo.png",
		LogoRect:   DefaultLogoRect,
		Font:       "Arial",
	}
}

// Converter restyles blueprint images while keeping their payload.
// A Converter runs one conversion at a time.
type Converter struct {
	Reader BlueprintReader
	Writer BlueprintWriter
	Fonts  FontLoader

	stage Stage
}

// NewConverter returns a Converter using the default codecs and font loader.
func NewConverter() *Converter {
	return &Converter{
		Reader: asset.BlueprintReader{},
		Writer: asset.BlueprintWriter{},
		Fonts:  &annotate.Loader{},
	}
}

// Stage returns the stage the last conversion reached.
func (c *Converter) Stage() Stage { return c.stage }

// Convert decodes the blueprint image in data, draws the background, logo
// and text over it and embeds the blueprint payload again. The payload is
// embedded last so no drawing step can disturb it.
func (c *Converter) Convert(data []byte, opts ConvertOptions) (out *image.NRGBA, err error) {
	defer recoverInternal(&err)

	c.enter(StageDecoding)
	img, err := DecodeCarrier(data)
	if err != nil {
		return nil, c.fail(err)
	}
	bp, err := c.Reader.Read(img)
	if err != nil {
		return nil, c.fail(invalidFormat(err))
	}

	c.enter(StageCompositing)
	if err := c.composite(img, opts); err != nil {
		return nil, c.fail(err)
	}

	c.enter(StageAnnotating)
	if err := c.annotate(img, opts); err != nil {
		return nil, c.fail(err)
	}

	c.enter(StageEncoding)
	if err := c.Writer.Write(bp, img); err != nil {
		return nil, c.fail(err)
	}

	c.enter(StageDone)
	return img, nil
}

func (c *Converter) enter(s Stage) {
	c.stage = s
	Logger().Debug("convert stage", "stage", s)
}

func (c *Converter) fail(err error) error {
	return &StageError{Stage: c.stage, Err: err}
}

func (c *Converter) composite(img *image.NRGBA, opts ConvertOptions) error {
	bg, err := artwork(opts.BackgroundImage, opts.Background)
	if err != nil {
		return fmt.Errorf("background: %w", err)
	}
	if bg != nil {
		compose.Background(img, bg)
	}

	logo, err := artwork(opts.LogoImage, opts.Logo)
	if err != nil {
		return fmt.Errorf("logo: %w", err)
	}
	if logo != nil {
		r := opts.LogoRect
		if r == (image.Rectangle{}) {
			r = DefaultLogoRect
		}
		compose.Logo(img, logo, r)
	}
	return nil
}

func artwork(img image.Image, path string) (image.Image, error) {
	if img != nil || path == "" {
		return img, nil
	}
	return compose.LoadImage(path)
}

func (c *Converter) annotate(img *image.NRGBA, opts ConvertOptions) error {
	if (opts.Font == "" && len(opts.FontData) == 0) || len(opts.DrawText) == 0 {
		return nil
	}

	var (
		fam *annotate.Family
		err error
	)
	if len(opts.FontData) > 0 {
		fam, err = annotate.LoadBytes(opts.FontData, 0)
	} else {
		fam, err = c.Fonts.Load(opts.Font)
	}
	if err != nil {
		return err
	}
	defer fam.Close()

	directives, skipped := annotate.ParseAll(opts.DrawText)
	for _, err := range skipped {
		Logger().Debug("skipping text directive", "err", err)
	}

	a := &annotate.Annotator{Family: fam, Style: opts.FontStyle}
	return a.DrawAll(img, directives)
}

// DecodeCarrier decodes blueprint image bytes into a mutable NRGBA image.
func DecodeCarrier(data []byte) (*image.NRGBA, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, invalidFormat(fmt.Errorf("%w: decode png: %v", asset.ErrInvalidBlueprint, err))
	}
	return carrier.NRGBA(img), nil
}

func invalidFormat(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
}

// EncodePNG returns img as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := generator.GenerateToWriter(&buf, generator.PNG, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteOutput writes img as a PNG file at path. With an empty path the PNG
// is written to stdout as one line of base64.
func WriteOutput(img image.Image, path string, stdout io.Writer) error {
	if path != "" {
		if err := generator.WriteFile(path, generator.PNG, img); err != nil {
			return err
		}
		Logger().Info("wrote blueprint", "path", path)
		return nil
	}

	data, err := EncodePNG(img)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, base64.StdEncoding.EncodeToString(data))
	return err
}
