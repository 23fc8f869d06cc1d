// convert.go - The blueprint-convert command.
package main

import (
	"errors"
	"image"

	"github.com/parkitectnexus/assettools/pkg/annotate"
	"github.com/parkitectnexus/assettools/pkg/generator"
	"github.com/parkitectnexus/assettools/pkg/pipeline"
	"github.com/spf13/cobra"
)

var errEmptyLogoRect = errors.New("logo rectangle needs a positive width and height")

func (a *app) newConvertCmd() *cobra.Command {
	def := pipeline.DefaultConvertOptions()

	cmd := &cobra.Command{
		Use:   "blueprint-convert [flags] <path|data>",
		Short: "Restyle a blueprint image and keep its payload",
		Long: `Replace the background and logo of a blueprint image, draw text on it and
write it back with the original blueprint embedded.

Each --draw-text is "x,y,color,size text": color is a hex value
(RRGGBB or AARRGGBB, '#' optional) or a color name, size is in points.
Malformed directives are skipped. Without --draw-text the convert.draw_text
config list applies; ASSETTOOLS_CONVERT_DRAW_TEXT holds one directive per
line. --font takes a .ttf/.otf/.ttc path,
one of the built-in Go fonts ("Go", "Go Bold", "Go Italic", "Go Mono")
or a system font name. Without --output the image is printed as base64.
Pass --background= or --logo= to skip that step.`,
		Args: exactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return a.bind(cmd.Flags(), map[string]string{
				"convert.background":  "background",
				"convert.logo":        "logo",
				"convert.logo_x":      "logo-x",
				"convert.logo_y":      "logo-y",
				"convert.logo_width":  "logo-width",
				"convert.logo_height": "logo-height",
				"convert.font":        "font",
				"convert.font_style":  "font-style",
				"convert.preview":     "preview",
			})
		},
		RunE: a.runConvert,
	}

	f := cmd.Flags()
	f.Bool("raw", false, "treat the argument as base64 image data instead of a path")
	f.StringP("output", "o", "", "output path (default: base64 to stdout)")
	f.String("background", def.Background, "background image, drawn through the artwork patch")
	f.String("logo", def.Logo, "logo image, scaled into the logo rectangle")
	f.Int("logo-x", def.LogoRect.Min.X, "logo rectangle left edge")
	f.Int("logo-y", def.LogoRect.Min.Y, "logo rectangle top edge")
	f.Int("logo-width", def.LogoRect.Dx(), "logo rectangle width")
	f.Int("logo-height", def.LogoRect.Dy(), "logo rectangle height")
	f.String("font", def.Font, "font file, built-in font or system font name")
	f.String("font-style", "Regular", "comma separated: Bold, Italic, Underline, Strikeout")
	f.StringArray("draw-text", nil, `text directive "x,y,color,size text" (repeatable)`)
	f.String("preview", "", "also write a lossless preview (.png or .webp)")
	return cmd
}

// logoRect reads the logo rectangle from the convert.logo_* keys. Each key
// left unset falls back to pipeline.DefaultLogoRect.
func (a *app) logoRect() (image.Rectangle, error) {
	def := pipeline.DefaultLogoRect
	get := func(key string, d int) int {
		if a.v.IsSet(key) {
			return a.v.GetInt(key)
		}
		return d
	}
	x, y := get("convert.logo_x", def.Min.X), get("convert.logo_y", def.Min.Y)
	w, h := get("convert.logo_width", def.Dx()), get("convert.logo_height", def.Dy())
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, usageError{errEmptyLogoRect}
	}
	return image.Rect(x, y, x+w, y+h), nil
}

func (a *app) runConvert(cmd *cobra.Command, args []string) error {
	style, err := annotate.ParseStyle(a.v.GetString("convert.font_style"))
	if err != nil {
		return usageError{err}
	}

	rect, err := a.logoRect()
	if err != nil {
		return err
	}
	opts := pipeline.ConvertOptions{
		Background: a.v.GetString("convert.background"),
		Logo:       a.v.GetString("convert.logo"),
		LogoRect:   rect,
		Font:       a.v.GetString("convert.font"),
		FontStyle:  style,
		DrawText:   a.drawText(cmd.Flags()),
	}

	preview := a.v.GetString("convert.preview")
	if preview != "" {
		if _, err := generator.FormatOf(preview); err != nil {
			return usageError{err}
		}
	}

	raw, _ := cmd.Flags().GetBool("raw")
	data, err := pipeline.ResolveBlueprint(args[0], raw)
	if err != nil {
		return err
	}

	img, err := pipeline.NewConverter().Convert(data, opts)
	if err != nil {
		return err
	}

	if preview != "" {
		if err := generator.Generate(preview, img); err != nil {
			pipeline.Logger().Warn("preview export failed", "path", preview, "error", err)
		} else {
			pipeline.Logger().Info("wrote preview", "path", preview)
		}
	}

	output, _ := cmd.Flags().GetString("output")
	return pipeline.WriteOutput(img, output, cmd.OutOrStdout())
}
