// draw.go - Draw text directives onto an image.
// Styles the font itself lacks are synthesized: bold by overstriking,
// italic by shearing, underline and strikeout as filled rules.
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

const italicShear = 0.2

// maxScale bounds the pixel size of a directive to this many times the
// larger side of the destination. Glyph masks grow with the square of it.
const maxScale = 4

// Annotator draws directives with one font family and style.
type Annotator struct {
	Family *Family
	Style  Style
}

// DrawAll draws each directive in order.
func (a *Annotator) DrawAll(dst draw.Image, ds []Directive) error {
	for _, d := range ds {
		if err := a.Draw(dst, d); err != nil {
			return err
		}
	}
	return nil
}

// Draw renders one directive with its top-left corner at (d.X, d.Y).
// Directives too large for dst are skipped.
func (a *Annotator) Draw(dst draw.Image, d Directive) error {
	if d.Text == "" {
		return nil
	}
	b := dst.Bounds()
	if px := d.Size * DPI / 72; px > float64(maxScale*max(b.Dx(), b.Dy())) {
		Logger().Debug("skipping oversized text", "text", d.Text, "size", d.Size, "bounds", b)
		return nil
	}
	face, err := a.Family.Face(d.Size)
	if err != nil {
		return fmt.Errorf("draw %q: %w", d.Text, err)
	}
	defer face.Close()

	m := face.Metrics()
	ascent := m.Ascent.Ceil()
	baseline := d.Y + ascent
	bold := 0
	if a.Style&Bold != 0 {
		bold = max(1, int(math.Round(d.Size/24)))
	}

	if a.Style&Italic != 0 {
		drawOblique(dst, face, d.Text, d.X, d.Y, d.Color, bold)
	} else {
		drawString(dst, face, d.Text, fixed.P(d.X, baseline), d.Color, bold)
	}

	if a.Style&(Underline|Strikeout) == 0 {
		return nil
	}
	width := font.MeasureString(face, d.Text).Ceil() + bold
	thick := max(1, int(math.Round(d.Size*DPI/72/14)))
	src := image.NewUniform(d.Color)
	if a.Style&Underline != 0 {
		y := baseline + max(1, m.Descent.Ceil()/3)
		draw.Draw(dst, image.Rect(d.X, y, d.X+width, y+thick), src, image.Point{}, draw.Over)
	}
	if a.Style&Strikeout != 0 {
		xh := m.XHeight.Ceil()
		if xh <= 0 {
			xh = ascent / 2
		}
		y := baseline - xh/2 - thick/2
		draw.Draw(dst, image.Rect(d.X, y, d.X+width, y+thick), src, image.Point{}, draw.Over)
	}
	return nil
}

// drawString draws text with its baseline origin at dot. bold > 0 overstrikes
// the text that many pixels to the right.
func drawString(dst draw.Image, face font.Face, text string, dot fixed.Point26_6, col color.Color, bold int) {
	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
	}
	for dx := 0; dx <= bold; dx++ {
		drawer.Dot = dot.Add(fixed.P(dx, 0))
		drawer.DrawString(text)
	}
}

// drawOblique renders text upright into a scratch image and shears it onto
// dst, leaning right about the baseline. The scratch image only covers the
// columns that can land inside dst.
func drawOblique(dst draw.Image, face font.Face, text string, x, y int, col color.Color, bold int) {
	m := face.Metrics()
	ascent := m.Ascent.Ceil()
	height := ascent + m.Descent.Ceil()
	width := font.MeasureString(face, text).Ceil() + bold + 1

	lean := int(math.Ceil(italicShear * float64(height)))
	b := dst.Bounds()
	left := max(0, b.Min.X-x-lean)
	right := min(width, b.Max.X-x+lean)
	if right <= left || height <= 0 {
		return
	}

	tmp := image.NewNRGBA(image.Rect(0, 0, right-left, height))
	drawString(tmp, face, text, fixed.P(-left, ascent), col, bold)

	// dst = (x + left + sx + shear*(ascent-sy), y + sy)
	s2d := f64.Aff3{
		1, -italicShear, float64(x+left) + italicShear*float64(ascent),
		0, 1, float64(y),
	}
	xdraw.ApproxBiLinear.Transform(dst, s2d, tmp, tmp.Bounds(), xdraw.Over, nil)
}

// TextBounds returns the pixel rectangle d covers when drawn upright without
// synthesized styles.
func (a *Annotator) TextBounds(d Directive) (image.Rectangle, error) {
	face, err := a.Family.Face(d.Size)
	if err != nil {
		return image.Rectangle{}, err
	}
	defer face.Close()

	b, _ := font.BoundString(face, d.Text)
	baseline := d.Y + face.Metrics().Ascent.Ceil()
	return image.Rect(
		d.X+b.Min.X.Floor(), baseline+b.Min.Y.Floor(),
		d.X+b.Max.X.Ceil(), baseline+b.Max.Y.Ceil(),
	), nil
}
