// color.go - Solid image creation.
package generator

import (
	"image"
	"image/color"
	"image/draw"
)

// NewSolidImage creates a uniform w×h image filled with c.
func NewSolidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}
