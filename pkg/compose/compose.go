// Package compose draws artwork into a carrier image through clip regions.
//
// A clip is passed to every Draw call and rasterized into a mask that lives
// only for that call, so one step can never leave a clip behind for the next.
package compose

import (
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// BackgroundPatch is the area of the stock blueprint artwork that a
// replacement background covers.
var BackgroundPatch = Polygon(
	image.Pt(0, 437),
	image.Pt(175, 437),
	image.Pt(175, 437),
	image.Pt(200, 465),
	image.Pt(200, 511),
	image.Pt(0, 511),
)

type regionKind uint8

const (
	kindNone regionKind = iota
	kindRect
	kindPolygon
)

// Region is a clip region: a rectangle or a polygon. The zero Region does
// not clip.
type Region struct {
	kind   regionKind
	rect   image.Rectangle
	points []image.Point
}

// Rect returns a rectangular clip region.
func Rect(r image.Rectangle) Region {
	return Region{kind: kindRect, rect: r.Canon()}
}

// Polygon returns a clip region bounded by pts in order. The path is closed
// implicitly; the first and last point need not coincide.
func Polygon(pts ...image.Point) Region {
	return Region{kind: kindPolygon, points: append([]image.Point(nil), pts...)}
}

// Bounds returns the smallest rectangle containing the region.
func (r Region) Bounds() image.Rectangle {
	switch r.kind {
	case kindRect:
		return r.rect
	case kindPolygon:
		if len(r.points) == 0 {
			return image.Rectangle{}
		}
		b := image.Rectangle{Min: r.points[0], Max: r.points[0]}
		for _, p := range r.points[1:] {
			b.Min.X, b.Min.Y = min(b.Min.X, p.X), min(b.Min.Y, p.Y)
			b.Max.X, b.Max.Y = max(b.Max.X, p.X), max(b.Max.Y, p.Y)
		}
		return b
	}
	return image.Rectangle{}
}

// Mask rasterizes the part of the region inside bounds. Points outside the
// mask's own bounds are transparent. It returns nil for the zero Region,
// meaning everything is drawable.
func (r Region) Mask(bounds image.Rectangle) image.Image {
	if r.kind == kindNone {
		return nil
	}
	area := bounds.Intersect(r.Bounds())
	m := image.NewAlpha(area)
	if area.Empty() {
		return m
	}

	switch r.kind {
	case kindRect:
		draw.Draw(m, area, image.Opaque, image.Point{}, draw.Src)
	case kindPolygon:
		if len(r.points) < 3 {
			return m
		}
		z := vector.NewRasterizer(area.Dx(), area.Dy())
		at := func(p image.Point) (float32, float32) {
			return float32(p.X - area.Min.X), float32(p.Y - area.Min.Y)
		}
		z.MoveTo(at(r.points[0]))
		for _, p := range r.points[1:] {
			z.LineTo(at(p))
		}
		z.ClosePath()
		z.Draw(m, area, image.Opaque, image.Point{})
	}
	return m
}

// Draw scales src into target on dst, touching only pixels inside clip.
func Draw(dst draw.Image, src image.Image, target image.Rectangle, clip Region) {
	target = target.Canon()
	if target.Empty() || src.Bounds().Empty() {
		return
	}
	if clip.kind != kindNone && !target.Overlaps(clip.Bounds()) {
		return
	}
	if target.Size() != src.Bounds().Size() {
		src = imaging.Resize(src, target.Dx(), target.Dy(), imaging.Lanczos)
	}

	opts := &xdraw.Options{DstMask: clip.Mask(dst.Bounds())}
	xdraw.Copy(dst, target.Min, src, src.Bounds(), xdraw.Over, opts)
}

// Background draws bg at the origin, at its own size, inside BackgroundPatch.
func Background(dst draw.Image, bg image.Image) {
	Draw(dst, bg, image.Rectangle{Max: bg.Bounds().Size()}, BackgroundPatch)
}

// Logo scales logo into r and clips it to r.
func Logo(dst draw.Image, logo image.Image, r image.Rectangle) {
	Draw(dst, logo, r, Rect(r))
}
