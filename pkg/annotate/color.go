// color.go - Parse directive colors.
package annotate

import (
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Black is used for any color that cannot be parsed.
var Black = color.NRGBA{A: 0xff}

// ParseColor converts a color spec to a color. One leading '#' is dropped.
// Up to six hex digits are an opaque RRGGBB value, seven or eight are
// AARRGGBB. Anything else is looked up as a color name, and unknown names
// give Black.
func ParseColor(spec string) color.NRGBA {
	s := strings.TrimPrefix(strings.TrimSpace(spec), "#")

	if n := len(s); n > 0 && n <= 8 {
		if v, err := strconv.ParseUint(s, 16, 32); err == nil {
			c := color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
			if n > 6 {
				c.A = uint8(v >> 24)
			}
			return c
		}
	}

	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
	}
	return Black
}
