// directive.go - Parse "x,y,color,size text" drawing directives.
package annotate

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedDirective is returned by Parse for directives that are skipped.
var ErrMalformedDirective = errors.New("malformed text directive")

// MaxSize is the largest point size Parse accepts.
const MaxSize = 1000

// Directive places one line of text. X and Y are the top-left corner of the
// text in pixels and Size is in points.
type Directive struct {
	X, Y  int
	Color color.NRGBA
	Size  float64
	Text  string
}

// Parse reads a directive of the form "x,y,color,size text". Everything
// after the first space is the text, spaces included. Fields after the
// fourth are ignored.
func Parse(s string) (Directive, error) {
	meta, text, ok := strings.Cut(s, " ")
	if !ok {
		return Directive{}, fmt.Errorf("%w: no text in %q", ErrMalformedDirective, s)
	}

	fields := strings.Split(meta, ",")
	if len(fields) < 4 {
		return Directive{}, fmt.Errorf("%w: want x,y,color,size in %q", ErrMalformedDirective, meta)
	}

	x, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return Directive{}, fmt.Errorf("%w: bad x %q", ErrMalformedDirective, fields[0])
	}
	y, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return Directive{}, fmt.Errorf("%w: bad y %q", ErrMalformedDirective, fields[1])
	}
	size, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
	if err != nil || math.IsNaN(size) || math.IsInf(size, 0) || size <= 0 {
		return Directive{}, fmt.Errorf("%w: bad size %q", ErrMalformedDirective, fields[3])
	}
	if size > MaxSize {
		return Directive{}, fmt.Errorf("%w: size %g above %dpt", ErrMalformedDirective, size, MaxSize)
	}

	return Directive{
		X:     x,
		Y:     y,
		Color: ParseColor(fields[2]),
		Size:  size,
		Text:  text,
	}, nil
}

// ParseAll parses every directive. Malformed ones are left out and
// reported in skipped, in input order.
func ParseAll(specs []string) (ds []Directive, skipped []error) {
	for _, s := range specs {
		d, err := Parse(s)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		ds = append(ds, d)
	}
	return ds, skipped
}
