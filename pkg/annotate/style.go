// style.go - Font style flags and their names.
package annotate

import (
	"fmt"
	"strings"
)

// Style is a set of font style flags.
type Style uint8

const (
	Bold Style = 1 << iota
	Italic
	Underline
	Strikeout

	Regular Style = 0
)

var styleNames = []struct {
	name  string
	style Style
}{
	{"bold", Bold},
	{"italic", Italic},
	{"underline", Underline},
	{"strikeout", Strikeout},
}

// ParseStyle reads a list of style names separated by commas, '|' or
// spaces, e.g. "Bold, Italic". Case is ignored. Empty means Regular.
func ParseStyle(s string) (Style, error) {
	var st Style
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '|' || r == ' '
	}) {
		name := strings.ToLower(f)
		if name == "regular" {
			continue
		}
		found := false
		for _, n := range styleNames {
			if n.name == name {
				st |= n.style
				found = true
				break
			}
		}
		if !found {
			return Regular, fmt.Errorf("unknown font style %q", f)
		}
	}
	return st, nil
}

func (s Style) String() string {
	if s == Regular {
		return "Regular"
	}
	var parts []string
	for _, n := range styleNames {
		if s&n.style != 0 {
			parts = append(parts, strings.ToUpper(n.name[:1])+n.name[1:])
		}
	}
	return strings.Join(parts, ", ")
}
