// fonts.go - Font loading from files, memory, built-in Go fonts and the
// host font registry. Uses golang.org/x/image/font/opentype for rendering and
// go-text fontscan to find installed families by name.
package annotate

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-text/typesetting/fontscan"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// DPI is the resolution faces are built at, so directive sizes in points
// map to pixels the way the game artwork expects.
const DPI = 96

// ErrFontLoadFailed is returned when a font spec cannot be turned into a
// usable font.
var ErrFontLoadFailed = errors.New("font could not be loaded")

var builtin = map[string][]byte{
	"go":         goregular.TTF,
	"go regular": goregular.TTF,
	"go bold":    gobold.TTF,
	"go italic":  goitalic.TTF,
	"go mono":    gomono.TTF,
}

var fontExts = map[string]bool{".ttf": true, ".otf": true, ".ttc": true, ".otc": true}

// Family is one font parsed from an in-memory font file. The bytes it was
// parsed from are held until Close, and faces built from it must not be
// used after Close.
type Family struct {
	Name string

	mu     sync.Mutex
	data   []byte
	parsed *opentype.Font
	faces  []font.Face
}

// LoadBytes parses font data, picking font index in a collection. The
// family reads glyphs from data without copying it, so the caller must not
// modify data until Close. Dropping its own reference is fine.
func LoadBytes(data []byte, index int) (*Family, error) {
	coll, err := opentype.ParseCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFontLoadFailed, err)
	}
	if index < 0 || index >= coll.NumFonts() {
		return nil, fmt.Errorf("%w: font index %d out of range (%d fonts)", ErrFontLoadFailed, index, coll.NumFonts())
	}
	parsed, err := coll.Font(index)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFontLoadFailed, err)
	}

	name, err := parsed.Name(nil, sfnt.NameIDFamily)
	if err != nil {
		name = ""
	}
	return &Family{Name: name, data: data, parsed: parsed}, nil
}

// LoadFile reads and parses the font file at path.
func LoadFile(path string) (*Family, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFontLoadFailed, err)
	}
	return LoadBytes(data, 0)
}

// Face returns a face at size points. The family closes it on Close.
func (f *Family) Face(size float64) (font.Face, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.parsed == nil {
		return nil, fmt.Errorf("%w: family %q is closed", ErrFontLoadFailed, f.Name)
	}
	face, err := opentype.NewFace(f.parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     DPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create %.1fpt face: %w", size, err)
	}
	f.faces = append(f.faces, face)
	return face, nil
}

// Close releases every face built from the family and the font data.
// It is safe to call more than once.
func (f *Family) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for _, face := range f.faces {
		if err := face.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	f.faces = nil
	f.parsed = nil
	f.data = nil
	return errors.Join(errs...)
}

// Loader resolves font specs. A spec is a path to a font file, one of the
// built-in names ("Go", "Go Bold", "Go Italic", "Go Mono"), or the family
// name of an installed font.
type Loader struct {
	// CacheDir holds the system font index. Empty uses the user cache directory.
	CacheDir string

	once   sync.Once
	fonts  *fontscan.FontMap
	errSys error
}

// Load resolves spec to a font family.
func (l *Loader) Load(spec string) (*Family, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("%w: empty font name", ErrFontLoadFailed)
	}

	if fontExts[strings.ToLower(filepath.Ext(spec))] {
		return LoadFile(spec)
	}
	if data, ok := builtin[normalizeName(spec)]; ok {
		return LoadBytes(data, 0)
	}
	return l.loadSystem(spec)
}

func (l *Loader) loadSystem(name string) (*Family, error) {
	l.once.Do(func() {
		dir := l.CacheDir
		if dir == "" {
			if base, err := os.UserCacheDir(); err == nil {
				dir = filepath.Join(base, "assettools", "fonts")
			}
		}
		fm := fontscan.NewFontMap(slog.NewLogLogger(Logger().Handler(), slog.LevelDebug))
		if err := fm.UseSystemFonts(dir); err != nil {
			l.errSys = err
			return
		}
		l.fonts = fm
	})
	if l.errSys != nil {
		return nil, fmt.Errorf("%w: scan system fonts: %v", ErrFontLoadFailed, l.errSys)
	}

	loc, ok := l.fonts.FindSystemFont(name)
	if !ok {
		return nil, fmt.Errorf("%w: no installed font named %q", ErrFontLoadFailed, name)
	}
	Logger().Debug("resolved system font", "name", name, "file", loc.File, "index", loc.Index)

	data, err := os.ReadFile(loc.File)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFontLoadFailed, err)
	}
	return LoadBytes(data, int(loc.Index))
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
