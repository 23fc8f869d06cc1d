// load.go - Decode artwork files for compositing.
package compose

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

type decodeFunc func(io.Reader) (image.Image, error)

// TGA has no signature, so it is only chosen by extension or as a last resort.
var byExt = map[string]decodeFunc{
	".png":  png.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
	".gif":  gif.Decode,
	".bmp":  bmp.Decode,
	".webp": webp.Decode,
	".tga":  tga.Decode,
}

var signatures = []struct {
	magic  string
	decode decodeFunc
}{
	{"\x89PNG\r\n\x1a\n", png.Decode},
	{"\xff\xd8", jpeg.Decode},
	{"GIF8", gif.Decode},
	{"BM", bmp.Decode},
	{"RIFF????WEBPVP8", webp.Decode},
}

// LoadImage decodes the artwork file at path. The format comes from the
// extension, or from the content when the extension is not recognised.
func LoadImage(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("compose: read %s: %w", path, err)
	}

	if decode, ok := byExt[strings.ToLower(filepath.Ext(path))]; ok {
		img, err := decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("compose: decode %s: %w", path, err)
		}
		return img, nil
	}

	img, err := DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("compose: %s: %w", path, err)
	}
	return img, nil
}

// DecodeImage decodes in-memory artwork, picking the format by signature.
func DecodeImage(data []byte) (image.Image, error) {
	decode := tga.Decode
	for _, s := range signatures {
		if match(s.magic, data) {
			decode = s.decode
			break
		}
	}

	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode artwork: %w", err)
	}
	return img, nil
}

// match reports whether data starts with magic, where '?' matches any byte.
func match(magic string, data []byte) bool {
	if len(data) < len(magic) {
		return false
	}
	for i := 0; i < len(magic); i++ {
		if magic[i] != '?' && magic[i] != data[i] {
			return false
		}
	}
	return true
}
