// input.go - Resolve a command argument to asset bytes.
package pipeline

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// File extensions the commands accept in file mode. Matching is exact.
const (
	BlueprintExt = ".png"
	SavegameExt  = ".txt"
)

// ResolveBlueprint returns blueprint image bytes. In raw mode input is the
// base64 text of the image, otherwise a path to a .png file.
func ResolveBlueprint(input string, raw bool) ([]byte, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrPathNotFound
	}
	if raw {
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(input))
		if err != nil {
			return nil, fmt.Errorf("%w: base64: %v", ErrInvalidInput, err)
		}
		return data, nil
	}
	return readAsset(input, BlueprintExt)
}

// ResolveSavegame returns savegame bytes. In raw mode input is the savegame
// text itself, otherwise a path to a .txt file.
func ResolveSavegame(input string, raw bool) ([]byte, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrPathNotFound
	}
	if raw {
		return []byte(input), nil
	}
	return readAsset(input, SavegameExt)
}

func readAsset(path, ext string) ([]byte, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrPathNotFound, path)
	}
	if filepath.Ext(path) != ext {
		return nil, fmt.Errorf("%w: want %s, got %q", ErrInvalidFileType, ext, filepath.Ext(path))
	}

	Logger().Debug("reading asset", "path", path, "size", info.Size())
	return os.ReadFile(path)
}
