// Package api implements the calls of the browser client on plain Go values.
// The js glue in the parent directory only converts arguments and results.
package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/parkitectnexus/assettools/pkg/annotate"
	"github.com/parkitectnexus/assettools/pkg/compose"
	"github.com/parkitectnexus/assettools/pkg/dump"
	"github.com/parkitectnexus/assettools/pkg/generator"
	"github.com/parkitectnexus/assettools/pkg/pipeline"
)

// Store holds the artwork and fonts registered by the page. The browser has
// no file system, so conversions refer to these by id.
type Store struct {
	mu     sync.RWMutex
	assets map[string][]byte
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{assets: make(map[string][]byte)}
}

// Register stores the base64 data under id, replacing any previous entry.
func (s *Store) Register(id, b64 string) error {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return fmt.Errorf("%w: base64: %v", pipeline.ErrInvalidInput, err)
	}
	s.mu.Lock()
	s.assets[id] = data
	s.mu.Unlock()
	return nil
}

// Remove deletes id. Unknown ids are ignored.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	delete(s.assets, id)
	s.mu.Unlock()
}

func (s *Store) get(id string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.assets[id]
	return data, ok
}

// DumpBlueprint dumps the base64 blueprint image. A nil exclude selects the
// default exclusions, an empty one keeps every field.
func (s *Store) DumpBlueprint(b64 string, exclude []string, format string) (string, error) {
	return dumpWith(b64, exclude, dump.BlueprintExclusions, format, pipeline.ResolveBlueprint, pipeline.NewDumper().Blueprint)
}

// DumpSavegame dumps the savegame text.
func (s *Store) DumpSavegame(text string, exclude []string, format string) (string, error) {
	return dumpWith(text, exclude, dump.SavegameExclusions, format, pipeline.ResolveSavegame, pipeline.NewDumper().Savegame)
}

func dumpWith(input string, exclude, defaults []string, format string,
	resolve func(string, bool) ([]byte, error),
	run func([]byte, dump.FieldSet, dump.Format) ([]byte, error)) (string, error) {
	f, err := dump.ParseFormat(format)
	if err != nil {
		return "", err
	}
	if exclude == nil {
		exclude = defaults
	}
	data, err := resolve(input, true)
	if err != nil {
		return "", err
	}
	out, err := run(data, dump.NewFieldSet(exclude...), f)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ConvertRequest is the JSON argument of Convert. Artwork and fonts name
// registered assets; a font that is not an asset id is looked up by name.
type ConvertRequest struct {
	Blueprint  string   `json:"blueprint"` // base64 PNG
	Background string   `json:"background,omitempty"`
	Logo       string   `json:"logo,omitempty"`
	LogoRect   []int    `json:"logoRect,omitempty"` // x, y, width, height
	Font       string   `json:"font,omitempty"`
	FontStyle  string   `json:"fontStyle,omitempty"`
	DrawText   []string `json:"drawText,omitempty"`
	Output     string   `json:"output,omitempty"` // png (default) or webp
}

// Convert runs a conversion described by reqJSON and returns the encoded
// image as base64.
func (s *Store) Convert(reqJSON string) (string, error) {
	var req ConvertRequest
	if err := json.Unmarshal([]byte(reqJSON), &req); err != nil {
		return "", fmt.Errorf("%w: request: %v", pipeline.ErrInvalidInput, err)
	}

	format := generator.PNG
	switch strings.ToLower(req.Output) {
	case "", "png":
	case "webp":
		format = generator.WebP
	default:
		return "", fmt.Errorf("%w: unknown output %q", pipeline.ErrInvalidInput, req.Output)
	}

	opts, err := s.options(req)
	if err != nil {
		return "", err
	}
	data, err := pipeline.ResolveBlueprint(req.Blueprint, true)
	if err != nil {
		return "", err
	}
	img, err := pipeline.NewConverter().Convert(data, opts)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := generator.GenerateToWriter(&buf, format, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (s *Store) options(req ConvertRequest) (pipeline.ConvertOptions, error) {
	opts := pipeline.ConvertOptions{LogoRect: pipeline.DefaultLogoRect, DrawText: req.DrawText}

	var err error
	if opts.BackgroundImage, err = s.image(req.Background); err != nil {
		return opts, err
	}
	if opts.LogoImage, err = s.image(req.Logo); err != nil {
		return opts, err
	}
	if req.LogoRect != nil {
		if len(req.LogoRect) != 4 {
			return opts, fmt.Errorf("%w: logoRect needs x, y, width and height", pipeline.ErrInvalidInput)
		}
		r := req.LogoRect
		opts.LogoRect = image.Rect(r[0], r[1], r[0]+r[2], r[1]+r[3])
	}
	if opts.FontStyle, err = annotate.ParseStyle(req.FontStyle); err != nil {
		return opts, fmt.Errorf("%w: %v", pipeline.ErrInvalidInput, err)
	}
	if data, ok := s.get(req.Font); ok {
		opts.FontData = data
	} else {
		opts.Font = req.Font
	}
	return opts, nil
}

func (s *Store) image(id string) (image.Image, error) {
	if id == "" {
		return nil, nil
	}
	data, ok := s.get(id)
	if !ok {
		return nil, fmt.Errorf("%w: unknown asset %q", pipeline.ErrInvalidInput, id)
	}
	img, err := compose.DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%w: asset %q: %v", pipeline.ErrInvalidInput, id, err)
	}
	return img, nil
}
