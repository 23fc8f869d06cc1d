// Package server provides the assettools HTTP API.
package server

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/parkitectnexus/assettools/pkg/annotate"
	"github.com/parkitectnexus/assettools/pkg/compose"
	"github.com/parkitectnexus/assettools/pkg/dump"
	"github.com/parkitectnexus/assettools/pkg/generator"
	"github.com/parkitectnexus/assettools/pkg/pipeline"
)

// ── Asset Manager ──

type asset struct {
	Name string
	Data []byte
	Mime string
}

// assetManager keeps uploaded fonts and artwork in memory so convert
// requests can refer to them by id.
type assetManager struct {
	mu     sync.RWMutex
	assets map[string]*asset
}

func newAssetManager() *assetManager {
	return &assetManager{assets: make(map[string]*asset)}
}

func (am *assetManager) add(name string, data []byte, mimeType string) string {
	id := randomID()
	am.mu.Lock()
	am.assets[id] = &asset{Name: name, Data: data, Mime: mimeType}
	am.mu.Unlock()
	return id
}

func (am *assetManager) get(id string) (*asset, bool) {
	am.mu.RLock()
	a, ok := am.assets[id]
	am.mu.RUnlock()
	return a, ok
}

func (am *assetManager) listAll() []map[string]any {
	am.mu.RLock()
	defer am.mu.RUnlock()
	result := make([]map[string]any, 0, len(am.assets))
	for id, a := range am.assets {
		result = append(result, map[string]any{
			"id":   id,
			"name": a.Name,
			"mime": a.Mime,
			"size": len(a.Data),
		})
	}
	return result
}

func (am *assetManager) remove(id string) bool {
	am.mu.Lock()
	defer am.mu.Unlock()
	if _, ok := am.assets[id]; !ok {
		return false
	}
	delete(am.assets, id)
	return true
}

func randomID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// ── Server ──

// Options configures the API.
type Options struct {
	Addr      string
	MaxUpload int64 // bytes per request
	Blueprint dump.FieldSet
	Savegame  dump.FieldSet
	Format    dump.Format
	Convert   pipeline.ConvertOptions // base options; uploads override artwork and font
	Fonts     pipeline.FontLoader     // nil uses the host font registry
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Addr:      ":8080",
		MaxUpload: 32 << 20,
		Blueprint: dump.NewFieldSet(dump.BlueprintExclusions...),
		Savegame:  dump.NewFieldSet(dump.SavegameExclusions...),
		Format:    dump.FormatJSON,
		Convert:   pipeline.ConvertOptions{LogoRect: pipeline.DefaultLogoRect},
	}
}

// lockedLoader serializes font lookups, which share one registry index.
type lockedLoader struct {
	mu sync.Mutex
	l  pipeline.FontLoader
}

func (ll *lockedLoader) Load(spec string) (*annotate.Family, error) {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	return ll.l.Load(spec)
}

type srv struct {
	opts   Options
	assets *assetManager
	fonts  pipeline.FontLoader
}

// New returns the API handler.
func New(opts Options) http.Handler {
	if opts.MaxUpload <= 0 {
		opts.MaxUpload = DefaultOptions().MaxUpload
	}
	fonts := opts.Fonts
	if fonts == nil {
		fonts = &annotate.Loader{}
	}
	s := &srv{
		opts:   opts,
		assets: newAssetManager(),
		fonts:  &lockedLoader{l: fonts},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/blueprint", s.handleDumpBlueprint)
	mux.HandleFunc("POST /api/savegame", s.handleDumpSavegame)
	mux.HandleFunc("POST /api/blueprint/convert", s.handleConvert)
	mux.HandleFunc("POST /api/upload/font", s.handleUpload("font/ttf"))
	mux.HandleFunc("POST /api/upload/image", s.handleUpload("image/png"))
	mux.HandleFunc("GET /api/assets/{id}", s.handleGetAsset)
	mux.HandleFunc("DELETE /api/assets/{id}", s.handleDeleteAsset)
	mux.HandleFunc("GET /api/assets", s.handleListAssets)
	return mux
}

// RunServe serves the API until ctx is cancelled, then shuts down gracefully.
func RunServe(ctx context.Context, opts Options) error {
	hs := &http.Server{
		Addr:              opts.Addr,
		Handler:           New(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()
	pipeline.Logger().Info("serving API", "addr", opts.Addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	pipeline.Logger().Info("server stopped")
	return nil
}

func (s *srv) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ── Dump ──

func (s *srv) handleDumpBlueprint(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		s.fail(w, err)
		return
	}
	if r.URL.Query().Get("encoding") == "base64" {
		if body, err = pipeline.ResolveBlueprint(string(body), true); err != nil {
			s.fail(w, err)
			return
		}
	}
	s.dump(w, r, s.opts.Blueprint, func(excluded dump.FieldSet, f dump.Format) ([]byte, error) {
		return pipeline.NewDumper().Blueprint(body, excluded, f)
	})
}

func (s *srv) handleDumpSavegame(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.dump(w, r, s.opts.Savegame, func(excluded dump.FieldSet, f dump.Format) ([]byte, error) {
		return pipeline.NewDumper().Savegame(body, excluded, f)
	})
}

// dump answers with the serialized document. The exclude query parameter
// replaces the default exclusions; present but empty means none.
func (s *srv) dump(w http.ResponseWriter, r *http.Request, defaults dump.FieldSet, run func(dump.FieldSet, dump.Format) ([]byte, error)) {
	q := r.URL.Query()
	excluded := defaults
	if vals, ok := q["exclude"]; ok {
		excluded = dump.NewFieldSet(splitList(vals)...)
	}
	format := s.opts.Format
	if f := q.Get("format"); f != "" {
		var err error
		if format, err = dump.ParseFormat(f); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	out, err := run(excluded, format)
	if err != nil {
		s.fail(w, err)
		return
	}
	if format == dump.FormatTOON {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.Write(out)
}

// ── Convert ──

func (s *srv) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUpload)
	if err := r.ParseMultipartForm(s.opts.MaxUpload); err != nil {
		http.Error(w, "expected multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	data, ok, err := formFile(r, "blueprint")
	if err != nil || !ok {
		http.Error(w, "no blueprint uploaded", http.StatusBadRequest)
		return
	}

	opts := s.opts.Convert
	opts.DrawText = r.MultipartForm.Value["draw_text"]
	if opts.BackgroundImage, err = s.formImage(r, "background"); err != nil {
		s.fail(w, err)
		return
	}
	if opts.LogoImage, err = s.formImage(r, "logo"); err != nil {
		s.fail(w, err)
		return
	}
	if opts.LogoRect, err = formRect(r, opts.LogoRect); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if v := r.FormValue("font_style"); v != "" {
		if opts.FontStyle, err = annotate.ParseStyle(v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if err := s.formFont(r, &opts); err != nil {
		s.fail(w, err)
		return
	}

	c := pipeline.NewConverter()
	c.Fonts = s.fonts
	img, err := c.Convert(data, opts)
	if err != nil {
		s.fail(w, err)
		return
	}

	switch out := r.FormValue("output"); out {
	case "", "png":
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", `attachment; filename="blueprint.png"`)
		s.encode(w, generator.PNG, img)
	case "webp":
		w.Header().Set("Content-Type", "image/webp")
		s.encode(w, generator.WebP, img)
	case "base64":
		png, err := pipeline.EncodePNG(img)
		if err != nil {
			s.fail(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, base64.StdEncoding.EncodeToString(png))
	default:
		http.Error(w, fmt.Sprintf("unknown output %q: use png, webp or base64", out), http.StatusBadRequest)
	}
}

func (s *srv) encode(w http.ResponseWriter, f generator.Format, img image.Image) {
	var buf bytes.Buffer
	if err := generator.GenerateToWriter(&buf, f, img); err != nil {
		s.fail(w, err)
		return
	}
	w.Write(buf.Bytes())
}

// formImage returns the artwork named field: an uploaded file part, or a
// form value holding the id of an uploaded asset. Absent means nil.
func (s *srv) formImage(r *http.Request, field string) (image.Image, error) {
	data, ok, err := formFile(r, field)
	if err != nil {
		return nil, err
	}
	if !ok {
		id := r.FormValue(field)
		if id == "" {
			return nil, nil
		}
		a, found := s.assets.get(id)
		if !found {
			return nil, fmt.Errorf("%w: unknown asset %q", pipeline.ErrInvalidInput, id)
		}
		data = a.Data
	}

	img, err := compose.DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", pipeline.ErrInvalidInput, field, err)
	}
	return img, nil
}

// formFont sets the font from an uploaded file part, an asset id, or a font
// name, in that order.
func (s *srv) formFont(r *http.Request, opts *pipeline.ConvertOptions) error {
	data, ok, err := formFile(r, "font")
	if err != nil {
		return err
	}
	if ok {
		opts.FontData = data
		return nil
	}
	v := r.FormValue("font")
	if v == "" {
		return nil
	}
	if a, found := s.assets.get(v); found {
		opts.FontData = a.Data
		return nil
	}
	opts.Font = v
	return nil
}

func formFile(r *http.Request, field string) ([]byte, bool, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, false, nil
	}
	data, err := readPart(r.MultipartForm.File[field][0])
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func formRect(r *http.Request, def image.Rectangle) (image.Rectangle, error) {
	vals := [4]int{def.Min.X, def.Min.Y, def.Dx(), def.Dy()}
	for i, name := range []string{"logo_x", "logo_y", "logo_width", "logo_height"} {
		v := r.FormValue(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("%s: %w", name, err)
		}
		vals[i] = n
	}
	return image.Rect(vals[0], vals[1], vals[0]+vals[2], vals[1]+vals[3]), nil
}

// ── Upload ──

func (s *srv) handleUpload(fallbackMime string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUpload)
		if err := r.ParseMultipartForm(s.opts.MaxUpload); err != nil {
			http.Error(w, "expected multipart form: "+err.Error(), http.StatusBadRequest)
			return
		}
		fhs := r.MultipartForm.File["file"]
		if len(fhs) == 0 {
			http.Error(w, "no file", http.StatusBadRequest)
			return
		}
		data, err := readPart(fhs[0])
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		mimeType := mime.TypeByExtension(filepath.Ext(fhs[0].Filename))
		if mimeType == "" {
			mimeType = fallbackMime
		}
		id := s.assets.add(fhs[0].Filename, data, mimeType)
		pipeline.Logger().Info("stored upload", "id", id, "name", fhs[0].Filename, "size", len(data))

		writeJSON(w, http.StatusOK, map[string]string{
			"id":   id,
			"name": fhs[0].Filename,
			"url":  "/api/assets/" + id,
		})
	}
}

// ── Asset serving ──

func (s *srv) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	a, ok := s.assets.get(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", a.Mime)
	w.Write(a.Data)
}

func (s *srv) handleListAssets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.assets.listAll())
}

func (s *srv) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.assets.remove(id) {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// ── Helpers ──

func (s *srv) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxUpload))
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pipeline.ErrInvalidInput, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", pipeline.ErrInvalidInput)
	}
	return body, nil
}

// fail answers with the fixed message for err. Internal failures are logged
// with their trace and reported without it.
func (s *srv) fail(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	msg := pipeline.Message(err)
	switch pipeline.Classify(err) {
	case pipeline.KindFontLoadFailed:
		status = http.StatusUnprocessableEntity
	case pipeline.KindInternal:
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			status, msg = http.StatusRequestEntityTooLarge, "request too large"
			break
		}
		pipeline.Logger().Error("request failed", "report", msg)
		status, msg = http.StatusInternalServerError, "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func splitList(vals []string) []string {
	var out []string
	for _, v := range vals {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}
