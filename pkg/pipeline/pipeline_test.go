package pipeline

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parkitectnexus/assettools/internal/testutil"
	"github.com/parkitectnexus/assettools/pkg/annotate"
	"github.com/parkitectnexus/assettools/pkg/asset"
	"github.com/parkitectnexus/assettools/pkg/dump"
	"github.com/parkitectnexus/assettools/pkg/generator"
	"golang.org/x/image/font/gofont/goregular"
)

func TestResolveBlueprint(t *testing.T) {
	data := testutil.BlueprintPNG(t, testutil.SampleBlueprint())
	path := testutil.WriteFile(t, "bp.png", data)
	upper := testutil.WriteFile(t, "bp.PNG", data)

	tests := []struct {
		name    string
		input   string
		raw     bool
		wantErr error
	}{
		{"file", path, false, nil},
		{"raw", base64.StdEncoding.EncodeToString(data), true, nil},
		{"raw with newline", base64.StdEncoding.EncodeToString(data) + "\n", true, nil},
		{"empty", "", false, ErrPathNotFound},
		{"blank raw", "  ", true, ErrPathNotFound},
		{"missing", filepath.Join(t.TempDir(), "nope.png"), false, ErrPathNotFound},
		{"directory", t.TempDir(), false, ErrPathNotFound},
		{"extension case", upper, false, ErrInvalidFileType},
		{"bad base64", "!!not base64!!", true, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveBlueprint(tt.input, tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ResolveBlueprint() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveBlueprint() error = %v", err)
			}
			if !bytes.Equal(got, data) {
				t.Error("ResolveBlueprint() returned different bytes")
			}
		})
	}

	if _, err := ResolveBlueprint("!!", true); errors.Is(err, ErrPathNotFound) {
		t.Error("bad base64 reported as missing path")
	}
}

func TestResolveSavegame(t *testing.T) {
	text := testutil.SavegameText(t)

	got, err := ResolveSavegame(text, true)
	if err != nil || string(got) != text {
		t.Errorf("ResolveSavegame(raw) = %q, %v", got, err)
	}

	path := testutil.WriteFile(t, "park.txt", []byte(text))
	if got, err := ResolveSavegame(path, false); err != nil || string(got) != text {
		t.Errorf("ResolveSavegame(file) = %q, %v", got, err)
	}

	wrong := testutil.WriteFile(t, "park.json", []byte(text))
	if _, err := ResolveSavegame(wrong, false); !errors.Is(err, ErrInvalidFileType) {
		t.Errorf("ResolveSavegame(.json) error = %v", err)
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		err  error
		kind Kind
		want string
	}{
		{fmt.Errorf("x: %w", ErrPathNotFound), KindInvalidInput, "specified path does not exist"},
		{fmt.Errorf("x: %w", ErrInvalidInput), KindInvalidInput, "invalid input"},
		{ErrInvalidFileType, KindInvalidFileType, "invalid file type"},
		{invalidFormat(asset.ErrInvalidBlueprint), KindInvalidFormat, "invalid blueprint"},
		{invalidFormat(asset.ErrInvalidSavegame), KindInvalidFormat, "invalid savegame"},
		{&StageError{Stage: StageAnnotating, Err: annotate.ErrFontLoadFailed}, KindFontLoadFailed, "font could not be loaded"},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.kind {
			t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.kind)
		}
		if got := Message(tt.err); got != tt.want {
			t.Errorf("Message(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestInternalErrorReport(t *testing.T) {
	err := fmt.Errorf("background: %w", os.ErrPermission)
	if Classify(err) != KindInternal {
		t.Fatalf("Classify() = %v", Classify(err))
	}
	msg := Message(err)
	if !strings.HasPrefix(msg, "error: *errors.errorString: background: permission denied\n") {
		t.Errorf("Message() = %q", msg)
	}
	if !strings.Contains(msg, "\tat *fmt.wrapError: background: permission denied\n") {
		t.Errorf("Message() lacks trace: %q", msg)
	}

	panicked := func() (err error) {
		defer recoverInternal(&err)
		panic("boom")
	}()
	var ie *InternalError
	if !errors.As(panicked, &ie) || len(ie.Stack) == 0 {
		t.Fatalf("recoverInternal() = %#v", panicked)
	}
	if !strings.HasPrefix(Message(panicked), "error: *errors.errorString: boom\n") {
		t.Errorf("Message(panic) = %q", Message(panicked))
	}
}

// sameOutside reports the first pixel outside r that differs between a and b.
func sameOutside(a, b *image.NRGBA, r image.Rectangle) (image.Point, bool) {
	bounds := a.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if image.Pt(x, y).In(r) {
				continue
			}
			if a.NRGBAAt(x, y) != b.NRGBAAt(x, y) {
				return image.Pt(x, y), false
			}
		}
	}
	return image.Point{}, true
}

func assertPayload(t *testing.T, img image.Image) {
	t.Helper()
	bp, err := (asset.BlueprintReader{}).Read(img)
	if err != nil {
		t.Fatalf("payload lost: %v", err)
	}
	if bp.Header.Name != "Test Coaster" || bp.Coaster() == nil {
		t.Errorf("payload changed: %+v", bp.Header)
	}
}

func TestConvertWithoutSteps(t *testing.T) {
	src := testutil.BlueprintImage(t, testutil.SampleBlueprint(), 512, 512)
	c := NewConverter()

	out, err := c.Convert(testutil.EncodePNG(t, src), ConvertOptions{Font: "Go"})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if c.Stage() != StageDone {
		t.Errorf("Stage() = %v", c.Stage())
	}
	if p, ok := sameOutside(src, out, image.Rectangle{}); !ok {
		t.Errorf("pixel %v changed", p)
	}
	assertPayload(t, out)
}

func TestConvertSkipsOversizedText(t *testing.T) {
	src := testutil.BlueprintImage(t, testutil.SampleBlueprint(), 512, 512)
	out, err := NewConverter().Convert(testutil.EncodePNG(t, src), ConvertOptions{
		Font:      "Go",
		FontStyle: annotate.Italic,
		DrawText:  []string{"10,20,red,30000 W", "10,20,red,1e300 W"},
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if p, ok := sameOutside(src, out, image.Rectangle{}); !ok {
		t.Errorf("pixel %v changed", p)
	}
	assertPayload(t, out)
}

func TestConvertDrawsTextOnlyInItsRegion(t *testing.T) {
	src := testutil.BlueprintImage(t, testutil.SampleBlueprint(), 512, 512)
	out, err := NewConverter().Convert(testutil.EncodePNG(t, src), ConvertOptions{
		Font:     "Go",
		DrawText: []string{"10,20,#00FF00,12 hello", "not a directive"},
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	assertPayload(t, out)

	fam, err := annotate.LoadBytes(goregular.TTF, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer fam.Close()
	d, _ := annotate.Parse("10,20,#00FF00,12 hello")
	region, err := (&annotate.Annotator{Family: fam}).TextBounds(d)
	if err != nil {
		t.Fatal(err)
	}
	region = region.Inset(-1)

	if p, ok := sameOutside(src, out, region); !ok {
		t.Errorf("pixel %v outside text region %v changed", p, region)
	}
	green := 0
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			if c := out.NRGBAAt(x, y); c.G > 0xc0 && c.R < 0x40 {
				green++
			}
		}
	}
	if green == 0 {
		t.Error("no green text pixels drawn")
	}
}

func TestConvertComposites(t *testing.T) {
	src := testutil.BlueprintImage(t, testutil.SampleBlueprint(), 512, 512)
	red := generator.NewSolidImage(512, 512, color.NRGBA{255, 0, 0, 255})
	blue := generator.NewSolidImage(8, 8, color.NRGBA{0, 0, 255, 255})

	out, err := NewConverter().Convert(testutil.EncodePNG(t, src), ConvertOptions{
		BackgroundImage: red,
		LogoImage:       blue,
		Font:            "Go",
		DrawText:        []string{"20,470,#00FF00,16 HH"},
	})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	assertPayload(t, out)

	same := func(a, b color.NRGBA) bool {
		return a.R&^1 == b.R&^1 && a.G&^1 == b.G&^1 && a.B&^1 == b.B&^1
	}
	if got := out.NRGBAAt(190, 505); !same(got, color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("background pixel = %v", got)
	}
	if got := out.NRGBAAt(100, 430); !same(got, color.NRGBA{0, 0, 255, 255}) {
		t.Errorf("logo pixel = %v", got)
	}
	if got := out.NRGBAAt(300, 100); got != src.NRGBAAt(300, 100) {
		t.Errorf("pixel outside every step changed: %v", got)
	}

	green := false
	for y := 470; y < 500 && !green; y++ {
		for x := 20; x < 60; x++ {
			if c := out.NRGBAAt(x, y); c.G > 0xc0 && c.R < 0x40 {
				green = true
				break
			}
		}
	}
	if !green {
		t.Error("text not drawn over the background")
	}
}

func TestConvertFailures(t *testing.T) {
	good := testutil.BlueprintPNG(t, testutil.SampleBlueprint())
	blank := testutil.EncodePNG(t, generator.NewSolidImage(64, 64, testutil.Gray))

	tests := []struct {
		name  string
		data  []byte
		opts  ConvertOptions
		stage Stage
		msg   string
	}{
		{"not png", []byte("definitely not a png"), ConvertOptions{}, StageDecoding, "invalid blueprint"},
		{"no payload", blank, ConvertOptions{}, StageDecoding, "invalid blueprint"},
		{
			"missing font", good,
			ConvertOptions{Font: filepath.Join(t.TempDir(), "missing.ttf"), DrawText: []string{"0,0,red,10 x"}},
			StageAnnotating, "font could not be loaded",
		},
		{"bad font data", good, ConvertOptions{FontData: []byte("junk"), DrawText: []string{"0,0,red,10 x"}}, StageAnnotating, "font could not be loaded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConverter()
			out, err := c.Convert(tt.data, tt.opts)
			if err == nil || out != nil {
				t.Fatalf("Convert() = %v, %v", out, err)
			}
			var se *StageError
			if !errors.As(err, &se) || se.Stage != tt.stage {
				t.Errorf("Convert() error = %v, want stage %v", err, tt.stage)
			}
			if got := Message(err); got != tt.msg {
				t.Errorf("Message() = %q, want %q", got, tt.msg)
			}
		})
	}

	_, err := NewConverter().Convert(good, ConvertOptions{Background: filepath.Join(t.TempDir(), "bg.png")})
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageCompositing || Classify(err) != KindInternal {
		t.Errorf("missing background error = %v", err)
	}
}

func TestFontSkippedWithoutText(t *testing.T) {
	good := testutil.BlueprintPNG(t, testutil.SampleBlueprint())
	missing := filepath.Join(t.TempDir(), "missing.ttf")
	if _, err := NewConverter().Convert(good, ConvertOptions{Font: missing}); err != nil {
		t.Errorf("Convert(font, no text) error = %v", err)
	}
	if _, err := NewConverter().Convert(good, ConvertOptions{DrawText: []string{"0,0,red,10 x"}}); err != nil {
		t.Errorf("Convert(text, no font) error = %v", err)
	}
}

func TestWriteOutput(t *testing.T) {
	img := testutil.BlueprintImage(t, testutil.SampleBlueprint(), 128, 128)

	var stdout bytes.Buffer
	if err := WriteOutput(img, "", &stdout); err != nil {
		t.Fatalf("WriteOutput(stdout) error = %v", err)
	}
	line := stdout.String()
	if !strings.HasSuffix(line, "\n") || strings.Count(line, "\n") != 1 {
		t.Errorf("stdout is not one line: %q", line)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(line))
	if err != nil {
		t.Fatalf("stdout is not base64: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	assertPayload(t, decoded)

	path := filepath.Join(t.TempDir(), "out.png")
	if err := WriteOutput(img, path, &stdout); err != nil {
		t.Fatalf("WriteOutput(file) error = %v", err)
	}
	raw, err := ResolveBlueprint(path, false)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err = png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	assertPayload(t, decoded)
}

func TestDumper(t *testing.T) {
	d := NewDumper()

	out, err := d.Blueprint(testutil.BlueprintPNG(t, testutil.SampleBlueprint()), dump.NewFieldSet(dump.BlueprintExclusions...), dump.FormatJSON)
	if err != nil {
		t.Fatalf("Blueprint() error = %v", err)
	}
	s := string(out)
	if !strings.Contains(s, `"Name":"Test Coaster"`) || !strings.Contains(s, `"TrackedRideTypes":["SteelCoaster"]`) {
		t.Errorf("Blueprint() = %s", s)
	}
	for _, k := range []string{`"TrackId"`, `"ContentTypes"`, `"Id"`} {
		if strings.Contains(s, k) {
			t.Errorf("Blueprint() kept %s", k)
		}
	}

	out, err = d.Savegame([]byte(testutil.SavegameText(t)), dump.NewFieldSet(dump.SavegameExclusions...), dump.FormatJSON)
	if err != nil {
		t.Fatalf("Savegame() error = %v", err)
	}
	if !strings.HasSuffix(string(out), `"GuestCount":42}`) || strings.Contains(string(out), `"Zones"`) {
		t.Errorf("Savegame() = %s", out)
	}

	if _, err := d.Savegame([]byte("garbage"), nil, dump.FormatJSON); Message(err) != "invalid savegame" {
		t.Errorf("Savegame(garbage) error = %v", err)
	}
	if _, err := d.Blueprint([]byte("garbage"), nil, dump.FormatJSON); Message(err) != "invalid blueprint" {
		t.Errorf("Blueprint(garbage) error = %v", err)
	}
}
