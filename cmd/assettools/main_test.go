package main

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/parkitectnexus/assettools/internal/testutil"
	"github.com/parkitectnexus/assettools/pkg/asset"
	"github.com/parkitectnexus/assettools/pkg/pipeline"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errb bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errb)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errb.String(), err
}

func blueprintFile(t *testing.T) string {
	t.Helper()
	return testutil.WriteFile(t, "coaster.png", testutil.BlueprintPNG(t, testutil.SampleBlueprint()))
}

func assertPayload(t *testing.T, data []byte) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	bp, err := (asset.BlueprintReader{}).Read(img)
	if err != nil {
		t.Fatalf("payload lost: %v", err)
	}
	if bp.Header.Name != "Test Coaster" {
		t.Errorf("Header.Name = %q", bp.Header.Name)
	}
}

func TestDumpCommands(t *testing.T) {
	bp := blueprintFile(t)
	sg := testutil.WriteFile(t, "park.txt", []byte(testutil.SavegameText(t)))
	data, err := os.ReadFile(bp)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		args     []string
		contains string
		absent   string
	}{
		{"blueprint defaults", []string{"blueprint", bp}, `"Name":"Test Coaster"`, `"TrackId"`},
		{"blueprint no exclusions", []string{"blueprint", "--exclude=", bp}, `"TrackId":"track-1"`, ""},
		{"blueprint custom exclusions", []string{"blueprint", "--exclude", "Stats,CarType", bp}, `"TrackId"`, `"Stats"`},
		{"blueprint raw", []string{"blueprint", "--raw", base64.StdEncoding.EncodeToString(data)}, `"Coaster"`, ""},
		{"blueprint toon", []string{"blueprint", "-f", "toon", bp}, "Test Coaster", `"Name":`},
		{"savegame", []string{"savegame", sg}, `"GuestCount":42`, `"Zones"`},
		{"savegame raw", []string{"savegame", "--raw", testutil.SavegameText(t)}, `"ParkName":"Sunny Park"`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if !strings.Contains(out, tt.contains) {
				t.Errorf("output %s lacks %s", out, tt.contains)
			}
			if tt.absent != "" && strings.Contains(out, tt.absent) {
				t.Errorf("output %s contains %s", out, tt.absent)
			}
			if strings.Count(out, "\n") != 1 && tt.args[1] != "-f" {
				t.Errorf("output is not one line: %q", out)
			}
		})
	}
}

func TestConvertCommand(t *testing.T) {
	bp := blueprintFile(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "out.png")
	preview := filepath.Join(dir, "preview.webp")

	stdout, _, err := execute(t, "blueprint-convert",
		"--background=", "--logo=",
		"--font", "Go Bold", "--font-style", "Italic,Underline",
		"--draw-text", "10,20,#00FF00,12 hello, world",
		"--draw-text", "not a directive",
		"-o", out, "--preview", preview, bp)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want nothing with --output", stdout)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	assertPayload(t, data)
	if info, err := os.Stat(preview); err != nil || info.Size() == 0 {
		t.Errorf("preview not written: %v", err)
	}

	_, stderr, err := execute(t, "blueprint-convert", "--background=", "--logo=",
		"-o", out, "--preview", filepath.Join(dir, "missing", "preview.png"), bp)
	if err != nil {
		t.Fatalf("failed preview aborted the conversion: %v", err)
	}
	if !strings.Contains(stderr, "preview export failed") {
		t.Errorf("stderr = %q, want a preview warning", stderr)
	}

	stdout, _, err = execute(t, "blueprint-convert", "--background=", "--logo=", bp)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	data, err = base64.StdEncoding.DecodeString(strings.TrimSpace(stdout))
	if err != nil {
		t.Fatalf("stdout is not base64: %v", err)
	}
	assertPayload(t, data)
}

func TestConvertArtworkFromConfig(t *testing.T) {
	bp := blueprintFile(t)
	logo := testutil.WriteFile(t, "logo.png", testutil.EncodePNG(t, testutil.BlueprintImage(t, testutil.SampleBlueprint(), 32, 32)))
	cfg := testutil.WriteFile(t, "assettools.yaml", []byte("convert:\n  background: \"\"\n  logo: "+logo+"\n  logo_x: 0\n  logo_y: 0\n  logo_width: 16\n  logo_height: 16\n"))

	stdout, _, err := execute(t, "--config", cfg, "blueprint-convert", bp)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(stdout))
	if err != nil {
		t.Fatal(err)
	}
	assertPayload(t, data)
}

func TestConfigAndEnv(t *testing.T) {
	bp := blueprintFile(t)
	cfg := testutil.WriteFile(t, "assettools.yaml", []byte("dump:\n  blueprint:\n    exclude: [Name, Stats]\n"))

	out, _, err := execute(t, "--config", cfg, "blueprint", bp)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.Contains(out, `"Name":`) || !strings.Contains(out, `"TrackId"`) {
		t.Errorf("config exclusions not applied: %s", out)
	}

	out, _, err = execute(t, "--config", cfg, "blueprint", "--exclude", "TrackId", bp)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, `"Name":`) || strings.Contains(out, `"TrackId"`) {
		t.Errorf("--exclude did not override config: %s", out)
	}

	t.Setenv("ASSETTOOLS_DUMP_FORMAT", "json-indent")
	out, _, err = execute(t, "blueprint", bp)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "\n  ") {
		t.Errorf("ASSETTOOLS_DUMP_FORMAT not applied: %s", out)
	}
}

func TestLogLevel(t *testing.T) {
	bp := blueprintFile(t)

	_, stderr, err := execute(t, "--log-level", "debug", "blueprint", bp)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(stderr, "decoded blueprint") {
		t.Errorf("stderr = %q, want debug logs", stderr)
	}

	_, stderr, err = execute(t, "blueprint", bp)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if stderr != "" {
		t.Errorf("stderr = %q, want nothing at the default level", stderr)
	}

	t.Setenv("ASSETTOOLS_LOG_LEVEL", "debug")
	_, stderr, err = execute(t, "blueprint", bp)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(stderr, "decoded blueprint") {
		t.Errorf("stderr = %q, want debug logs from ASSETTOOLS_LOG_LEVEL", stderr)
	}
}

func TestDrawTextSources(t *testing.T) {
	tests := []struct {
		name   string
		env    string
		config any
		flags  []string
		want   []string
	}{
		{"nothing", "", nil, nil, nil},
		{"env lines", "10,20,red,12 hello world\r\n  30,40,#00FF00,9 second line\n\n", nil, nil,
			[]string{"10,20,red,12 hello world", "30,40,#00FF00,9 second line"}},
		{"config list", "", []any{"1,1,red,9 a b"}, nil, []string{"1,1,red,9 a b"}},
		{"config string", "", "1,1,red,9 a b", nil, []string{"1,1,red,9 a b"}},
		{"flag wins", "1,1,red,9 env", nil, []string{"2,2,red,9 flag text"}, []string{"2,2,red,9 flag text"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv("ASSETTOOLS_CONVERT_DRAW_TEXT", tt.env)
			}
			a := &app{v: viper.New()}
			a.useEnv()
			if tt.config != nil {
				a.v.Set("convert.draw_text", tt.config)
			}
			flags := pflag.NewFlagSet("convert", pflag.ContinueOnError)
			flags.StringArray("draw-text", nil, "")
			for _, f := range tt.flags {
				if err := flags.Set("draw-text", f); err != nil {
					t.Fatal(err)
				}
			}
			if got := a.drawText(flags); !slices.Equal(got, tt.want) {
				t.Errorf("drawText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConvertDrawTextFromEnv(t *testing.T) {
	bp := blueprintFile(t)
	t.Setenv("ASSETTOOLS_CONVERT_DRAW_TEXT", "10,20,#00FF00,12 hello world\n30,40,red,10 second line")

	_, stderr, err := execute(t, "--log-level", "debug", "blueprint-convert", "--background=", "--logo=", bp)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.Contains(stderr, "skipping text directive") {
		t.Errorf("env directives were split: %s", stderr)
	}
}

func TestLogoRect(t *testing.T) {
	def := pipeline.DefaultLogoRect
	tests := []struct {
		name    string
		set     map[string]int
		want    image.Rectangle
		wantErr bool
	}{
		{"defaults", nil, def, false},
		{"only x", map[string]int{"convert.logo_x": 7}, image.Rect(7, def.Min.Y, 7+def.Dx(), def.Max.Y), false},
		{"all keys", map[string]int{"convert.logo_x": 1, "convert.logo_y": 2, "convert.logo_width": 3, "convert.logo_height": 4}, image.Rect(1, 2, 4, 6), false},
		{"zero width", map[string]int{"convert.logo_width": 0}, image.Rectangle{}, true},
		{"negative height", map[string]int{"convert.logo_height": -5}, image.Rectangle{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &app{v: viper.New()}
			for k, v := range tt.set {
				a.v.Set(k, v)
			}
			got, err := a.logoRect()
			if tt.wantErr {
				if !errors.Is(err, errEmptyLogoRect) {
					t.Errorf("logoRect() error = %v, want errEmptyLogoRect", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("logoRect() = %v, %v, want %v", got, err, tt.want)
			}
		})
	}
}

func TestFailures(t *testing.T) {
	bp := blueprintFile(t)
	notes := testutil.WriteFile(t, "notes.txt", []byte("hello"))
	garbage := testutil.WriteFile(t, "garbage.png", []byte("not an image"))
	logoCfg := testutil.WriteFile(t, "logo.yaml", []byte("convert:\n  logo_x: 5\n  logo_height: 0\n"))
	dir := t.TempDir()

	tests := []struct {
		name   string
		args   []string
		prefix string
	}{
		{"missing path", []string{"blueprint", filepath.Join(dir, "missing.png")}, "specified path does not exist"},
		{"blank path", []string{"savegame", "  "}, "specified path does not exist"},
		{"wrong extension", []string{"blueprint", notes}, "invalid file type"},
		{"bad base64", []string{"blueprint", "--raw", "!!!"}, "invalid input"},
		{"not a blueprint", []string{"blueprint", garbage}, "invalid blueprint"},
		{"bad savegame", []string{"savegame", "--raw", "{broken"}, "invalid savegame"},
		{"missing font", []string{"blueprint-convert", "--background=", "--logo=", "--font", filepath.Join(dir, "missing.ttf"), "--draw-text", "1,1,red,9 a", bp}, "font could not be loaded"},
		{"missing background", []string{"blueprint-convert", "--background", filepath.Join(dir, "bg.png"), "--logo=", bp}, "error: "},
		{"unknown format", []string{"blueprint", "--format", "xml", bp}, "Error: unknown format"},
		{"unknown style", []string{"blueprint-convert", "--font-style", "Heavy", bp}, "Error: unknown font style"},
		{"empty logo rect", []string{"blueprint-convert", "--logo-width", "0", bp}, "Error: logo rectangle"},
		{"serve empty logo rect", []string{"--config", logoCfg, "serve"}, "Error: logo rectangle"},
		{"bad preview", []string{"blueprint-convert", "--preview", "x.gif", bp}, "Error: unsupported format"},
		{"missing argument", []string{"blueprint"}, "Error: accepts 1 arg(s)"},
		{"unknown flag", []string{"savegame", "--bogus", "x"}, "Error: unknown flag"},
		{"bad log level", []string{"--log-level", "loud", "blueprint", bp}, "Error: log level"},
		{"missing config", []string{"--config", filepath.Join(dir, "none.yaml"), "blueprint", bp}, "Error: read config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("Execute succeeded, want error")
			}
			if out != "" {
				t.Errorf("stdout = %q, want nothing on failure", out)
			}
			if got := report(err); !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("report = %q, want prefix %q", got, tt.prefix)
			}
		})
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assettools.yaml")

	out, _, err := execute(t, "init", "-o", path)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "Created: "+path) {
		t.Errorf("output = %q", out)
	}

	if _, _, err := execute(t, "init", "-o", path); err == nil || !strings.Contains(report(err), "already exists") {
		t.Errorf("second init = %v, want already exists", err)
	}
	if _, _, err := execute(t, "init", "-o", path, "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}

	bp := blueprintFile(t)
	out, _, err = execute(t, "--config", path, "blueprint", bp)
	if err != nil {
		t.Fatalf("blueprint with sample config: %v", err)
	}
	if !strings.Contains(out, `"Name":"Test Coaster"`) || strings.Contains(out, `"TrackId"`) {
		t.Errorf("sample config changed the default dump: %s", out)
	}
}
