package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parkitectnexus/assettools/pkg/asset"
	"github.com/parkitectnexus/assettools/pkg/generator"
)

// Gray is the fill of generated blueprint images.
var Gray = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}

// SampleBlueprint returns a small blueprint with one coaster.
func SampleBlueprint() *asset.Blueprint {
	return &asset.Blueprint{
		Header: &asset.BlueprintHeader{
			Type:             "BlueprintHeader",
			Name:             "Test Coaster",
			Date:             time.Date(2017, 4, 12, 9, 30, 0, 0, time.UTC),
			GameVersion:      "1.3",
			SavegameVersion:  5,
			ManufacturerName: "Parkitect",
			Types:            []string{"SteelCoaster"},
			ContentTypes:     []string{"Coaster"},
		},
		Elements: []asset.Element{
			&asset.Coaster{
				Type:       "Coaster",
				Id:         "coaster-1",
				CarType:    "SteelCar",
				TrainCount: 2,
				Stats:      &asset.CoasterStats{Excitement: 5.5, Intensity: 4, Nausea: 2},
				Track: &asset.Track{
					TrackId:  "track-1",
					Segments: []asset.TrackSegment{{Type: "Station", Length: 4}},
				},
			},
		},
	}
}

// SampleSavegame returns a small savegame.
func SampleSavegame() *asset.Savegame {
	return &asset.Savegame{
		Header: &asset.SavegameHeader{
			Type:       "SavegameHeader",
			Name:       "Sunny Park",
			GuestCount: 42,
		},
		Park: &asset.Park{
			Type:     "Park",
			Id:       "park-1",
			ParkName: "Sunny Park",
			Zones:    []asset.Zone{{Id: "zone-1"}},
		},
	}
}

// SavegameText returns the encoded SampleSavegame.
func SavegameText(t *testing.T) string {
	t.Helper()
	data, err := asset.EncodeSavegameBytes(SampleSavegame())
	if err != nil {
		t.Fatalf("failed to encode savegame: %v", err)
	}
	return string(data)
}

// BlueprintImage returns a w×h gray image carrying bp.
func BlueprintImage(t *testing.T, bp *asset.Blueprint, w, h int) *image.NRGBA {
	t.Helper()
	img := generator.NewSolidImage(w, h, Gray)
	if err := (asset.BlueprintWriter{}).Write(bp, img); err != nil {
		t.Fatalf("failed to embed blueprint: %v", err)
	}
	return img
}

// BlueprintPNG returns the PNG bytes of a 512×512 image carrying bp.
func BlueprintPNG(t *testing.T, bp *asset.Blueprint) []byte {
	t.Helper()
	return EncodePNG(t, BlueprintImage(t, bp, 512, 512))
}

// EncodePNG encodes img as PNG.
func EncodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// WriteFile writes data to name inside a test temp dir and returns its path.
func WriteFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}
