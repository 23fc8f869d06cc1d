package pipeline

import (
	"bytes"

	"github.com/parkitectnexus/assettools/pkg/asset"
	"github.com/parkitectnexus/assettools/pkg/dump"
)

// Dumper decodes assets and serializes their summary view.
type Dumper struct {
	Blueprints BlueprintReader
	Savegames  SavegameReader
}

// NewDumper returns a Dumper using the default codecs.
func NewDumper() *Dumper {
	return &Dumper{
		Blueprints: asset.BlueprintReader{},
		Savegames:  asset.SavegameReader{},
	}
}

// Blueprint dumps the header and first coaster of the blueprint image in data.
func (d *Dumper) Blueprint(data []byte, excluded dump.FieldSet, format dump.Format) (out []byte, err error) {
	defer recoverInternal(&err)

	img, err := DecodeCarrier(data)
	if err != nil {
		return nil, err
	}
	bp, err := d.Blueprints.Read(img)
	if err != nil {
		return nil, invalidFormat(err)
	}
	Logger().Debug("decoded blueprint", "elements", len(bp.Elements), "excluded", excluded.Names())

	return dump.Serialize(dump.ProjectBlueprint(bp), excluded, format)
}

// Savegame dumps the header and park of the savegame text in data.
func (d *Dumper) Savegame(data []byte, excluded dump.FieldSet, format dump.Format) (out []byte, err error) {
	defer recoverInternal(&err)

	sg, err := d.Savegames.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, invalidFormat(err)
	}
	Logger().Debug("decoded savegame", "elements", len(sg.Elements), "excluded", excluded.Names())

	return dump.Serialize(dump.ProjectSavegame(sg), excluded, format)
}
