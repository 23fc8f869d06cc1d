// projection.go - Narrow decoded assets to the documents that get dumped.
package dump

import (
	"slices"

	"github.com/parkitectnexus/assettools/pkg/asset"
)

// Default field exclusions per asset kind.
var (
	BlueprintExclusions = []string{
		"Type", "Data", "IsEmpty", "Id", "ContentTypes", "Position", "Rotation",
		"CarColors", "TrackColors", "TrackId", "StationControllers",
	}
	SavegameExclusions = []string{
		"Type", "Data", "IsEmpty", "Id", "JobAgency", "Patches", "Zones", "Transactions",
	}
)

// BlueprintView is the dumped part of a blueprint.
type BlueprintView struct {
	Header  *asset.BlueprintHeader
	Coaster *asset.Coaster
}

// SavegameView is the dumped part of a savegame.
type SavegameView struct {
	Header     *asset.SavegameHeader
	Park       *asset.Park
	GuestCount int
}

// ProjectBlueprint copies the header, fills in its tracked ride types and
// picks the first coaster. bp is not modified.
func ProjectBlueprint(bp *asset.Blueprint) BlueprintView {
	var view BlueprintView
	if bp.Header != nil {
		h := *bp.Header
		NormalizeTrackedRideTypes(&h)
		view.Header = &h
	}
	view.Coaster = bp.Coaster()
	return view
}

// NormalizeTrackedRideTypes sets TrackedRideTypes to a copy of Types when it
// is unset. Applying it again has no effect.
func NormalizeTrackedRideTypes(h *asset.BlueprintHeader) {
	if h.TrackedRideTypes == nil {
		h.TrackedRideTypes = slices.Clone(h.Types)
	}
}

// ProjectSavegame copies the header and the park.
func ProjectSavegame(sg *asset.Savegame) SavegameView {
	var view SavegameView
	if sg.Header != nil {
		h := *sg.Header
		view.Header = &h
		view.GuestCount = int(h.GuestCount)
	}
	if sg.Park != nil {
		p := *sg.Park
		view.Park = &p
	}
	return view
}
