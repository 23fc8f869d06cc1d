// Package asset holds the decoded blueprint and savegame entities and the
// default codecs that move them in and out of their carrier files.
package asset

import "time"

// ── Shared value types ──

// Vector3 is a position in park space.
type Vector3 struct {
	X float64
	Y float64
	Z float64
}

// Quaternion is a rotation in park space.
type Quaternion struct {
	X float64
	Y float64
	Z float64
	W float64
}

// Color is a normalized RGBA color (0.0–1.0 per channel).
type Color struct {
	R float64
	G float64
	B float64
	A float64
}

// Mod identifies a mod that was active when the asset was saved.
type Mod struct {
	Id      string
	Name    string
	Version string
}

// Element is one entity of a decoded payload.
type Element interface {
	TypeName() string
}

// RawElement is an entity whose type this package does not model. It keeps the
// original encoded line so re-encoding is lossless.
type RawElement struct {
	Type string
	Line []byte
}

// TypeName implements Element.
func (e *RawElement) TypeName() string { return e.Type }

// ── Blueprint types ──

// Blueprint is a decoded blueprint payload.
type Blueprint struct {
	Header   *BlueprintHeader
	Elements []Element

	// Raw is the payload exactly as it was extracted from the carrier image.
	// BlueprintWriter re-embeds it verbatim when set.
	Raw []byte
}

// BlueprintHeader describes a blueprint. Field order is the dump order.
type BlueprintHeader struct {
	Type             string
	Name             string
	Date             time.Time
	GameVersion      string
	GameVersionName  string
	SavegameVersion  int
	ActiveMods       []Mod
	ApproximateCost  float64
	ContentTypes     []string
	Types            []string
	TrackedRideTypes []string
	FlatRideTypes    []string
	DecoTypes        []string
	ManufacturerName string
	IsEmpty          bool
	Data             map[string]any
}

// TypeName implements Element.
func (h *BlueprintHeader) TypeName() string { return "BlueprintHeader" }

// Coaster is a tracked ride stored in a blueprint.
type Coaster struct {
	Type               string
	Id                 string
	CarType            string
	Position           Vector3
	Rotation           Quaternion
	EntranceFee        float64
	Duration           float64
	WaitTime           float64
	TrainCount         int
	TrainLength        int
	CarColors          []Color
	TrackColors        []Color
	Stats              *CoasterStats
	Track              *Track
	StationControllers []StationController
}

// TypeName implements Element.
func (c *Coaster) TypeName() string { return "Coaster" }

// CoasterStats are the ride ratings computed by the game.
type CoasterStats struct {
	Excitement        float64
	Intensity         float64
	Nausea            float64
	MaxSpeed          float64
	AverageSpeed      float64
	RideLength        float64
	MaxPositiveGForce float64
	MaxNegativeGForce float64
	MaxLateralGForce  float64
	AirTime           float64
	Inversions        int
	Drops             int
	HighestDrop       float64
}

// Track is the track layout of a coaster.
type Track struct {
	TrackId  string
	Segments []TrackSegment
}

// TrackSegment is one piece of track.
type TrackSegment struct {
	Type     string
	Position Vector3
	Rotation Quaternion
	Length   float64
	Banking  float64
	Chained  bool
}

// StationController is a station of a coaster.
type StationController struct {
	Id          string
	Position    Vector3
	Rotation    Quaternion
	MinWaitTime float64
	MaxWaitTime float64
}

// ── Savegame types ──

// Savegame is a decoded savegame payload.
type Savegame struct {
	Header   *SavegameHeader
	Park     *Park
	Elements []Element
}

// SavegameHeader describes a savegame. Field order is the dump order.
type SavegameHeader struct {
	Type            string
	Name            string
	Date            time.Time
	GameVersion     string
	GameVersionName string
	SavegameVersion int
	ActiveMods      []Mod
	GuestCount      int64
	Money           float64
	ParkDate        string
	ParkRating      float64
	Screenshot      string
	TimePlayed      float64
}

// TypeName implements Element.
func (h *SavegameHeader) TypeName() string { return "SavegameHeader" }

// Park is the park state of a savegame.
type Park struct {
	Type           string
	Id             string
	Guid           string
	ParkName       string
	ParkInfo       *ParkInfo
	Patches        []Patch
	SendGuestsHome bool
	Settings       *ParkSettings
	SpawnedAtTime  float64
	XSize          int
	YSize          int
	ZSize          int
	JobAgency      *JobAgency
	Zones          []Zone
	Transactions   []Transaction
}

// TypeName implements Element.
func (p *Park) TypeName() string { return "Park" }

// ParkInfo is the free-form description of a park.
type ParkInfo struct {
	Description string
	Author      string
}

// ParkSettings are the scenario settings of a park.
type ParkSettings struct {
	Difficulty           string
	EntranceFee          float64
	NoMoney              bool
	AllowTerraforming    bool
	GuestSpawnMultiplier float64
}

// Patch is a terrain patch.
type Patch struct {
	Id string
	X  int
	Z  int
}

// JobAgency holds the staff hiring pool.
type JobAgency struct {
	Applicants int
}

// Zone is a named area of the park.
type Zone struct {
	Id   string
	Name string
}

// Transaction is one entry of the park finances.
type Transaction struct {
	Category string
	Amount   float64
	Time     float64
}
