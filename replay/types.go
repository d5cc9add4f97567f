package replay

import (
	"google.golang.org/protobuf/types/known/structpb"

	"curator-lite/auction"
	"curator-lite/auction/rival"
	"curator-lite/catalog"
)

// AuctionSpec scripts one auction session. Rival moods are derived from Day;
// interest is computed from the car tags unless a rival pins it.
type AuctionSpec struct {
	SessionID string         `json:"session_id,omitempty"`
	Day       int            `json:"day"`
	Car       catalog.Car    `json:"car"`
	Rivals    []RivalSpec    `json:"rivals"`
	Player    auction.Player `json:"player"`
	Actions   []ActionSpec   `json:"actions"`
	// EconomyYAML overlays the default economy, same format as economy.yaml.
	EconomyYAML string `json:"economy_yaml,omitempty"`
}

type RivalSpec struct {
	rival.Rival
	Interest *int `json:"interest,omitempty"`
}

type ActionSpec struct {
	Type   string `json:"type"`
	Target string `json:"target,omitempty"`
}

type ReplayTape struct {
	TapeVersion int           `json:"tape_version"`
	SessionID   string        `json:"session_id"`
	CarID       string        `json:"car_id"`
	Events      []ReplayEvent `json:"events"`
}

type ReplayEvent struct {
	Type        string           `json:"type"`
	Seq         uint64           `json:"seq"`
	Value       *structpb.Struct `json:"-"`
	EnvelopeB64 string           `json:"envelope_b64,omitempty"`
}
