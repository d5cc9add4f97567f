package replay

import (
	"fmt"
	"strings"

	"curator-lite/auction"
	"curator-lite/auction/rival"
	"curator-lite/catalog"
	"curator-lite/config"
)

const defaultSessionID = "replay_local"

type normalizedSpec struct {
	sessionID string
	econ      config.Economy
	car       catalog.Car
	roster    []rival.AuctionRivalEntry
	player    auction.Player
	actions   []auction.Action
}

func normalizeSpec(spec AuctionSpec) (normalizedSpec, error) {
	var out normalizedSpec

	out.sessionID = strings.TrimSpace(spec.SessionID)
	if out.sessionID == "" {
		out.sessionID = defaultSessionID
	}

	out.econ = config.Default()
	if strings.TrimSpace(spec.EconomyYAML) != "" {
		econ, err := config.Parse([]byte(spec.EconomyYAML))
		if err != nil {
			return out, &ReplayError{StepIndex: -1, Reason: "invalid_economy", Message: err.Error()}
		}
		out.econ = econ
	}

	if strings.TrimSpace(spec.Car.ID) == "" {
		return out, &ReplayError{StepIndex: -1, Reason: "invalid_car", Message: "car.id is required"}
	}
	if spec.Car.BaseValue < 0 {
		return out, &ReplayError{StepIndex: -1, Reason: "invalid_car", Message: "car.baseValue must be >= 0"}
	}
	out.car = spec.Car.Clone()
	out.car.Tags = catalog.NormalizeTags(out.car.Tags)

	if spec.Player.Money < 0 {
		return out, &ReplayError{StepIndex: -1, Reason: "invalid_player", Message: "player.money must be >= 0"}
	}
	out.player = spec.Player

	seen := make(map[string]struct{}, len(spec.Rivals))
	for i, rs := range spec.Rivals {
		rv := rs.Rival.Clone()
		rv.ID = strings.TrimSpace(rv.ID)
		if rv.ID == "" || rv.ID == auction.PlayerBidderID {
			return out, &ReplayError{StepIndex: -1, Reason: "invalid_rival", Message: fmt.Sprintf("rivals[%d] has an invalid id", i)}
		}
		if _, dup := seen[rv.ID]; dup {
			return out, &ReplayError{StepIndex: -1, Reason: "duplicate_rival", Message: fmt.Sprintf("duplicate rival %s", rv.ID)}
		}
		seen[rv.ID] = struct{}{}
		if rv.Budget < 0 || rv.Patience < 0 {
			return out, &ReplayError{StepIndex: -1, Reason: "invalid_rival", Message: fmt.Sprintf("rival %s budget and patience must be >= 0", rv.ID)}
		}
		rv.Wishlist = catalog.NormalizeTags(rv.Wishlist)
		rv.Mood = rival.ComputeMood(rv.ID, spec.Day)

		interest := rival.ComputeInterest(rv, out.car.Tags, out.econ.Interest)
		if rs.Interest != nil {
			interest = *rs.Interest
		}
		out.roster = append(out.roster, rival.AuctionRivalEntry{Rival: rv, Interest: interest})
	}

	out.actions = make([]auction.Action, 0, len(spec.Actions))
	for i, a := range spec.Actions {
		kind, err := auction.ParseActionType(a.Type)
		if err != nil {
			return out, &ReplayError{StepIndex: int32(i), Reason: "invalid_action", Message: err.Error()}
		}
		target := strings.TrimSpace(a.Target)
		if kind == auction.ActionTypeKickTires && target == "" {
			return out, &ReplayError{StepIndex: int32(i), Reason: "missing_target", Message: "KICK_TIRES needs a target rival"}
		}
		out.actions = append(out.actions, auction.Action{Type: kind, Target: target})
	}
	return out, nil
}
