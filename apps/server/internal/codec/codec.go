// Package codec frames websocket traffic as protobuf Struct envelopes:
// {"type", "session_id", "seq", "server_ts_ms", "payload"} from the server
// and {"type", "seq", "payload"} from clients.
package codec

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"curator-lite/auction"
	"curator-lite/replay"
)

// Client message types.
const (
	ClientOpen     = "open"
	ClientAct      = "act"
	ClientSnapshot = "snapshot"
	ClientLeave    = "leave"
	ClientPing     = "ping"
)

// Server-only message types. Auction events reuse replay.EventKind names.
const (
	ServerSnapshot   = "snapshot"
	ServerPrompt     = "actionPrompt"
	ServerSettlement = "settlement"
	ServerError      = "error"
	ServerPong       = "pong"
)

// OpenRequest asks the lobby for a fresh encounter.
type OpenRequest struct {
	LocationID string `json:"locationId"`
	EventID    string `json:"eventId,omitempty"`
	Prestige   int    `json:"prestige"`
	Day        int    `json:"day"`
	Money      int64  `json:"money"`
	Eye        int    `json:"eye"`
}

type ActRequest struct {
	Type   string `json:"type"`
	Target string `json:"target,omitempty"`
}

// Action parses the request into an engine action.
func (r ActRequest) Action() (auction.Action, error) {
	kind, err := auction.ParseActionType(r.Type)
	if err != nil {
		return auction.Action{}, err
	}
	return auction.Action{Type: kind, Target: strings.TrimSpace(r.Target)}, nil
}

// Error codes carried by error envelopes.
const (
	ErrCodeBadRequest    int32 = 400
	ErrCodeNoSession     int32 = 404
	ErrCodeRejected      int32 = 409
	ErrCodeInternalError int32 = 500
)

type ErrorPayload struct {
	Code    int32  `json:"code"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

// ClientMessage is a decoded client envelope.
type ClientMessage struct {
	Type    string
	Seq     uint64
	Payload *structpb.Struct
}

// Decode converts the payload into v through its JSON form.
func (m ClientMessage) Decode(v any) error {
	if m.Payload == nil {
		return nil
	}
	raw, err := m.Payload.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func DecodeClient(data []byte) (ClientMessage, error) {
	env := &structpb.Struct{}
	if err := proto.Unmarshal(data, env); err != nil {
		return ClientMessage{}, fmt.Errorf("decode client envelope: %w", err)
	}
	f := env.GetFields()
	msg := ClientMessage{
		Type:    f["type"].GetStringValue(),
		Seq:     uint64(f["seq"].GetNumberValue()),
		Payload: f["payload"].GetStructValue(),
	}
	if msg.Type == "" {
		return msg, fmt.Errorf("client envelope without type")
	}
	return msg, nil
}

// EncodeClient builds a client envelope; clients and tests use it.
func EncodeClient(kind string, seq uint64, payload any) ([]byte, error) {
	env, err := replay.NewEnvelope(kind, "", seq, payload)
	if err != nil {
		return nil, err
	}
	delete(env.Fields, "session_id")
	return replay.EncodeEnvelope(env)
}

// WrapServerEnvelope stamps the server clock onto a session envelope and
// encodes it.
func WrapServerEnvelope(sessionID string, serverSeq uint64, kind string, payload any) (*structpb.Struct, []byte, error) {
	env, err := replay.NewEnvelope(kind, sessionID, serverSeq, payload)
	if err != nil {
		return nil, nil, err
	}
	env.Fields["server_ts_ms"] = structpb.NewNumberValue(float64(time.Now().UnixMilli()))
	data, err := replay.EncodeEnvelope(env)
	if err != nil {
		return nil, nil, err
	}
	return env, data, nil
}

// ServerTsMs reads the server clock stamp of an envelope, 0 when absent.
func ServerTsMs(env *structpb.Struct) int64 {
	return int64(env.GetFields()["server_ts_ms"].GetNumberValue())
}

func ErrorEnvelope(sessionID string, serverSeq uint64, code int32, reason, msg string) []byte {
	_, data, err := WrapServerEnvelope(sessionID, serverSeq, ServerError, ErrorPayload{Code: code, Reason: reason, Message: msg})
	if err != nil {
		return nil
	}
	return data
}
