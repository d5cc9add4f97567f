package replay

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

var marshalOpts = proto.MarshalOptions{Deterministic: true}

// NewEnvelope wraps payload as {"type", "session_id", "seq", "payload"}.
// The payload goes through its JSON form so wire field names match the
// JSON tags.
func NewEnvelope(kind, sessionID string, seq uint64, payload any) (*structpb.Struct, error) {
	body, err := toJSONValue(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return structpb.NewStruct(map[string]any{
		"type":       kind,
		"session_id": sessionID,
		"seq":        float64(seq),
		"payload":    body,
	})
}

// EncodeEnvelope serializes an envelope with stable field order.
func EncodeEnvelope(env *structpb.Struct) ([]byte, error) {
	return marshalOpts.Marshal(env)
}

func DecodeEnvelope(raw []byte) (*structpb.Struct, error) {
	env := &structpb.Struct{}
	if err := proto.Unmarshal(raw, env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

func DecodeEnvelopeB64(s string) (*structpb.Struct, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode envelope base64: %w", err)
	}
	return DecodeEnvelope(raw)
}

// EnvelopeType returns the "type" field of an envelope.
func EnvelopeType(env *structpb.Struct) string {
	if env == nil {
		return ""
	}
	return env.GetFields()["type"].GetStringValue()
}

// EnvelopePayload returns the "payload" field as plain Go values.
func EnvelopePayload(env *structpb.Struct) map[string]any {
	if env == nil {
		return nil
	}
	p := env.GetFields()["payload"].GetStructValue()
	if p == nil {
		return nil
	}
	return p.AsMap()
}

func toJSONValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// WireReplayTape is the camelCase tape handed to browser clients. Events
// carry only their encoded envelope; decoded values stay server side.
type WireReplayTape struct {
	TapeVersion int               `json:"tapeVersion"`
	SessionID   string            `json:"sessionId"`
	CarID       string            `json:"carId"`
	Events      []WireReplayEvent `json:"events"`
}

type WireReplayEvent struct {
	Type        string `json:"type"`
	Seq         uint64 `json:"seq"`
	EnvelopeB64 string `json:"envelopeB64"`
}

func (e ReplayEvent) wire() WireReplayEvent {
	return WireReplayEvent{Type: e.Type, Seq: e.Seq, EnvelopeB64: e.EnvelopeB64}
}

// ToWireReplayTape returns nil for a nil tape.
func ToWireReplayTape(tape *ReplayTape) *WireReplayTape {
	if tape == nil {
		return nil
	}
	events := make([]WireReplayEvent, len(tape.Events))
	for i, e := range tape.Events {
		events[i] = e.wire()
	}
	return &WireReplayTape{
		TapeVersion: tape.TapeVersion,
		SessionID:   tape.SessionID,
		CarID:       tape.CarID,
		Events:      events,
	}
}
