//go:build js && wasm

package main

import (
	"encoding/json"
	"errors"
	"syscall/js"

	"curator-lite/replay"
)

type initRequest struct {
	Spec replay.AuctionSpec `json:"spec"`
}

type initResponse struct {
	OK    bool                   `json:"ok"`
	Tape  *replay.WireReplayTape `json:"tape,omitempty"`
	Error *replay.ReplayError    `json:"error,omitempty"`
}

type decodeResponse struct {
	OK       bool           `json:"ok"`
	Type     string         `json:"type,omitempty"`
	Envelope map[string]any `json:"envelope,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func main() {
	js.Global().Set("__curatorReplayInit", js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) < 1 {
			return mustJSON(initResponse{
				OK:    false,
				Error: &replay.ReplayError{StepIndex: -1, Reason: "invalid_request", Message: "missing request payload"},
			})
		}
		return mustJSON(handleInit(args[0].String()))
	}))
	js.Global().Set("__curatorReplayDecode", js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) < 1 {
			return mustJSON(decodeResponse{Error: "missing envelope"})
		}
		return mustJSON(handleDecode(args[0].String()))
	}))

	select {}
}

func handleInit(raw string) initResponse {
	var req initRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return initResponse{
			OK:    false,
			Error: &replay.ReplayError{StepIndex: -1, Reason: "invalid_json", Message: err.Error()},
		}
	}

	tape, err := replay.GenerateReplayTape(req.Spec)
	if err != nil {
		var replayErr *replay.ReplayError
		if errors.As(err, &replayErr) {
			return initResponse{OK: false, Error: replayErr}
		}
		return initResponse{
			OK:    false,
			Error: &replay.ReplayError{StepIndex: -1, Reason: "replay_generation_failed", Message: err.Error()},
		}
	}
	return initResponse{
		OK:   true,
		Tape: replay.ToWireReplayTape(tape),
	}
}

// handleDecode turns one envelopeB64 from a tape back into plain JSON so the
// page can render it without a protobuf runtime.
func handleDecode(b64 string) decodeResponse {
	env, err := replay.DecodeEnvelopeB64(b64)
	if err != nil {
		return decodeResponse{Error: err.Error()}
	}
	return decodeResponse{OK: true, Type: replay.EnvelopeType(env), Envelope: env.AsMap()}
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		fallback := initResponse{
			OK:    false,
			Error: &replay.ReplayError{StepIndex: -1, Reason: "marshal_failed", Message: err.Error()},
		}
		b2, _ := json.Marshal(fallback)
		return string(b2)
	}
	return string(b)
}
