package hub

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Channel names, one per role. The admin console connects on /secure.
const (
	ChannelServer   = "/server"
	ChannelPlayer   = "/player"
	ChannelControls = "/controls"
	ChannelStream   = "/stream"
	ChannelAdmin    = "/secure"
)

var errNotJSON = errors.New("payload is not valid JSON")

// PlayerEventArgs is the server's "event" payload addressing one player.
type PlayerEventArgs struct {
	PlayerID  string          `json:"playerId"`
	EventType string          `json:"eventType"`
	EventData json.RawMessage `json:"eventData,omitempty"`
}

// PlayerEvent is the wrapped form delivered to the addressed player.
type PlayerEvent struct {
	EventType string          `json:"eventType"`
	EventData json.RawMessage `json:"eventData,omitempty"`
}

// ScreenFrame wraps one raw screen capture for stream viewers.
type ScreenFrame struct {
	Image  bool   `json:"image"`
	Buffer string `json:"buffer"`
}

// normalizeID strips the channel-role prefix the transport embeds in every
// connection identifier. All roster keys and wire-visible ids go through
// here, once, at the attach boundary.
func normalizeID(channel, rawID string) string {
	prefix := channel + "#"
	if len(rawID) >= len(prefix) && rawID[:len(prefix)] == prefix {
		return rawID[len(prefix):]
	}
	return rawID
}

// withID augments an opaque JSON object payload with the normalized
// connection id under the "i" key. Non-object payloads degrade to just
// {"i": id}; the hub-assigned id always wins over any "i" the client sent.
func withID(id string, payload json.RawMessage) json.RawMessage {
	fields := make(map[string]json.RawMessage)
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &fields); err != nil {
			fields = make(map[string]json.RawMessage)
		}
	}

	idJSON, _ := json.Marshal(id)
	fields["i"] = idJSON

	out, _ := json.Marshal(fields)
	return out
}

// parseConfig validates a raw game-create payload. The presentation server
// historically sends its config JSON-encoded inside a JSON string, so one
// level of string wrapping is unwrapped before validation. Anything that is
// not valid JSON afterwards is rejected without side effects.
func parseConfig(data json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errNotJSON
	}

	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil, err
		}
		trimmed = bytes.TrimSpace([]byte(inner))
	}

	if !json.Valid(trimmed) {
		return nil, errNotJSON
	}
	return json.RawMessage(trimmed), nil
}
