package stream

import (
	"encoding/json"
	"fmt"

	"github.com/hervehildenbrand/waf-console/pkg/models"
)

// Liveness tokens exchanged on the stream. The probe and its ack are bare
// text frames, not structured messages.
const (
	pingToken = "ping"
	pongToken = "pong"
)

// Message types carried in the envelope.
const (
	MessageTypeEvent     = "security_event"
	MessageTypeHeartbeat = "heartbeat"
)

// Message is the decoded inbound envelope from the event stream.
type Message struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Decode parses an inbound payload. It returns ok=false for control
// artifacts: payloads that do not decode as structured messages (liveness
// acks such as "pong") and heartbeat messages. Everything else is passed
// through verbatim.
func Decode(payload []byte) (Message, bool) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, false
	}
	if msg.Type == MessageTypeHeartbeat {
		return Message{}, false
	}
	return msg, true
}

// DecodeEvent extracts the security event carried in a message's data
// field.
func DecodeEvent(msg Message) (models.Event, error) {
	var event models.Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return models.Event{}, fmt.Errorf("unmarshal event data: %w", err)
	}
	return event, nil
}
