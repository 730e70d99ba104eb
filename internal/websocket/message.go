package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Message defines the structure for outbound websocket frames.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Inbound is a frame received from a client. Data is kept raw so handlers
// can echo it unchanged.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewEvent encodes an event frame.
func NewEvent(event string, data any) []byte {
	b, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("Failed to encode websocket event")
		return []byte(`{"event":"error","data":{"message":"internal encoding error"}}`)
	}
	return b
}

// NewErrorMessage encodes an error frame.
func NewErrorMessage(message string) []byte {
	return NewEvent("error", map[string]string{"message": message})
}
