package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/isdelr/blogstack/internal/metrics"
	ws "github.com/isdelr/blogstack/internal/websocket"
	"github.com/rs/zerolog/log"
)

const realtimeService = "main"

// RealtimeHandler upgrades /ws connections and answers client events.
type RealtimeHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	now      func() time.Time
}

// NewRealtimeHandler creates a new RealtimeHandler.
func NewRealtimeHandler(hub *ws.Hub) *RealtimeHandler {
	return &RealtimeHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin policy is enforced by the CORS middleware.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (h *RealtimeHandler) timestamp() string {
	return h.now().Format(time.RFC3339Nano)
}

// Serve handles the WebSocket connection request.
func (h *RealtimeHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn)
	if !h.hub.Attach(client) {
		conn.Close()
		return
	}
	metrics.WSConnected(realtimeService)

	client.Enqueue(ws.NewEvent("status", map[string]string{
		"message":   "Connected to real-time server",
		"timestamp": h.timestamp(),
	}))

	go client.WritePump()
	client.ReadPump(h.handle)
	metrics.WSDisconnected(realtimeService)
}

type chatPayload struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

// handle processes one frame received from a client.
func (h *RealtimeHandler) handle(client *ws.Client, frame []byte) {
	var in ws.Inbound
	if err := json.Unmarshal(frame, &in); err != nil {
		log.Debug().Err(err).Str("client_id", client.ID).Msg("Malformed websocket frame")
		metrics.RecordWSMessage(realtimeService, "invalid")
		client.Enqueue(ws.NewErrorMessage("Invalid message format"))
		return
	}
	metrics.RecordWSMessage(realtimeService, in.Event)

	switch in.Event {
	case "message":
		client.Enqueue(ws.NewEvent("message_response", map[string]any{
			"type":             "echo",
			"original_message": rawOrNull(in.Data),
			"timestamp":        h.timestamp(),
			"server":           "blogstack",
		}))

	case "chat_message":
		var chat chatPayload
		if len(in.Data) > 0 {
			if err := json.Unmarshal(in.Data, &chat); err != nil {
				client.Enqueue(ws.NewErrorMessage("Invalid chat payload"))
				return
			}
		}
		if strings.TrimSpace(chat.Username) == "" {
			chat.Username = "Anonymous"
		}
		h.hub.Publish(ws.NewEvent("chat_response", map[string]any{
			"type":      "chat",
			"username":  chat.Username,
			"message":   chat.Message,
			"timestamp": h.timestamp(),
		}))

	case "test_data":
		client.Enqueue(ws.NewEvent("test_response", h.describe(in.Data)))

	case "ping":
		client.Enqueue(ws.NewEvent("pong", map[string]string{"timestamp": h.timestamp()}))

	default:
		log.Warn().Str("event", in.Event).Str("client_id", client.ID).Msg("Unknown websocket event received")
		client.Enqueue(ws.NewErrorMessage("Unknown event: " + in.Event))
	}
}

func rawOrNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}

// describe reports the shape of an arbitrary test payload.
func (h *RealtimeHandler) describe(raw json.RawMessage) map[string]any {
	var value any
	if len(raw) > 0 {
		json.Unmarshal(raw, &value)
	}

	charCount, wordCount := 0, 0
	dataType := "null"
	switch v := value.(type) {
	case string:
		dataType = "string"
		charCount = len([]rune(v))
		wordCount = len(strings.Fields(v))
	case float64:
		dataType = "number"
	case bool:
		dataType = "boolean"
	case []any:
		dataType = "array"
	case map[string]any:
		dataType = "object"
	}
	if dataType != "string" {
		charCount = len([]rune(string(rawOrNull(raw))))
	}

	return map[string]any{
		"original":     rawOrNull(raw),
		"processed_at": h.timestamp(),
		"char_count":   charCount,
		"word_count":   wordCount,
		"data_type":    dataType,
	}
}
