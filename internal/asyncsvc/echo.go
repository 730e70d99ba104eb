package asyncsvc

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/isdelr/blogstack/internal/metrics"
	"github.com/rs/zerolog/hlog"
)

const (
	echoWriteWait = 10 * time.Second
	echoReadLimit = MaxItemBytes + 1024
)

type echoFrame struct {
	Type      string    `json:"type"`
	Original  any       `json:"original"`
	Processed Processed `json:"processed"`
	Timestamp string    `json:"timestamp"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Echo answers each JSON text frame with its processed form. Malformed
// frames get an error frame and the connection stays open.
func (s *Service) Echo(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}
	defer conn.Close()

	log := hlog.FromRequest(r)
	metrics.WSConnected(serviceName)
	defer metrics.WSDisconnected(serviceName)
	s.activity.Record("WebSocket connection established")
	defer s.activity.Record("WebSocket connection closed")

	conn.SetReadLimit(echoReadLimit)
	for {
		kind, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("Unexpected websocket close")
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		var reply any
		var data any
		if err := json.Unmarshal(frame, &data); err != nil {
			metrics.RecordWSMessage(serviceName, "invalid")
			reply = errorFrame{Type: "error", Message: "Invalid JSON format"}
		} else {
			metrics.RecordWSMessage(serviceName, "echo")
			processed, err := s.processor.Process(r.Context(), data)
			if err != nil {
				reply = errorFrame{Type: "error", Message: err.Error()}
			} else {
				reply = echoFrame{Type: "echo", Original: data, Processed: processed, Timestamp: s.timestamp()}
			}
		}

		conn.SetWriteDeadline(time.Now().Add(echoWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			log.Debug().Err(err).Msg("Failed to write websocket reply")
			return
		}
	}
}

// TestPage serves a small browser client for the echo endpoint.
func (s *Service) TestPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(testPage))
}

const testPage = `<!DOCTYPE html>
<html>
<head>
  <title>WebSocket Test</title>
  <style>
    body { font-family: sans-serif; margin: 40px; }
    .log { background: #f8f9fa; padding: 15px; height: 300px; overflow-y: scroll; font-family: monospace; white-space: pre; }
    input[type="text"] { width: 360px; padding: 8px; }
    button { padding: 8px 16px; margin: 4px; }
  </style>
</head>
<body>
  <h1>WebSocket Test Page</h1>
  <div id="status">Disconnected</div>
  <input type="text" id="message" value='{"message": "Hello WebSocket!", "type": "test"}'>
  <button onclick="connect()">Connect</button>
  <button onclick="disconnect()">Disconnect</button>
  <button onclick="send()">Send</button>
  <button onclick="logEl.textContent = ''">Clear</button>
  <div id="log" class="log"></div>
  <script>
    let ws = null;
    const logEl = document.getElementById('log');
    const statusEl = document.getElementById('status');
    function log(line) {
      logEl.textContent += '[' + new Date().toLocaleTimeString() + '] ' + line + '\n';
      logEl.scrollTop = logEl.scrollHeight;
    }
    function connect() {
      if (ws && ws.readyState === WebSocket.OPEN) { log('Already connected'); return; }
      const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
      ws = new WebSocket(scheme + location.host + '/async/ws');
      ws.onopen = () => { statusEl.textContent = 'Connected'; log('Connected'); };
      ws.onmessage = (e) => log('Received: ' + e.data);
      ws.onclose = () => { statusEl.textContent = 'Disconnected'; log('Closed'); };
      ws.onerror = () => log('Error');
    }
    function disconnect() { if (ws) { ws.close(); } }
    function send() {
      if (!ws || ws.readyState !== WebSocket.OPEN) { log('Not connected'); return; }
      const msg = document.getElementById('message').value.trim();
      if (!msg) { return; }
      log('Sending: ' + msg);
      ws.send(msg);
    }
  </script>
</body>
</html>
`
