package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/ferry-trace/verifier/internal/models"
)

// WebSocket message types for the run watch protocol
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeStatus    = "status"
	MsgTypeComplete  = "complete"
	MsgTypeError     = "error"
	MsgTypePong      = "pong"
)

// DefaultWatchInterval is how often a watched run is polled.
const DefaultWatchInterval = 250 * time.Millisecond

// WSMessage is the envelope of every WebSocket message
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WSErrorResponse is the payload of an error message
type WSErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WebSocketHandler pushes run status changes to the client until the run
// finishes, then sends the final run with its report and closes.
type WebSocketHandler struct {
	runs     RunManager
	upgrader websocket.Upgrader
	interval time.Duration
	logger   *slog.Logger
}

// NewWebSocketHandler creates a new run watch handler
func NewWebSocketHandler(runs RunManager, interval time.Duration, logger *slog.Logger) *WebSocketHandler {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{
		runs: runs,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
		},
		interval: interval,
		logger:   logger,
	}
}

// HandleRunWatch upgrades the connection and streams the run's status
func (wsh *WebSocketHandler) HandleRunWatch(c echo.Context) error {
	id := c.Param("id")
	if _, ok := wsh.runs.GetRun(id); !ok {
		return NewNotFoundError("run", id)
	}

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	log := wsh.logger.With("session", id)
	log.Debug("run watcher connected")

	// gorilla connections allow one concurrent writer, so the reader only
	// forwards pings to the write loop.
	pings := make(chan struct{}, 1)
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			var msg WSMessage
			if err := ws.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug("run watcher read failed", "error", err)
				}
				return
			}
			if msg.Type == MsgTypePing {
				select {
				case pings <- struct{}{}:
				default:
				}
			}
		}
	}()

	if err := wsh.send(ws, MsgTypeConnected, id, nil); err != nil {
		return nil
	}

	ticker := time.NewTicker(wsh.interval)
	defer ticker.Stop()

	var last models.SessionStatus
	for {
		run, ok := wsh.runs.GetRun(id)
		if !ok {
			wsh.send(ws, MsgTypeError, id, WSErrorResponse{Message: "run was cleaned up", Code: "NOT_FOUND"})
			return nil
		}
		if run.Status == models.SessionStatusComplete || run.Status == models.SessionStatusError {
			if err := wsh.send(ws, MsgTypeComplete, id, run); err == nil {
				ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished"))
			}
			log.Debug("run watcher done", "status", run.Status)
			return nil
		}
		if run.Status != last {
			last = run.Status
			if err := wsh.send(ws, MsgTypeStatus, id, run); err != nil {
				return nil
			}
		}

		select {
		case <-ticker.C:
			wsh.runs.TouchSession(id)
		case <-pings:
			if err := wsh.send(ws, MsgTypePong, id, nil); err != nil {
				return nil
			}
		case <-closed:
			log.Debug("run watcher disconnected")
			return nil
		}
	}
}

func (wsh *WebSocketHandler) send(ws *websocket.Conn, msgType, id string, payload interface{}) error {
	msg := WSMessage{Type: msgType, ID: id, Timestamp: time.Now().UnixMilli()}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		msg.Payload = data
	}
	return ws.WriteJSON(msg)
}
