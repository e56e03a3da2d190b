package presentation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/benmeehan/location-tracker/internal/constants"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message types sent to map clients.
const (
	MessageView  = "view"
	MessageError = "error"
	MessageAck   = "ack"
)

// ActionClear is the map-client gesture that wipes the history.
const ActionClear = "clear"

// ServerMessage is what map clients receive.
type ServerMessage struct {
	Type    string     `json:"type"`
	View    *ViewState `json:"view,omitempty"`
	Action  string     `json:"action,omitempty"`
	Message string     `json:"message,omitempty"`
}

// ClientMessage is a gesture sent by a map client.
type ClientMessage struct {
	Action     string `json:"action"`           // "start", "stop" or "clear"
	Choice     string `json:"choice,omitempty"` // interval choice for "start"
	IntervalMS int64  `json:"interval_ms,omitempty"`
}

// Gestures is the set of user actions a map client may trigger.
type Gestures interface {
	StartChoice(choice string) error
	StartTracking(interval time.Duration) error
	StopTracking() error
	ClearHistory(ctx context.Context) error
}

type wsClient struct {
	conn    *websocket.Conn
	views   chan []byte // latest view only
	replies chan []byte
	done    chan struct{}
	once    sync.Once
}

func (c *wsClient) close() {
	c.once.Do(func() { close(c.done) })
}

// WebSocketHub fans view states out to every connected map client and
// relays their gestures back.
type WebSocketHub struct {
	gestures Gestures
	logger   zerolog.Logger
	clients  cmap.ConcurrentMap[string, *wsClient]

	mu   sync.RWMutex
	last []byte
}

// NewWebSocketHub creates an empty hub.
func NewWebSocketHub(gestures Gestures, logger zerolog.Logger) *WebSocketHub {
	return &WebSocketHub{
		gestures: gestures,
		logger:   logger,
		clients:  cmap.New[*wsClient](),
	}
}

// Render implements Renderer.
func (h *WebSocketHub) Render(state ViewState) {
	payload, err := json.Marshal(ServerMessage{Type: MessageView, View: &state})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode view state")
		return
	}

	h.mu.Lock()
	h.last = payload
	h.mu.Unlock()

	for item := range h.clients.IterBuffered() {
		offerLatest(item.Val.views, payload)
	}
}

// Clients returns the number of connected clients.
func (h *WebSocketHub) Clients() int {
	return h.clients.Count()
}

// ServeHTTP upgrades the request and serves one map client.
func (h *WebSocketHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	id := uuid.NewString()
	client := &wsClient{
		conn:    conn,
		views:   make(chan []byte, 1),
		replies: make(chan []byte, 8),
		done:    make(chan struct{}),
	}

	h.mu.Lock()
	if h.last != nil {
		client.views <- h.last
	}
	h.clients.Set(id, client)
	h.mu.Unlock()
	h.logger.Info().Str("client_id", id).Str("remote", r.RemoteAddr).Msg("Map client connected")

	go h.writePump(client)
	h.readPump(client)

	h.clients.Remove(id)
	client.close()
	h.logger.Info().Str("client_id", id).Msg("Map client disconnected")
}

func (h *WebSocketHub) readPump(c *wsClient) {
	defer c.conn.Close()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket read error")
			}
			return
		}

		reply := ServerMessage{Type: MessageAck, Action: msg.Action}
		if err := h.apply(msg); err != nil {
			reply = ServerMessage{Type: MessageError, Action: msg.Action, Message: err.Error()}
		}
		payload, _ := json.Marshal(reply)
		select {
		case c.replies <- payload:
		default:
			h.logger.Warn().Msg("Dropping reply to slow map client")
		}
	}
}

func (h *WebSocketHub) apply(msg ClientMessage) error {
	switch msg.Action {
	case constants.ActionStart:
		if msg.Choice != "" {
			return h.gestures.StartChoice(msg.Choice)
		}
		if msg.IntervalMS <= 0 {
			return fmt.Errorf("start needs a choice or a positive interval_ms")
		}
		return h.gestures.StartTracking(time.Duration(msg.IntervalMS) * time.Millisecond)
	case constants.ActionStop:
		return h.gestures.StopTracking()
	case ActionClear:
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		return h.gestures.ClearHistory(ctx)
	default:
		return fmt.Errorf("unknown action %q", msg.Action)
	}
}

func (h *WebSocketHub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		var payload []byte
		select {
		case <-c.done:
			return
		case payload = <-c.views:
		case payload = <-c.replies:
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		}

		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Debug().Err(err).Msg("WebSocket write failed")
			return
		}
	}
}

// offerLatest replaces any unsent value in c with payload. Only Render sends
// on views channels, and it runs on a single goroutine.
func offerLatest(c chan []byte, payload []byte) {
	select {
	case c <- payload:
		return
	default:
	}
	select {
	case <-c:
	default:
	}
	select {
	case c <- payload:
	default:
	}
}
