package server

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/teranos/slideinspo/logger"
	"github.com/teranos/slideinspo/pipeline"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Clients only send control frames
	maxMessageSize = 4096

	// Buffered events per client before new ones are dropped
	sendBuffer = 64
)

// Hub broadcasts pipeline progress to websocket clients. It implements
// pipeline.Emitter.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*wsClient]struct{}
	upgrader websocket.Upgrader
	logger   *zap.SugaredLogger
}

type wsClient struct {
	id        string
	conn      *websocket.Conn
	send      chan pipeline.Event
	closeOnce sync.Once
}

// NewHub creates a hub accepting websocket connections from allowedOrigins
func NewHub(allowedOrigins []string, log *zap.SugaredLogger) *Hub {
	return &Hub{
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(r.Header.Get("Origin"), allowedOrigins)
			},
		},
		logger: logger.OrNop(log),
	}
}

// originAllowed accepts an empty origin (non-browser clients) or one whose
// scheme and host equal an allowed origin's. An allowed origin without a port
// matches any port.
func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	o, err := url.Parse(origin)
	if err != nil || o.Host == "" {
		return false
	}
	for _, a := range allowed {
		u, err := url.Parse(a)
		if err != nil || u.Host == "" {
			continue
		}
		if !strings.EqualFold(o.Scheme, u.Scheme) || !strings.EqualFold(o.Hostname(), u.Hostname()) {
			continue
		}
		if u.Port() == "" || u.Port() == o.Port() {
			return true
		}
	}
	return false
}

// ServeWS upgrades the request and registers the client
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("WebSocket upgrade failed", logger.FieldError, err)
		return
	}

	c := &wsClient{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan pipeline.Event, sendBuffer),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debugw("WebSocket client connected", "client_id", c.id)

	go h.writePump(c)
	go h.readPump(c)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*wsClient]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.close()
	}
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.close()
		h.logger.Debugw("WebSocket client disconnected", "client_id", c.id)
	}
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// broadcast queues ev for every client. Returns the number of clients that
// accepted it; clients with a full buffer miss the event.
func (h *Hub) broadcast(ev pipeline.Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for c := range h.clients {
		select {
		case c.send <- ev:
			sent++
		default:
		}
	}
	return sent
}

// readPump discards client messages and keeps the read deadline fresh
func (h *Hub) readPump(c *wsClient) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNoStatusReceived,
			) {
				h.logger.Warnw("WebSocket read error", "client_id", c.id, logger.FieldError, err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				h.logger.Debugw("WebSocket write failed", "client_id", c.id, logger.FieldError, err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// EmitStage broadcasts a stage event
func (h *Hub) EmitStage(stage, message string) { h.broadcast(pipeline.StageEvent(stage, message)) }

// EmitItem broadcasts an item event
func (h *Hub) EmitItem(item pipeline.Item) { h.broadcast(pipeline.ItemEvent(item)) }

// EmitComplete broadcasts a completion event
func (h *Hub) EmitComplete(summary pipeline.Summary) { h.broadcast(pipeline.CompleteEvent(summary)) }

// EmitError broadcasts an error event
func (h *Hub) EmitError(stage string, err error) { h.broadcast(pipeline.ErrorEvent(stage, err)) }
