package server

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jonathan/preflight/internal/logging"
	"github.com/jonathan/preflight/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	clientBuffer   = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
}

// Hub broadcasts every check run event to the connected editors. It
// implements checker.ResultSink.
type Hub struct {
	mu      sync.Mutex
	clients map[*hubClient]struct{}
	closed  bool
	logger  *zap.Logger
}

type hubClient struct {
	conn  *websocket.Conn
	send  chan types.Event
	docID int
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*hubClient]struct{}),
		logger:  logging.OrNop(logger),
	}
}

// Emit queues event for every subscribed client. A client that cannot
// keep up is disconnected rather than slowing the run down.
func (h *Hub) Emit(event types.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		if c.docID != 0 && c.docID != event.DocID {
			continue
		}
		select {
		case c.send <- event:
		default:
			h.logger.Warn("dropping slow websocket client", zap.String("remote", c.conn.RemoteAddr().String()))
			h.removeLocked(c)
		}
	}
	return nil
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

// ServeWS upgrades the request to a websocket and streams events until the
// client disconnects. The optional doc query parameter limits the stream to
// one document.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	docID := 0
	if v := r.URL.Query().Get("doc"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid doc", http.StatusBadRequest)
			return
		}
		docID = id
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade the websocket", zap.Error(err))
		return
	}

	c := &hubClient{conn: conn, send: make(chan types.Event, clientBuffer), docID: docID}
	if !h.register(c) {
		conn.WriteControl(websocket.CloseMessage, //nolint:errcheck
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	h.logger.Debug("websocket client connected", zap.String("remote", conn.RemoteAddr().String()))

	go c.writePump()
	c.readPump()

	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
	h.logger.Debug("websocket client disconnected", zap.String("remote", conn.RemoteAddr().String()))
}

func (h *Hub) register(c *hubClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

// removeLocked unregisters c and stops its writer. h.mu must be held.
func (h *Hub) removeLocked(c *hubClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// readPump discards client messages and keeps the connection alive until
// the client goes away.
func (c *hubClient) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *hubClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
