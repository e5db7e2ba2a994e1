package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/scythe504/guessword-backend/internal"
	"github.com/scythe504/guessword-backend/internal/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

var Upgrader = gws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Dispatcher consumes inbound traffic. *game.Registry satisfies it.
type Dispatcher interface {
	Connect(connID string)
	Dispatch(connID string, msg internal.Message[json.RawMessage])
	Disconnect(connID string)
}

type Client struct {
	id   string
	conn *gws.Conn
	send chan any
}

// Hub tracks live connections and the room groups they belong to. Sends never
// block: a client whose buffer is full is dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*Client
	rooms   map[string]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]struct{}),
	}
}

// =============================================================================
// BROADCASTING
// =============================================================================

func (h *Hub) SendTo(connID string, msg internal.Message[any]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[connID]; ok {
		h.sendLocked(c, msg)
	}
}

func (h *Hub) SendRoom(code string, msg internal.Message[any]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for connID := range h.rooms[code] {
		if c, ok := h.clients[connID]; ok {
			h.sendLocked(c, msg)
		}
	}
}

func (h *Hub) SendAll(msg internal.Message[any]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		h.sendLocked(c, msg)
	}
}

func (h *Hub) Subscribe(code, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[code]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[code] = members
	}
	members[connID] = struct{}{}
}

func (h *Hub) Unsubscribe(code, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unsubscribeLocked(code, connID)
}

// CloseRoom forgets the group. Connections stay open and return to the lobby.
func (h *Hub) CloseRoom(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, code)
}

// Len reports the number of live connections.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) sendLocked(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		log.Warn().Str("conn", c.id).Msg("send buffer full, dropping client")
		h.dropLocked(c)
	}
}

func (h *Hub) unsubscribeLocked(code, connID string) {
	members, ok := h.rooms[code]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.rooms, code)
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

// dropLocked closes c's send channel exactly once.
func (h *Hub) dropLocked(c *Client) {
	if h.clients[c.id] != c {
		return
	}
	delete(h.clients, c.id)
	for code := range h.rooms {
		h.unsubscribeLocked(code, c.id)
	}
	close(c.send)
}

// =============================================================================
// WEBSOCKET CONNECTION HANDLING
// =============================================================================

// HandleWebSocket upgrades the request and feeds its messages to d.
func (h *Hub) HandleWebSocket(d Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error().Err(err).Msg("websocket upgrade failed")
			return
		}

		c := &Client{
			id:   utils.GenerateID(),
			conn: conn,
			send: make(chan any, sendBuffer),
		}
		h.register(c)
		log.Info().Str("conn", c.id).Str("remote", r.RemoteAddr).Msg("client connected")

		go c.writePump()
		d.Connect(c.id)
		c.readPump(h, d)
	}
}

func (c *Client) readPump(h *Hub, d Dispatcher) {
	defer func() {
		d.Disconnect(c.id)
		h.unregister(c)
		_ = c.conn.Close()
		log.Info().Str("conn", c.id).Msg("client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if gws.IsUnexpectedCloseError(err, gws.CloseGoingAway, gws.CloseNormalClosure) {
				log.Warn().Err(err).Str("conn", c.id).Msg("read error")
			}
			return
		}

		var msg internal.Message[json.RawMessage]
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Debug().Err(err).Str("conn", c.id).Msg("failed to parse base message")
			h.SendTo(c.id, internal.Message[any]{
				Type: internal.EventSystemError,
				Data: internal.SystemErrorData{Code: internal.ErrCodeBadRequest, Message: "malformed message"},
			})
			continue
		}
		d.Dispatch(c.id, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(gws.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(gws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
