package gateway

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"curator-lite/apps/server/internal/codec"
	"curator-lite/apps/server/internal/lobby"
	"curator-lite/apps/server/internal/room"
	"curator-lite/auction"

	"github.com/gorilla/websocket"
)

const (
	readLimit    = 65536
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
	sendBuffer   = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Connection represents a WebSocket client connection
type Connection struct {
	ID       string
	Conn     *websocket.Conn
	Send     chan []byte
	Gateway  *Gateway
	LastPing time.Time

	mu   sync.Mutex
	room *room.Room
}

// Gateway manages WebSocket connections
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	nextConnID  uint64
	lobby       *lobby.Lobby
}

func New(lby *lobby.Lobby) *Gateway {
	return &Gateway{
		connections: make(map[string]*Connection),
		lobby:       lby,
	}
}

// HandleWebSocket handles WebSocket upgrade and connection
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Gateway] Upgrade error: %v", err)
		return
	}

	g.mu.Lock()
	g.nextConnID++
	c := &Connection{
		ID:       fmt.Sprintf("conn_%d", g.nextConnID),
		Conn:     conn,
		Send:     make(chan []byte, sendBuffer),
		Gateway:  g,
		LastPing: time.Now(),
	}
	g.connections[c.ID] = c
	total := len(g.connections)
	g.mu.Unlock()

	log.Printf("[Gateway] Client connected: %s, total: %d", c.ID, total)

	go c.readPump()
	go c.writePump()
}

func (c *Connection) readPump() {
	defer func() {
		c.Gateway.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(readLimit)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		c.LastPing = time.Now()
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Gateway] Read error: %v", err)
			}
			break
		}

		if messageType == websocket.BinaryMessage {
			c.handleMessage(message)
		}
	}
}

func (c *Connection) handleMessage(data []byte) {
	msg, err := codec.DecodeClient(data)
	if err != nil {
		log.Printf("[Gateway] Failed to decode from %s: %v", c.ID, err)
		c.sendError(codec.ErrCodeBadRequest, "invalid_envelope", "invalid message format")
		return
	}

	switch msg.Type {
	case codec.ClientOpen:
		c.handleOpen(msg)
	case codec.ClientAct:
		c.handleAct(msg)
	case codec.ClientSnapshot:
		c.withRoom(func(r *room.Room) error { return r.RequestSnapshot() })
	case codec.ClientLeave:
		c.handleLeave()
	case codec.ClientPing:
		c.sendSessionless(codec.ServerPong, nil)
	default:
		log.Printf("[Gateway] Unknown message type from %s: %s", c.ID, msg.Type)
		c.sendError(codec.ErrCodeBadRequest, "unknown_type", "unknown message type "+msg.Type)
	}
}

func (c *Connection) handleOpen(msg codec.ClientMessage) {
	var req codec.OpenRequest
	if err := msg.Decode(&req); err != nil {
		c.sendError(codec.ErrCodeBadRequest, "invalid_payload", err.Error())
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.room != nil && !c.room.IsClosed() {
		if c.room.Snapshot().State != auction.StateClosed {
			c.sendError(codec.ErrCodeRejected, "session_open", "leave the current auction first")
			return
		}
		// Settled: release the room so a fresh auction can open.
		c.Gateway.lobby.Close(c.room.ID)
		c.room = nil
	}

	r, err := c.Gateway.lobby.Open(c.ID, req, c.enqueue)
	if err != nil {
		switch {
		case errors.Is(err, lobby.ErrUnknownEvent):
			c.sendError(codec.ErrCodeRejected, "unknown_event", err.Error())
		case errors.Is(err, lobby.ErrNoCar):
			c.sendError(codec.ErrCodeRejected, "no_car", err.Error())
		default:
			log.Printf("[Gateway] Open failed for %s: %v", c.ID, err)
			c.sendError(codec.ErrCodeInternalError, "open_failed", err.Error())
		}
		return
	}
	c.room = r
}

func (c *Connection) handleAct(msg codec.ClientMessage) {
	var req codec.ActRequest
	if err := msg.Decode(&req); err != nil {
		c.sendError(codec.ErrCodeBadRequest, "invalid_payload", err.Error())
		return
	}
	action, err := req.Action()
	if err != nil {
		c.sendError(codec.ErrCodeBadRequest, "invalid_action", err.Error())
		return
	}
	c.withRoom(func(r *room.Room) error { return r.Act(action) })
}

func (c *Connection) handleLeave() {
	c.mu.Lock()
	r := c.room
	c.room = nil
	c.mu.Unlock()
	if r == nil {
		return
	}
	if err := r.Leave(); err != nil && !errors.Is(err, room.ErrRoomClosed) {
		log.Printf("[Gateway] Leave failed for %s: %v", c.ID, err)
	}
	c.Gateway.lobby.Close(r.ID)
}

// withRoom runs fn against the current room. Engine rejections are already
// reported by the room itself.
func (c *Connection) withRoom(fn func(r *room.Room) error) {
	c.mu.Lock()
	r := c.room
	c.mu.Unlock()
	if r == nil {
		c.sendError(codec.ErrCodeNoSession, "no_session", "no auction is open")
		return
	}
	err := fn(r)
	switch {
	case err == nil:
	case errors.Is(err, room.ErrRoomClosed):
		c.sendError(codec.ErrCodeNoSession, "no_session", err.Error())
	case errors.Is(err, auction.ErrAuctionClosed):
	default:
		log.Printf("[Gateway] %s rejected in room %s: %v", c.ID, r.ID, err)
	}
}

func (c *Connection) sendError(code int32, reason, msg string) {
	c.sendSessionless(codec.ServerError, codec.ErrorPayload{Code: code, Reason: reason, Message: msg})
}

// sendSessionless sends an envelope outside any room sequence (seq 0).
func (c *Connection) sendSessionless(kind string, payload any) {
	_, data, err := codec.WrapServerEnvelope("", 0, kind, payload)
	if err != nil {
		log.Printf("[Gateway] Failed to encode %s: %v", kind, err)
		return
	}
	c.enqueue(data)
}

// enqueue drops the message when the buffer is full.
func (c *Connection) enqueue(data []byte) {
	select {
	case c.Send <- data:
	default:
		log.Printf("[Gateway] Send buffer full for %s, dropping message", c.ID)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) removeConnection(c *Connection) {
	c.handleLeave()

	g.mu.Lock()
	delete(g.connections, c.ID)
	total := len(g.connections)
	g.mu.Unlock()
	log.Printf("[Gateway] Client disconnected: %s, total: %d", c.ID, total)
}
