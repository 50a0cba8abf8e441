/*
Package api
File: hub.go
Description:
    The WebSocket Hub pushes game updates to every connected client.

    It keeps a registry of open sockets and one broadcast queue. The
    session's subscriber hook queues a "state" message after each
    accepted change, and the heartbeat in main queues a "pulse" with the
    timer view. Clients never mutate state over the socket; intents go
    through the HTTP endpoints.

    Architecture:
    - Hub: one per server, Run in its own goroutine.
    - Client: one browser connection with a buffered outbound queue.
    - ServeWs: upgrades a GET request and registers the client.
*/

package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
)

// Message types pushed to clients.
const (
	MsgState = "state"
	MsgPulse = "pulse"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Message is the JSON envelope for everything sent over the socket.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Client is one connected browser tab.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	greet func() *Message
}

// Hub maintains the set of active clients and fans messages out to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewHub builds a hub that accepts upgrades from the given origins. An
// empty list or a "*" entry accepts any origin.
func NewHub(allowedOrigins []string, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
	origins := slices.Clone(allowedOrigins)
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(origins) == 0 {
				return true
			}
			return slices.Contains(origins, "*") || slices.Contains(origins, origin)
		},
	}
	return h
}

// Run is the hub's event loop. It returns when ctx is cancelled, closing
// every client queue on the way out.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.greet(client)
			h.log.Debug("ws client registered", "clients", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.log.Debug("ws client left", "clients", len(h.clients))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// a full queue means the client stopped reading
					close(client.send)
					delete(h.clients, client)
					h.log.Warn("ws client dropped: send queue full")
				}
			}
		}
	}
}

// greet queues the client's first message. It runs inside the event loop
// right after registration, so every broadcast the client receives
// afterwards was queued no earlier than the greeting was built.
func (h *Hub) greet(client *Client) {
	if client.greet == nil {
		return
	}
	m := client.greet()
	if m == nil {
		return
	}
	data, err := encode(m.Type, m.Payload)
	if err != nil {
		h.log.Error("ws encode failed", "type", m.Type, "error", err)
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

func encode(typ string, payload any) ([]byte, error) {
	return json.Marshal(Message{Type: typ, Payload: payload})
}

// Broadcast queues a message for every client. It never blocks: when the
// queue is full the message is dropped, since a later state or pulse
// supersedes it.
func (h *Hub) Broadcast(typ string, payload any) {
	data, err := encode(typ, payload)
	if err != nil {
		h.log.Error("ws encode failed", "type", typ, "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.log.Warn("ws broadcast queue full, message dropped", "type", typ)
	}
}

// ServeWs upgrades the request and registers a client. greet, if not nil,
// builds the first message the client receives; it is called once the
// client is registered.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request, greet func() *Message) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), greet: greet}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	case <-r.Context().Done():
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump only drains control frames; inbound data is ignored.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("ws read error", "error", err)
			}
			return
		}
	}
}

// writePump writes queued messages and keeps the connection alive with
// pings. It exits when the send queue is closed.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
