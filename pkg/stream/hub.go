// Package stream pushes mission activity to browser clients over WebSocket.
//
// A Hub keeps the set of connected clients and fans every published Message
// out to them. Each client gets its own write pump so one slow socket cannot
// stall the others; a client whose buffer fills up is dropped.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/picogrid/expedition-sim/pkg/logger"
	"github.com/picogrid/expedition-sim/pkg/mission"
	"github.com/picogrid/expedition-sim/pkg/models"
)

// Message types.
const (
	TypeState    = "state"
	TypeEvent    = "event"
	TypeComplete = "complete"
	TypeReroute  = "reroute"
	TypeThreat   = "threat"
)

const (
	sendBuffer      = 256
	broadcastBuffer = 1024
	writeWait       = 10 * time.Second
	maxMessageSize  = 4096
)

// Message is the JSON envelope for everything sent over the socket.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	Sender  string      `json:"sender"`
}

// Command is an operator instruction received from a client, e.g.
// {"type":"pause"}.
type Command struct {
	Type string `json:"type"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub is safe for concurrent use. Run must be running for clients to
// register and receive messages.
type Hub struct {
	sender    string
	clients   map[*client]bool
	broadcast chan []byte

	register   chan *client
	unregister chan *client
	done       chan struct{}

	onCommand func(Command)
	upgrader  websocket.Upgrader
	log       logger.Logger

	connected atomic.Int64
	dropped   atomic.Int64
}

type Option func(*Hub)

// WithSender sets the Sender of every published message.
func WithSender(name string) Option {
	return func(h *Hub) { h.sender = name }
}

// WithCommandHandler receives commands sent by clients. It is called on the
// client's read goroutine.
func WithCommandHandler(fn func(Command)) Option {
	return func(h *Hub) { h.onCommand = fn }
}

func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.log = l
		}
	}
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		sender:     "system",
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: logger.WithPrefix("stream"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// disconnects every client. Call it once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.remove(c)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			h.connected.Add(1)
			h.log.Debug("Client connected")

		case c := <-h.unregister:
			if h.clients[c] {
				h.remove(c)
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.log.Warn("Dropping slow client")
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.connected.Add(-1)
}

// Clients is the number of registered clients.
func (h *Hub) Clients() int { return int(h.connected.Load()) }

// Dropped counts messages discarded because the broadcast queue was full.
func (h *Hub) Dropped() int64 { return h.dropped.Load() }

// Publish queues a message for every client. It never blocks; when the
// queue is full the message is dropped.
func (h *Hub) Publish(msgType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: msgType, Payload: payload, Sender: h.sender})
	if err != nil {
		h.log.Errorf("Failed to encode %s message: %v", msgType, err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.dropped.Add(1)
	}
}

// OnUpdate implements mission.Observer.
func (h *Hub) OnUpdate(state mission.State) { h.Publish(TypeState, state) }

func (h *Hub) OnEvent(event mission.Event) { h.Publish(TypeEvent, event) }

func (h *Hub) OnComplete(success bool) {
	h.Publish(TypeComplete, map[string]bool{"success": success})
}

// PublishThreat forwards a threat report.
func (h *Hub) PublishThreat(t models.Threat) { h.Publish(TypeThreat, t) }

// ServeHTTP upgrades the request and registers the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("Upgrade failed: %v", err)
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	case <-r.Context().Done():
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warnf("Read error: %v", err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil || cmd.Type == "" {
			c.hub.log.Debugf("Ignoring message: %s", data)
			continue
		}
		if c.hub.onCommand != nil {
			c.hub.onCommand(cmd)
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
