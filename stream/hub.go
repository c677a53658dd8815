// Package stream serves a running simulation over HTTP: the recorded series
// and configuration as JSON, and every new step pushed to websocket clients.
package stream

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/fitness/telemetry"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// writeWait bounds a single websocket write so a stalled client cannot hold
// up the stepping loop.
var writeWait = 5 * time.Second

// Message is the envelope for everything sent to and received from clients.
type Message struct {
	Type   string                `json:"type"`
	Stats  *telemetry.StepStats  `json:"stats,omitempty"`
	Agents []telemetry.AgentRow  `json:"agents,omitempty"`
	Grid   *GridInfo             `json:"grid,omitempty"`
	Series []telemetry.StepStats `json:"series,omitempty"`
}

// GridInfo is sent once to every new client.
type GridInfo struct {
	Width  int `json:"w"`
	Height int `json:"h"`
}

// Message types.
const (
	TypeHello  = "hello"
	TypeStep   = "step"
	TypeAgents = "agents"
	TypePause  = "pause"
	TypeResume = "resume"
	TypeStop   = "stop"
	TypeOK     = "ok"
)

// Client is one websocket connection. Writes are serialized.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Send writes v as JSON, failing if the write does not finish within writeWait.
func (c *Client) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

// Hub fans step records out to websocket clients. It implements
// telemetry.Sink so it can be attached to a model's recorder.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}

	hello     func() Message
	onCommand func(cmd string)
}

// NewHub creates a hub. hello builds the greeting sent to each new client;
// onCommand receives pause, resume and stop requests from clients. Either
// may be nil.
func NewHub(hello func() Message, onCommand func(cmd string)) *Hub {
	return &Hub{
		clients:   make(map[*Client]struct{}),
		hello:     hello,
		onCommand: onCommand,
	}
}

// ServeWS upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	client := &Client{conn: conn}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	if h.hello != nil {
		_ = client.Send(h.hello())
	}

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case TypePause, TypeResume, TypeStop:
			if h.onCommand != nil {
				h.onCommand(msg.Type)
			}
			_ = client.Send(Message{Type: TypeOK})
		}
	}

	h.drop(client)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends msg to every client, dropping those that fail.
func (h *Hub) Broadcast(msg Message) {
	h.mu.Lock()
	list := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		list = append(list, c)
	}
	h.mu.Unlock()

	for _, c := range list {
		if err := c.Send(msg); err != nil {
			slog.Debug("dropping websocket client", "error", err)
			h.drop(c)
		}
	}
}

func (h *Hub) drop(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.conn.Close()
	}
}

// WriteStep broadcasts a step record.
func (h *Hub) WriteStep(stats telemetry.StepStats) error {
	h.Broadcast(Message{Type: TypeStep, Stats: &stats})
	return nil
}

// WriteAgents broadcasts the per-agent rows of a step.
func (h *Hub) WriteAgents(rows []telemetry.AgentRow) error {
	if len(rows) > 0 {
		h.Broadcast(Message{Type: TypeAgents, Agents: rows})
	}
	return nil
}

// Close disconnects every client.
func (h *Hub) Close() error {
	h.mu.Lock()
	list := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		list = append(list, c)
	}
	h.mu.Unlock()

	for _, c := range list {
		h.drop(c)
	}
	return nil
}
