package wshub

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/coder/websocket"
)

// ClientMessage is the JSON structure received from clients.
type ClientMessage struct {
	Type       string `json:"t"`
	X          int    `json:"x,omitempty"`
	Y          int    `json:"y,omitempty"`
	Difficulty int    `json:"d,omitempty"`
}

// TargetView is one circle as the browser draws it.
type TargetView struct {
	ID     int    `json:"id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	CX     int    `json:"cx"`
	CY     int    `json:"cy"`
	Radius int    `json:"r"`
	Color  string `json:"c"`
}

// StateView is the render payload: labels plus targets.
type StateView struct {
	State         string       `json:"state"`
	Round         int          `json:"round"`
	Score         int          `json:"score"`
	RemainingTime int          `json:"time"`
	Difficulty    int          `json:"difficulty"`
	GameOver      bool         `json:"gameOver"`
	Message       string       `json:"message,omitempty"`
	Targets       []TargetView `json:"targets"`
}

// ServerMessage is the JSON structure sent to clients.
type ServerMessage struct {
	Type    string     `json:"t"`
	Outcome string     `json:"outcome,omitempty"`
	Error   string     `json:"error,omitempty"`
	State   *StateView `json:"state,omitempty"`
}

// Client represents a single WebSocket connection in the hub.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Hub tracks the WebSocket connections attached to one game session.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
}

// Unregister removes a client and closes its Send channel.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		close(c.Send)
		delete(h.clients, id)
	}
}

// CloseAll unregisters every client.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		close(c.Send)
		delete(h.clients, id)
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a message to every client. Non-blocking: drops if channel full.
func (h *Hub) Broadcast(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[WSHub] Marshal error: %v\n", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		select {
		case c.Send <- data:
		default:
			// Drop message if channel full
		}
	}
}

// Send delivers a message to a single client. Non-blocking like Broadcast.
func (h *Hub) Send(id string, msg ServerMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[WSHub] Marshal error: %v\n", err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.clients[id]
	if !ok {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}
