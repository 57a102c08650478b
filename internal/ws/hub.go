package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Client is one dashboard socket subscribed to a program's feed.
type Client struct {
	ProgramID uint
	OwnerID   uint
	Send      chan []byte
	hub       *Hub
	mu        sync.Mutex
	closed    bool
}

func NewClient(programID, ownerID uint) *Client {
	return &Client{ProgramID: programID, OwnerID: ownerID, Send: make(chan []byte, 256)}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.hub != nil {
		c.hub.unregister(c)
	}
	close(c.Send)
}

// Hub fans loyalty activity out to the sockets watching each program.
type Hub struct {
	mu        sync.RWMutex
	byProgram map[uint]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{byProgram: make(map[uint]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	if h.byProgram[c.ProgramID] == nil {
		h.byProgram[c.ProgramID] = make(map[*Client]struct{})
	}
	h.byProgram[c.ProgramID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.byProgram[c.ProgramID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byProgram, c.ProgramID)
		}
	}
}

// BroadcastToProgram sends payload to every client of programID. Slow clients drop the message.
func (h *Hub) BroadcastToProgram(programID uint, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[ws] marshal feed payload: %v", err)
		return
	}
	h.mu.RLock()
	m := h.byProgram[programID]
	clients := make([]*Client, 0, len(m))
	for c := range m {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.mu.Lock()
		if !c.closed {
			select {
			case c.Send <- data:
			default:
			}
		}
		c.mu.Unlock()
	}
}

func (h *Hub) ClientCount(programID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byProgram[programID])
}
