// Copyright (c) 2024-2025 Swarm Squad contributors
// SPDX-License-Identifier: MIT

package server

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// =============================================================================
// WEBSOCKET HUB
// =============================================================================

// Hub fans messages out to WebSocket subscribers. Each connection
// subscribes to a set of rooms at upgrade time; a message posted to a room
// reaches every connection subscribed to it exactly once.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*wsClient]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*wsClient]struct{})}
}

// wsClient is one WebSocket connection with its outbound queue.
type wsClient struct {
	conn  *websocket.Conn
	send  chan []byte
	rooms []string
}

const clientQueueSize = 64

// register adds a connection subscribed to the given rooms and starts its
// pumps. Returns when the connection is gone.
func (h *Hub) register(conn *websocket.Conn, rooms []string) {
	c := &wsClient{
		conn:  conn,
		send:  make(chan []byte, clientQueueSize),
		rooms: rooms,
	}

	h.mu.Lock()
	for _, room := range rooms {
		if h.rooms[room] == nil {
			h.rooms[room] = make(map[*wsClient]struct{})
		}
		h.rooms[room][c] = struct{}{}
	}
	h.mu.Unlock()

	go c.writePump()
	c.readPump()
	h.unregister(c)
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	for _, room := range c.rooms {
		if subs := h.rooms[room]; subs != nil {
			delete(subs, c)
			if len(subs) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	h.mu.Unlock()
	close(c.send)
}

// Broadcast queues payload for every subscriber of room. Slow consumers
// with a full queue are skipped, not waited on.
func (h *Hub) Broadcast(room string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[room] {
		select {
		case c.send <- payload:
		default:
			log.Printf("server: dropping frame for slow subscriber of %s", room)
		}
	}
}

// SubscriberCount reports how many connections are subscribed to room.
func (h *Hub) SubscriberCount(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}

// readPump drains inbound frames until the peer hangs up. The dev
// backend's channel is one-directional; client frames are ignored.
func (c *wsClient) readPump() {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			break
		}
	}
	c.conn.Close()
}
