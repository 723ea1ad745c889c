// Copyright 2026 The Memoria Authors
//
// SPDX-License-Identifier: Apache-2.0
package board

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	clientSendSize = 8
)

// Hub fans whole-collection snapshots out to connected WebSocket clients.
// Every successful mutation triggers one broadcast; clients replace their
// view rather than applying diffs. A client that can't keep up is dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[*hubClient]struct{}
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty snapshot hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*hubClient]struct{})}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The board is same-origin only; the reverse proxy enforces it.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// Serve upgrades an HTTP request to a WebSocket client and sends it the
// given initial snapshot. It returns once the client is registered.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, initial any) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &hubClient{
		conn: conn,
		send: make(chan []byte, clientSendSize),
	}

	if data, err := json.Marshal(initial); err == nil {
		client.send <- data
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(client)
	go h.readLoop(client)

	return nil
}

// Broadcast marshals a snapshot and queues it for every client. Clients with
// a full queue are dropped so the hub never blocks a mutation.
func (h *Hub) Broadcast(snapshot any) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("marshaling snapshot: %v", err)

		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

// ClientCount reports the number of connected clients. Used by tests.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

func (h *Hub) remove(client *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *Hub) writeLoop(client *hubClient) {
	defer client.conn.Close()

	for data := range client.send {
		if err := client.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			h.remove(client)

			return
		}

		if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.remove(client)

			return
		}
	}
}

// readLoop drains (and ignores) client messages so pings and close frames
// are processed.
func (h *Hub) readLoop(client *hubClient) {
	defer h.remove(client)

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
