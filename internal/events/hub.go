// Package events pushes library change notifications to connected
// plugin views over websockets.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/happyleetw/obsidian-photos-bridge-app/internal/observability"
)

// Message is the wire envelope for every event.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Event types
const (
	EventLibraryReloaded = "libraryReloaded"
	EventPing            = "ping"
	EventPong            = "pong"
)

// ReloadPayload accompanies EventLibraryReloaded.
type ReloadPayload struct {
	AssetCount int       `json:"assetCount"`
	LoadedAt   time.Time `json:"loadedAt"`
}

// Client is one connected websocket peer.
type Client struct {
	ID         string
	Conn       *websocket.Conn
	Send       chan []byte
	hub        *Hub
	mu         sync.Mutex
	closedOnce sync.Once
}

// Hub fans events out to every connected client. All clients receive
// all events; there is no per-client subscription state.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	mu         sync.RWMutex
}

// NewHub creates an idle hub. Call Run on its own goroutine to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
	}
}

// Run is the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			observability.Debugf("Events client connected: %s", client.ID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			observability.Debugf("Events client disconnected: %s", client.ID)

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Client buffer full, drop the connection.
					go func(c *Client) {
						h.unregister <- c
					}(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast sends a message to every connected client.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		observability.Errorf("Failed to marshal event message: %v", err)
		return
	}
	h.broadcast <- data
}

// BroadcastReload announces a completed library reload.
func (h *Hub) BroadcastReload(assetCount int, loadedAt time.Time) {
	h.Broadcast(Message{
		Type:    EventLibraryReloaded,
		Payload: ReloadPayload{AssetCount: assetCount, LoadedAt: loadedAt},
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NewClient creates a client bound to this hub.
func (h *Hub) NewClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		ID:   id,
		Conn: conn,
		Send: make(chan []byte, 256),
		hub:  h,
	}
}

// Close unregisters the client and closes its connection.
func (c *Client) Close() {
	c.closedOnce.Do(func() {
		c.hub.Unregister(c)
		c.Conn.Close()
	})
}

// WritePump pumps hub messages out to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			c.mu.Lock()
			err := c.Conn.WriteMessage(websocket.TextMessage, message)
			c.mu.Unlock()

			if err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump drains inbound frames so pong handling and close detection
// work. The plugin never sends anything the bridge acts on besides
// ping.
func (c *Client) ReadPump() {
	defer c.Close()

	c.Conn.SetReadLimit(4 * 1024)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				observability.Debugf("Events read error: %v", err)
			}
			break
		}

		var msg Message
		if json.Unmarshal(data, &msg) == nil && msg.Type == EventPing {
			pong, _ := json.Marshal(Message{Type: EventPong})
			select {
			case c.Send <- pong:
			default:
			}
		}
	}
}
