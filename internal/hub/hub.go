package hub

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Channel names are derived from queue ids: queue-updates:<id> carries
// aggregate snapshots, queue-customers:<id> carries customer events.
func QueueUpdatesChannel(queueID string) string {
	return "queue-updates:" + queueID
}

func QueueCustomersChannel(queueID string) string {
	return "queue-customers:" + queueID
}

type Client struct {
	ID       string
	Send     chan []byte
	channels map[string]struct{}
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

type Frame struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
}

// Envelope is the wire shape broadcast to subscribers.
type Envelope struct {
	Type      string          `json:"type"`
	Channel   string          `json:"channel"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

func New() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func NewClient(id string, buffer int) *Client {
	return &Client{
		ID:       id,
		Send:     make(chan []byte, buffer),
		channels: make(map[string]struct{}),
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.Send)
}

func (h *Hub) Subscribe(client *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client.channels[channel] = struct{}{}
}

func (h *Hub) Unsubscribe(client *Client, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(client.channels, channel)
}

// Broadcast delivers payload to every client subscribed to channel. Slow
// clients with a full send buffer drop the message instead of blocking the
// broadcaster.
func (h *Hub) Broadcast(channel string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if _, ok := client.channels[channel]; !ok {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			log.Printf("drop message for client %s channel=%s", client.ID, channel)
		}
	}
}

func ParseFrame(data []byte) (Frame, bool) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return Frame{}, false
	}
	if frame.Action != "subscribe" && frame.Action != "unsubscribe" {
		return Frame{}, false
	}
	if frame.Channel == "" {
		return Frame{}, false
	}
	return frame, true
}
