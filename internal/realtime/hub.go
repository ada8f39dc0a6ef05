package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"neosure-anc-server/internal/logger"
)

const sendBuffer = 256

// ClientMessage is an inbound subscription change from a client.
type ClientMessage struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}

// Authorizer reports whether a client may follow topic.
type Authorizer func(topic string) bool

// Client is one websocket connection and its topic subscriptions.
// A nil Authorize allows every topic.
type Client struct {
	ID        string
	Topics    []string
	Send      chan []byte
	Authorize Authorizer
	conn      Conn
}

func (c *Client) allowed(topic string) bool {
	return c.Authorize == nil || c.Authorize(topic)
}

// NewClient wraps conn with an initial topic list.
func NewClient(conn Conn, topics []string) *Client {
	return &Client{
		ID:     uuid.NewString(),
		Topics: append([]string(nil), topics...),
		Send:   make(chan []byte, sendBuffer),
		conn:   conn,
	}
}

// Hub tracks connected clients by topic. It is safe for concurrent use.
type Hub struct {
	log     *logger.Logger
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // topic -> subscribers
	all     map[*Client]struct{}
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:     log.With("service", "RealtimeHub"),
		clients: make(map[string]map[*Client]struct{}),
		all:     make(map[*Client]struct{}),
	}
}

// Register adds a client and the initial topics it is allowed to follow.
func (h *Hub) Register(client *Client) {
	topics := h.permitted(client, client.Topics)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}
	client.Topics = nil
	for _, topic := range topics {
		h.subscribeLocked(client, topic)
	}
}

// Unregister removes a client everywhere and closes its Send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}
	for _, topic := range client.Topics {
		h.removeLocked(client, topic)
	}
	delete(h.all, client)
	close(client.Send)
}

// Subscribe adds topics to a registered client. Repeated topics are ignored
// and topics the client is not authorized for are dropped.
func (h *Hub) Subscribe(client *Client, topics []string) {
	topics = h.permitted(client, topics)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range topics {
		h.subscribeLocked(client, topic)
	}
}

// permitted runs the client's authorizer outside the hub lock.
func (h *Hub) permitted(client *Client, topics []string) []string {
	out := make([]string, 0, len(topics))
	for _, topic := range topics {
		if !client.allowed(topic) {
			h.log.Warn("subscription denied", "client_id", client.ID, "topic", topic)
			continue
		}
		out = append(out, topic)
	}
	return out
}

func (h *Hub) subscribeLocked(client *Client, topic string) {
	if _, ok := h.clients[topic][client]; ok {
		return
	}
	h.addLocked(client, topic)
	client.Topics = append(client.Topics, topic)
}

// Unsubscribe removes topics from a registered client.
func (h *Hub) Unsubscribe(client *Client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	drop := make(map[string]struct{}, len(topics))
	for _, topic := range topics {
		drop[topic] = struct{}{}
		h.removeLocked(client, topic)
	}
	kept := client.Topics[:0]
	for _, t := range client.Topics {
		if _, ok := drop[t]; !ok {
			kept = append(kept, t)
		}
	}
	client.Topics = kept
}

func (h *Hub) addLocked(client *Client, topic string) {
	if h.clients[topic] == nil {
		h.clients[topic] = make(map[*Client]struct{})
	}
	h.clients[topic][client] = struct{}{}
}

func (h *Hub) removeLocked(client *Client, topic string) {
	if subscribers, ok := h.clients[topic]; ok {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.clients, topic)
		}
	}
}

// ProcessMessage applies a subscribe or unsubscribe request.
func (h *Hub) ProcessMessage(client *Client, msg ClientMessage) {
	switch msg.Action {
	case "subscribe":
		h.Subscribe(client, msg.Topics)
	case "unsubscribe":
		h.Unsubscribe(client, msg.Topics)
	default:
		h.log.Debug("ignoring client message", "client_id", client.ID, "action", msg.Action)
	}
}

// Broadcast sends event to every subscriber of event.Topic. Slow clients whose
// buffer is full miss the event.
func (h *Hub) Broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal event", "type", event.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[event.Topic] {
		select {
		case client.Send <- data:
		default:
			h.log.Warn("dropping event for slow client", "client_id", client.ID, "topic", event.Topic)
		}
	}
}

// Publish lets the hub act as an in-process Publisher.
func (h *Hub) Publish(_ context.Context, event Event) error {
	h.Broadcast(event)
	return nil
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}
