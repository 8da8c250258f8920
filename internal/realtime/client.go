package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"bqm/dashboard-service/internal/hub"
	"bqm/dashboard-service/internal/models"
)

// ErrMissingCredential is returned when a subscription is requested before
// any credential is available. There is no retry and no polling fallback.
var ErrMissingCredential = errors.New("realtime: missing credential")

type Config struct {
	Endpoint string
	Token    string
}

// Conn is one transport connection to the channel service.
type Conn interface {
	ReadEvent() (hub.Envelope, error)
	WriteFrame(frame hub.Frame) error
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, endpoint, token string) (Conn, error)
}

// Client multiplexes every subscription over a single lazily-dialed
// connection. Construct it explicitly and pass it down; tests inject a fake
// Dialer.
type Client struct {
	cfg    Config
	dialer Dialer

	mu   sync.Mutex
	conn Conn
	subs map[string][]*Subscription
}

func NewClient(cfg Config, dialer Dialer) *Client {
	return &Client{
		cfg:    cfg,
		dialer: dialer,
		subs:   make(map[string][]*Subscription),
	}
}

// Subscription routes events of registered types to callbacks until
// Unsubscribe is called.
type Subscription struct {
	client  *Client
	channel string

	mu       sync.Mutex
	closed   bool
	handlers map[string]func(json.RawMessage)
}

// SubscribeQueueUpdates delivers every aggregate snapshot for the queue to
// onUpdate, wholesale, in transport order.
func (c *Client) SubscribeQueueUpdates(ctx context.Context, queueID string, onUpdate func(models.QueueUpdate)) (*Subscription, error) {
	handlers := map[string]func(json.RawMessage){
		"queue.update": func(payload json.RawMessage) {
			var update models.QueueUpdate
			if err := json.Unmarshal(payload, &update); err != nil {
				log.Printf("realtime decode queue.update: %v", err)
				return
			}
			onUpdate(update)
		},
	}
	return c.subscribe(ctx, hub.QueueUpdatesChannel(queueID), handlers)
}

type CustomerHandlers struct {
	OnAdded         func(models.QueueCustomer)
	OnRemoved       func(models.QueueCustomer)
	OnStatusChanged func(models.QueueCustomer)
}

type customerPayload struct {
	Customer models.QueueCustomer `json:"customer"`
}

// SubscribeQueueCustomers opens one channel and demultiplexes the three
// customer event kinds to their callbacks.
func (c *Client) SubscribeQueueCustomers(ctx context.Context, queueID string, h CustomerHandlers) (*Subscription, error) {
	handlers := make(map[string]func(json.RawMessage))
	register := func(eventType string, callback func(models.QueueCustomer)) {
		if callback == nil {
			return
		}
		handlers[eventType] = func(payload json.RawMessage) {
			var data customerPayload
			if err := json.Unmarshal(payload, &data); err != nil {
				log.Printf("realtime decode %s: %v", eventType, err)
				return
			}
			callback(data.Customer)
		}
	}
	register("customer.added", h.OnAdded)
	register("customer.removed", h.OnRemoved)
	register("customer.status_changed", h.OnStatusChanged)
	return c.subscribe(ctx, hub.QueueCustomersChannel(queueID), handlers)
}

func (c *Client) subscribe(ctx context.Context, channel string, handlers map[string]func(json.RawMessage)) (*Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		if c.cfg.Token == "" {
			return nil, ErrMissingCredential
		}
		conn, err := c.dialer.Dial(ctx, c.cfg.Endpoint, c.cfg.Token)
		if err != nil {
			return nil, err
		}
		c.conn = conn
		go c.readLoop(conn)
	}

	sub := &Subscription{client: c, channel: channel, handlers: handlers}
	first := len(c.subs[channel]) == 0
	c.subs[channel] = append(c.subs[channel], sub)
	if first {
		if err := c.conn.WriteFrame(hub.Frame{Action: "subscribe", Channel: channel}); err != nil {
			c.removeLocked(sub)
			return nil, err
		}
	}
	return sub, nil
}

func (c *Client) readLoop(conn Conn) {
	for {
		envelope, err := conn.ReadEvent()
		if err != nil {
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			log.Printf("realtime connection closed: %v", err)
			return
		}
		c.dispatch(envelope)
	}
}

func (c *Client) dispatch(envelope hub.Envelope) {
	c.mu.Lock()
	subs := append([]*Subscription(nil), c.subs[envelope.Channel]...)
	c.mu.Unlock()
	for _, sub := range subs {
		sub.deliver(envelope)
	}
}

// deliver holds the subscription lock across the callback so Unsubscribe
// linearizes against in-flight deliveries.
func (s *Subscription) deliver(envelope hub.Envelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	handler, ok := s.handlers[envelope.Type]
	if !ok {
		return
	}
	handler(envelope.Payload)
}

// Unsubscribe tears the subscription down. It is idempotent, and once it
// returns no callback will fire again.
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.client.mu.Lock()
	defer s.client.mu.Unlock()
	s.client.removeLocked(s)
}

func (c *Client) removeLocked(sub *Subscription) {
	subs := c.subs[sub.channel]
	for i, candidate := range subs {
		if candidate != sub {
			continue
		}
		c.subs[sub.channel] = append(subs[:i], subs[i+1:]...)
		break
	}
	if len(c.subs[sub.channel]) == 0 {
		delete(c.subs, sub.channel)
		if c.conn != nil {
			if err := c.conn.WriteFrame(hub.Frame{Action: "unsubscribe", Channel: sub.channel}); err != nil {
				log.Printf("realtime unsubscribe frame: %v", err)
			}
		}
	}
}

// Close drops the shared connection. Existing subscriptions stop receiving
// events; reconnect policy belongs to the hosted broker client, not here.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}
