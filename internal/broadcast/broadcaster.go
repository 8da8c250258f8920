package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"bqm/dashboard-service/internal/hub"
	"bqm/dashboard-service/internal/store"
)

// EventSource is the slice of the store the broadcaster reads.
type EventSource interface {
	ListQueueEvents(ctx context.Context, queueID string, after time.Time, limit int) ([]store.QueueEvent, error)
}

// Broadcaster drains the queue-event outbox and fans each event out to the
// hub channel named for its queue. The offset is process-local; restarting
// replays nothing because subscribers only ever want live events.
type Broadcaster struct {
	store     EventSource
	hub       *hub.Hub
	batchSize int
	last      time.Time
}

func New(st EventSource, h *hub.Hub, batchSize int) *Broadcaster {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Broadcaster{
		store:     st,
		hub:       h,
		batchSize: batchSize,
		last:      time.Now().UTC(),
	}
}

// Run performs one poll pass.
func (b *Broadcaster) Run(ctx context.Context) error {
	events, err := b.store.ListQueueEvents(ctx, "", b.last, b.batchSize)
	if err != nil {
		return err
	}
	for _, event := range events {
		b.last = event.CreatedAt
		channel := channelFor(event)
		if channel == "" {
			continue
		}
		envelope := hub.Envelope{
			Type:      event.Type,
			Channel:   channel,
			Payload:   event.Payload,
			CreatedAt: event.CreatedAt,
		}
		payload, err := json.Marshal(envelope)
		if err != nil {
			log.Printf("broadcast marshal error event=%s: %v", event.EventID, err)
			continue
		}
		b.hub.Broadcast(channel, payload)
	}
	return nil
}

func channelFor(event store.QueueEvent) string {
	switch {
	case event.Type == "queue.update":
		return hub.QueueUpdatesChannel(event.QueueID)
	case strings.HasPrefix(event.Type, "customer."):
		return hub.QueueCustomersChannel(event.QueueID)
	}
	return ""
}

func Start(ctx context.Context, interval time.Duration, b *Broadcaster) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.Run(ctx); err != nil {
				log.Printf("broadcast poll error: %v", err)
			}
		}
	}
}
