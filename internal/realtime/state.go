package realtime

import (
	"context"
	"sync"

	"bqm/dashboard-service/internal/models"
)

// QueueUpdateState holds the latest aggregate snapshot for one queue. Bind
// always tears down the previous subscription before opening the next one so
// a stale stream can never race a new binding.
type QueueUpdateState struct {
	client *Client

	mu      sync.Mutex
	gen     int
	sub     *Subscription
	queueID string
	update  *models.QueueUpdate
	loading bool
	err     error
}

func NewQueueUpdateState(client *Client) *QueueUpdateState {
	return &QueueUpdateState{client: client}
}

func (s *QueueUpdateState) Bind(ctx context.Context, queueID string) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	old := s.sub
	s.sub = nil
	s.queueID = queueID
	s.update = nil
	s.err = nil
	s.loading = queueID != ""
	s.mu.Unlock()

	if old != nil {
		old.Unsubscribe()
	}
	if queueID == "" {
		return
	}

	sub, err := s.client.SubscribeQueueUpdates(ctx, queueID, func(update models.QueueUpdate) {
		s.apply(gen, update)
	})

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		if sub != nil {
			sub.Unsubscribe()
		}
		return
	}
	if err != nil {
		s.err = err
		s.loading = false
		s.mu.Unlock()
		return
	}
	s.sub = sub
	s.mu.Unlock()
}

func (s *QueueUpdateState) apply(gen int, update models.QueueUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	s.update = &update
	s.loading = false
}

func (s *QueueUpdateState) Close() {
	s.Bind(context.Background(), "")
}

func (s *QueueUpdateState) Snapshot() (models.QueueUpdate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.update == nil {
		return models.QueueUpdate{}, false
	}
	return *s.update, true
}

func (s *QueueUpdateState) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *QueueUpdateState) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// CustomerEvent is the delta exposed alongside the reduced list.
type CustomerEvent struct {
	Type     string
	Customer models.QueueCustomer
}

// CustomerListState reduces customer events into an ordered list keyed by
// customer id.
type CustomerListState struct {
	client *Client

	mu        sync.Mutex
	gen       int
	sub       *Subscription
	queueID   string
	customers []models.QueueCustomer
	lastEvent *CustomerEvent
	loading   bool
	err       error
}

func NewCustomerListState(client *Client) *CustomerListState {
	return &CustomerListState{client: client}
}

func (s *CustomerListState) Bind(ctx context.Context, queueID string) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	old := s.sub
	s.sub = nil
	s.queueID = queueID
	s.customers = nil
	s.lastEvent = nil
	s.err = nil
	s.loading = queueID != ""
	s.mu.Unlock()

	if old != nil {
		old.Unsubscribe()
	}
	if queueID == "" {
		return
	}

	sub, err := s.client.SubscribeQueueCustomers(ctx, queueID, CustomerHandlers{
		OnAdded: func(customer models.QueueCustomer) {
			s.reduce(gen, "customer.added", customer)
		},
		OnRemoved: func(customer models.QueueCustomer) {
			s.reduce(gen, "customer.removed", customer)
		},
		OnStatusChanged: func(customer models.QueueCustomer) {
			s.reduce(gen, "customer.status_changed", customer)
		},
	})

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		if sub != nil {
			sub.Unsubscribe()
		}
		return
	}
	if err != nil {
		s.err = err
		s.loading = false
		s.mu.Unlock()
		return
	}
	s.sub = sub
	s.mu.Unlock()
}

func (s *CustomerListState) reduce(gen int, eventType string, customer models.QueueCustomer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	s.loading = false
	switch eventType {
	case "customer.added":
		// Same id replaces in place, keeping queue position; new ids go to
		// the back of the line.
		if i := s.indexOf(customer.ID); i >= 0 {
			s.customers[i] = customer
		} else {
			s.customers = append(s.customers, customer)
		}
	case "customer.removed":
		if i := s.indexOf(customer.ID); i >= 0 {
			s.customers = append(s.customers[:i], s.customers[i+1:]...)
		}
	case "customer.status_changed":
		// Replace only; a status change for an unknown customer never
		// appends.
		if i := s.indexOf(customer.ID); i >= 0 {
			s.customers[i] = customer
		}
	}
	s.lastEvent = &CustomerEvent{Type: eventType, Customer: customer}
}

func (s *CustomerListState) indexOf(id string) int {
	for i, customer := range s.customers {
		if customer.ID == id {
			return i
		}
	}
	return -1
}

func (s *CustomerListState) Close() {
	s.Bind(context.Background(), "")
}

func (s *CustomerListState) Customers() []models.QueueCustomer {
	s.mu.Lock()
	defer s.mu.Unlock()
	customers := make([]models.QueueCustomer, len(s.customers))
	copy(customers, s.customers)
	return customers
}

func (s *CustomerListState) LastEvent() (CustomerEvent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastEvent == nil {
		return CustomerEvent{}, false
	}
	return *s.lastEvent, true
}

func (s *CustomerListState) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *CustomerListState) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
