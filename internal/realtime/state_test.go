package realtime

import (
	"context"
	"testing"
	"time"

	"bqm/dashboard-service/internal/hub"
	"bqm/dashboard-service/internal/models"
)

func customerIDs(customers []models.QueueCustomer) []string {
	ids := make([]string, len(customers))
	for i, customer := range customers {
		ids[i] = customer.ID
	}
	return ids
}

func TestCustomerReduceAddedReplacesInPlace(t *testing.T) {
	s := NewCustomerListState(nil)
	s.reduce(0, "customer.added", models.QueueCustomer{ID: "A", Status: models.CustomerStatusWaiting})
	s.reduce(0, "customer.added", models.QueueCustomer{ID: "B", Status: models.CustomerStatusWaiting})

	// Re-adding A with a different status keeps its position.
	s.reduce(0, "customer.added", models.QueueCustomer{ID: "A", Status: models.CustomerStatusCurrent})
	customers := s.Customers()
	if ids := customerIDs(customers); len(ids) != 2 || ids[0] != "A" || ids[1] != "B" {
		t.Fatalf("expected [A B], got %v", ids)
	}
	if customers[0].Status != models.CustomerStatusCurrent {
		t.Fatalf("expected A replaced, got %+v", customers[0])
	}

	// A new id appends to the end.
	s.reduce(0, "customer.added", models.QueueCustomer{ID: "C"})
	if ids := customerIDs(s.Customers()); len(ids) != 3 || ids[2] != "C" {
		t.Fatalf("expected [A B C], got %v", ids)
	}
}

func TestCustomerReduceRemoved(t *testing.T) {
	s := NewCustomerListState(nil)
	s.reduce(0, "customer.added", models.QueueCustomer{ID: "A"})
	s.reduce(0, "customer.added", models.QueueCustomer{ID: "B"})

	s.reduce(0, "customer.removed", models.QueueCustomer{ID: "A"})
	if ids := customerIDs(s.Customers()); len(ids) != 1 || ids[0] != "B" {
		t.Fatalf("expected [B], got %v", ids)
	}

	// Removing an unknown id is a no-op.
	s.reduce(0, "customer.removed", models.QueueCustomer{ID: "ghost"})
	if ids := customerIDs(s.Customers()); len(ids) != 1 {
		t.Fatalf("expected [B] unchanged, got %v", ids)
	}
}

func TestCustomerReduceStatusChangedNeverAppends(t *testing.T) {
	s := NewCustomerListState(nil)
	s.reduce(0, "customer.added", models.QueueCustomer{ID: "A", Status: models.CustomerStatusWaiting})

	s.reduce(0, "customer.status_changed", models.QueueCustomer{ID: "A", Status: models.CustomerStatusServed})
	customers := s.Customers()
	if len(customers) != 1 || customers[0].Status != models.CustomerStatusServed {
		t.Fatalf("expected in-place replacement, got %+v", customers)
	}

	s.reduce(0, "customer.status_changed", models.QueueCustomer{ID: "ghost", Status: models.CustomerStatusServed})
	if len(s.Customers()) != 1 {
		t.Fatalf("status change for unknown id must not append")
	}
}

func TestCustomerReduceTracksLastEvent(t *testing.T) {
	s := NewCustomerListState(nil)
	if _, ok := s.LastEvent(); ok {
		t.Fatal("fresh state must have no last event")
	}
	s.reduce(0, "customer.added", models.QueueCustomer{ID: "A"})
	s.reduce(0, "customer.removed", models.QueueCustomer{ID: "ghost"})

	event, ok := s.LastEvent()
	if !ok || event.Type != "customer.removed" || event.Customer.ID != "ghost" {
		t.Fatalf("unexpected last event: %+v", event)
	}
}

func TestQueueUpdateStateOverwritesSnapshot(t *testing.T) {
	client, conn, _ := newTestClient()
	defer client.Close()

	state := NewQueueUpdateState(client)
	state.Bind(context.Background(), "q-1")
	defer state.Close()

	if !state.Loading() {
		t.Fatal("expected loading before first snapshot")
	}

	conn.emitUpdate("q-1", models.QueueUpdate{CurrentNumber: 1, TotalWaiting: 4})
	conn.emitUpdate("q-1", models.QueueUpdate{CurrentNumber: 2, TotalWaiting: 3})

	deadline := time.Now().Add(time.Second)
	for {
		if snapshot, ok := state.Snapshot(); ok && snapshot.CurrentNumber == 2 {
			if state.Loading() {
				t.Fatal("loading must clear after first snapshot")
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for snapshot")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestQueueUpdateStateBindErrorSurfaces(t *testing.T) {
	conn := newFakeConn()
	dialer := &fakeDialer{conn: conn}
	client := NewClient(Config{Endpoint: "ws://example"}, dialer)

	state := NewQueueUpdateState(client)
	state.Bind(context.Background(), "q-1")

	if err := state.Err(); err != ErrMissingCredential {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if state.Loading() {
		t.Fatal("loading must clear on subscription failure")
	}
}

func TestQueueUpdateStateRebindUnsubscribesFirst(t *testing.T) {
	client, conn, _ := newTestClient()
	defer client.Close()

	state := NewQueueUpdateState(client)
	state.Bind(context.Background(), "q-1")
	state.Bind(context.Background(), "q-2")
	defer state.Close()

	frames := conn.sentFrames()
	var sawUnsubscribe bool
	for _, frame := range frames {
		if frame.Action == "unsubscribe" && frame.Channel == hub.QueueUpdatesChannel("q-1") {
			sawUnsubscribe = true
		}
	}
	if !sawUnsubscribe {
		t.Fatalf("rebind must tear down the old channel, frames: %+v", frames)
	}

	// Snapshots for the old queue must not land in the new binding.
	conn.emitUpdate("q-1", models.QueueUpdate{CurrentNumber: 42})
	conn.emitUpdate("q-2", models.QueueUpdate{CurrentNumber: 7})

	deadline := time.Now().Add(time.Second)
	for {
		if snapshot, ok := state.Snapshot(); ok {
			if snapshot.CurrentNumber != 7 {
				t.Fatalf("stale snapshot applied: %+v", snapshot)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for snapshot")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCustomerListStateEndToEnd(t *testing.T) {
	client, conn, _ := newTestClient()
	defer client.Close()

	state := NewCustomerListState(client)
	state.Bind(context.Background(), "q-1")
	defer state.Close()

	conn.emitCustomer("q-1", "customer.added", models.QueueCustomer{ID: "A", Status: models.CustomerStatusWaiting})
	conn.emitCustomer("q-1", "customer.added", models.QueueCustomer{ID: "B", Status: models.CustomerStatusWaiting})
	conn.emitCustomer("q-1", "customer.status_changed", models.QueueCustomer{ID: "A", Status: models.CustomerStatusCurrent})

	deadline := time.Now().Add(time.Second)
	for {
		customers := state.Customers()
		if len(customers) == 2 && customers[0].Status == models.CustomerStatusCurrent {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out, customers: %+v", customers)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
