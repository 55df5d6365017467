package notifier

import (
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/melee45/queueing-system/internal/domain"
)

func newTestHub(t *testing.T, queueSize int, sweep time.Duration) *Hub {
	t.Helper()
	hub := NewHub(queueSize, sweep, zap.NewNop(), nil)
	t.Cleanup(hub.Close)
	return hub
}

func publishTicket(hub *Hub, eventType EventType, prefix, id string, status domain.TicketStatus) {
	hub.Publish(Event{
		ID:         id,
		Type:       eventType,
		Ticket:     domain.Ticket{ID: id, Prefix: prefix, Status: status},
		OccurredAt: time.Now(),
	})
}

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev := <-sub.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
		return Event{}
	}
}

func TestHubTopicIsolation(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t, 16, time.Minute)
	cs := hub.Subscribe("CS")
	defer cs.Close()
	all := hub.Subscribe(TopicAll)
	defer all.Close()

	publishTicket(hub, EventTicketCreated, "ENG", "t-eng", domain.TicketStatusWaiting)
	publishTicket(hub, EventTicketCreated, "CS", "t-cs", domain.TicketStatusWaiting)

	ev := receive(t, cs)
	if ev.Ticket.Prefix != "CS" {
		t.Fatalf("CS subscriber received prefix %q", ev.Ticket.Prefix)
	}
	select {
	case ev := <-cs.Events():
		t.Fatalf("CS subscriber received extra event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}

	first := receive(t, all)
	second := receive(t, all)
	if first.Ticket.Prefix != "ENG" || second.Ticket.Prefix != "CS" {
		t.Fatalf("wildcard subscriber got %q then %q, want ENG then CS", first.Ticket.Prefix, second.Ticket.Prefix)
	}
}

func TestHubAssignsMonotonicSequence(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t, 16, time.Minute)
	sub := hub.Subscribe(TopicAll)
	defer sub.Close()

	for i := 0; i < 3; i++ {
		publishTicket(hub, EventTicketCreated, "CS", fmt.Sprintf("t-%d", i), domain.TicketStatusWaiting)
	}

	var last uint64
	for i := 0; i < 3; i++ {
		ev := receive(t, sub)
		if ev.Seq <= last {
			t.Fatalf("seq %d not greater than previous %d", ev.Seq, last)
		}
		last = ev.Seq
	}
}

func TestHubDropsOldestWhenQueueFull(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t, 2, time.Minute)
	sub := hub.Subscribe("CS")
	defer sub.Close()

	for i := 1; i <= 4; i++ {
		publishTicket(hub, EventTicketCreated, "CS", fmt.Sprintf("t-%d", i), domain.TicketStatusWaiting)
	}

	if sub.Dropped() != 2 {
		t.Fatalf("dropped = %d, want 2", sub.Dropped())
	}

	first := receive(t, sub)
	second := receive(t, sub)
	if first.ID != "t-3" || second.ID != "t-4" {
		t.Fatalf("kept events %s, %s; want the newest t-3, t-4", first.ID, second.ID)
	}
	if second.Seq <= first.Seq {
		t.Fatalf("delivery order violates sequence: %d then %d", first.Seq, second.Seq)
	}
}

func TestHubPerTicketOrderPreserved(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t, 16, time.Minute)
	sub := hub.Subscribe("CS")
	defer sub.Close()

	publishTicket(hub, EventTicketCreated, "CS", "t-1", domain.TicketStatusWaiting)
	publishTicket(hub, EventTicketUpdated, "CS", "t-1", domain.TicketStatusServed)

	first := receive(t, sub)
	second := receive(t, sub)
	if first.Ticket.Status != domain.TicketStatusWaiting || second.Ticket.Status != domain.TicketStatusServed {
		t.Fatalf("per-ticket order violated: %q then %q", first.Ticket.Status, second.Ticket.Status)
	}
}

func TestHubSuppressesStaleSnapshot(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t, 16, time.Minute)
	sub := hub.Subscribe("CS")
	defer sub.Close()

	created := time.Now()
	served := created.Add(time.Second)

	hub.Publish(Event{
		ID:         "ev-update",
		Type:       EventTicketUpdated,
		Ticket:     domain.Ticket{ID: "t-1", Prefix: "CS", Status: domain.TicketStatusServed, UpdatedAt: served},
		OccurredAt: time.Now(),
	})
	// A snapshot read before the update committed must not roll the
	// ticket back to waiting.
	hub.Publish(Event{
		ID:         "ev-stale",
		Type:       EventTicketSnapshot,
		Ticket:     domain.Ticket{ID: "t-1", Prefix: "CS", Status: domain.TicketStatusWaiting, UpdatedAt: created},
		OccurredAt: time.Now(),
	})
	hub.Publish(Event{
		ID:         "ev-fresh",
		Type:       EventTicketSnapshot,
		Ticket:     domain.Ticket{ID: "t-1", Prefix: "CS", Status: domain.TicketStatusServed, UpdatedAt: served},
		OccurredAt: time.Now(),
	})

	first := receive(t, sub)
	second := receive(t, sub)
	if first.ID != "ev-update" || second.ID != "ev-fresh" {
		t.Fatalf("delivered %s then %s, want ev-update then ev-fresh", first.ID, second.ID)
	}
	if second.Ticket.Status != domain.TicketStatusServed {
		t.Fatalf("snapshot status = %q, want served", second.Ticket.Status)
	}

	select {
	case ev := <-sub.Events():
		t.Fatalf("stale snapshot delivered: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDeliversSnapshotForUnseenTicket(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t, 16, time.Minute)
	sub := hub.Subscribe("CS")
	defer sub.Close()

	hub.Publish(Event{
		ID:         "ev-snap",
		Type:       EventTicketSnapshot,
		Ticket:     domain.Ticket{ID: "t-1", Prefix: "CS", Status: domain.TicketStatusWaiting, UpdatedAt: time.Now()},
		OccurredAt: time.Now(),
	})

	ev := receive(t, sub)
	if ev.ID != "ev-snap" {
		t.Fatalf("got %s, want ev-snap", ev.ID)
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t, 16, time.Minute)
	sub := hub.Subscribe("CS")
	sub.Close()
	sub.Close() // idempotent

	select {
	case <-sub.Done():
	default:
		t.Fatalf("Done must be closed after Close")
	}

	publishTicket(hub, EventTicketCreated, "CS", "t-1", domain.TicketStatusWaiting)
	select {
	case ev := <-sub.Events():
		t.Fatalf("closed subscription received event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubReclaimsStuckSubscriber(t *testing.T) {
	t.Parallel()

	hub := newTestHub(t, 1, 20*time.Millisecond)
	sub := hub.Subscribe("CS")

	// Keep the queue full and dropping without ever draining it.
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			case <-ticker.C:
				publishTicket(hub, EventTicketCreated, "CS", fmt.Sprintf("t-%d", i), domain.TicketStatusWaiting)
			}
		}
	}()
	defer close(stop)

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("hub never reclaimed the stuck subscription")
	}
}
