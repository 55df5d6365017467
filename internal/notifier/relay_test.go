package notifier

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/melee45/queueing-system/internal/domain"
)

func TestRelayForwardsLocalEvents(t *testing.T) {
	hub := NewHub(16, time.Minute, zap.NewNop(), nil)
	defer hub.Close()

	client, mock := redismock.NewClientMock()
	relay := NewRedisRelay(client, hub, "queue.events", zap.NewNop())

	mock.Regexp().ExpectPublish("queue.events", `.*ticket_created.*`).SetVal(1)

	sub := hub.Subscribe(TopicAll)
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	relay.wg.Add(1)
	go relay.forwardLocal(ctx, sub)

	hub.Publish(Event{
		ID:         "ev-1",
		Type:       EventTicketCreated,
		Ticket:     domain.Ticket{ID: "t-1", Prefix: "CS", Status: domain.TicketStatusWaiting},
		OccurredAt: time.Now(),
	})

	require.Eventually(t, func() bool {
		return mock.ExpectationsWereMet() == nil
	}, time.Second, 10*time.Millisecond)

	cancel()
	relay.wg.Wait()
}

func TestRelayInjectsRemoteEvents(t *testing.T) {
	hub := NewHub(16, time.Minute, zap.NewNop(), nil)
	defer hub.Close()

	client, _ := redismock.NewClientMock()
	relay := NewRedisRelay(client, hub, "queue.events", zap.NewNop())

	sub := hub.Subscribe("CS")
	defer sub.Close()

	payload, err := json.Marshal(relayEnvelope{
		NodeID: "remote-node",
		Event: Event{
			ID:     "ev-remote",
			Type:   EventTicketUpdated,
			Ticket: domain.Ticket{ID: "t-9", Prefix: "CS", Status: domain.TicketStatusServed},
		},
	})
	require.NoError(t, err)

	relay.handlePayload(string(payload))

	select {
	case ev := <-sub.Events():
		assert.Equal(t, "ev-remote", ev.ID)
		assert.Equal(t, "remote-node", ev.Origin)
		assert.Equal(t, domain.TicketStatusServed, ev.Ticket.Status)
	case <-time.After(time.Second):
		t.Fatalf("remote event never reached local subscriber")
	}
}

func TestRelaySkipsOwnEcho(t *testing.T) {
	hub := NewHub(16, time.Minute, zap.NewNop(), nil)
	defer hub.Close()

	client, _ := redismock.NewClientMock()
	relay := NewRedisRelay(client, hub, "queue.events", zap.NewNop())

	sub := hub.Subscribe(TopicAll)
	defer sub.Close()

	payload, err := json.Marshal(relayEnvelope{
		NodeID: relay.nodeID,
		Event:  Event{ID: "ev-echo", Type: EventTicketCreated, Ticket: domain.Ticket{Prefix: "CS"}},
	})
	require.NoError(t, err)

	relay.handlePayload(string(payload))

	select {
	case ev := <-sub.Events():
		t.Fatalf("own echo must be skipped, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRelayIgnoresMalformedPayload(t *testing.T) {
	hub := NewHub(16, time.Minute, zap.NewNop(), nil)
	defer hub.Close()

	client, _ := redismock.NewClientMock()
	relay := NewRedisRelay(client, hub, "queue.events", zap.NewNop())

	assert.NotPanics(t, func() {
		relay.handlePayload("{not json")
	})
}
