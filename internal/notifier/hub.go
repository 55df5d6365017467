package notifier

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/melee45/queueing-system/internal/observability"
)

const (
	defaultQueueSize     = 16
	defaultSweepInterval = 30 * time.Second

	// stateRetention bounds the per-ticket state kept for snapshot staleness
	// checks. A snapshot is read and published within one worker interval,
	// far inside this window, so pruning cannot readmit a stale one.
	stateRetention = 10 * time.Minute
)

// Subscription is one observer's registration on a topic. Events arrive on
// Events(); Done() closes when the subscription ends, either by Close or by
// the hub reclaiming a stuck consumer. The events channel itself is never
// closed so concurrent publishers cannot panic.
type Subscription struct {
	topic string
	id    uint64
	hub   *Hub

	events  chan Event
	done    chan struct{}
	dropped atomic.Uint64
	once    sync.Once

	// janitor bookkeeping, touched only by the sweep goroutine
	sweepDrops uint64
	fullSweeps int
}

// Topic returns the topic this subscription was registered for.
func (s *Subscription) Topic() string { return s.topic }

// Events returns the delivery channel.
func (s *Subscription) Events() <-chan Event { return s.events }

// Done closes when the subscription has ended.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Dropped reports how many pending events were discarded because the queue
// was full. A non-zero delta is the subscriber's cue to resynchronize.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Close unregisters the subscription. Idempotent.
func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.done)
		s.hub.remove(s.id)
	})
}

// Hub fans committed ticket changes out to topic subscribers. Publish never
// blocks on a slow subscriber: each subscription has a bounded queue and the
// oldest pending event is dropped when it overflows.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64

	// lastChange holds the UpdatedAt of the newest published event per
	// ticket id; snapshots older than it are suppressed.
	lastChange map[string]time.Time

	seq       atomic.Uint64
	queueSize int
	logger    *zap.Logger
	metrics   *observability.Metrics

	stop     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a hub and starts its janitor. queueSize <= 0 and
// sweepInterval <= 0 fall back to defaults.
func NewHub(queueSize int, sweepInterval time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Hub {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}
	h := &Hub{
		subs:       make(map[uint64]*Subscription),
		lastChange: make(map[string]time.Time),
		queueSize:  queueSize,
		logger:     logger,
		metrics:    metrics,
		stop:       make(chan struct{}),
	}
	go h.sweepLoop(sweepInterval)
	return h
}

// Subscribe registers an observer for a topic: a category prefix, or
// TopicAll for every ticket.
func (h *Hub) Subscribe(topic string) *Subscription {
	if topic == "" {
		topic = TopicAll
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		topic:  topic,
		id:     h.nextID,
		hub:    h,
		events: make(chan Event, h.queueSize),
		done:   make(chan struct{}),
	}
	h.subs[sub.id] = sub
	h.metrics.SetSubscriptions(int64(len(h.subs)))
	return sub
}

// Publish assigns the event its sequence number and enqueues it for every
// subscription on the ticket's prefix topic and on TopicAll. It returns
// without waiting for any subscriber. A snapshot carrying an older state
// than an event already published for the same ticket is dropped: the
// snapshot read may race a status update, and delivering it would roll the
// ticket back on subscribers.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.staleSnapshot(event) {
		h.metrics.RecordStaleSnapshot()
		return
	}
	if id := event.Ticket.ID; id != "" && event.Ticket.UpdatedAt.After(h.lastChange[id]) {
		h.lastChange[id] = event.Ticket.UpdatedAt
	}

	event.Seq = h.seq.Add(1)
	topic := event.Ticket.Prefix

	for _, sub := range h.subs {
		if sub.topic != TopicAll && sub.topic != topic {
			continue
		}
		h.offer(sub, event)
	}
	h.metrics.RecordEventPublished(string(event.Type))
}

func (h *Hub) staleSnapshot(event Event) bool {
	if event.Type != EventTicketSnapshot || event.Ticket.ID == "" {
		return false
	}
	last, ok := h.lastChange[event.Ticket.ID]
	return ok && last.After(event.Ticket.UpdatedAt)
}

// offer enqueues without blocking. On a full queue the oldest pending event
// is discarded first; channel FIFO keeps per-ticket ordering intact for
// whatever remains.
func (h *Hub) offer(sub *Subscription, event Event) {
	select {
	case sub.events <- event:
		return
	default:
	}

	select {
	case <-sub.events:
		sub.dropped.Add(1)
		h.metrics.RecordEventDropped()
	default:
	}

	select {
	case sub.events <- event:
	default:
		sub.dropped.Add(1)
		h.metrics.RecordEventDropped()
	}
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
	h.metrics.SetSubscriptions(int64(len(h.subs)))
}

// Close stops the janitor and ends every subscription.
func (h *Hub) Close() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})

	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		sub.Close()
	}
}

// sweepLoop reclaims subscriptions whose consumer has stopped draining: a
// queue that stays full across two consecutive sweeps while still accruing
// drops marks the subscriber as gone.
func (h *Hub) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
			h.sweep()
		}
	}
}

func (h *Hub) sweep() {
	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		drops := sub.dropped.Load()
		if len(sub.events) == cap(sub.events) && drops > sub.sweepDrops {
			sub.fullSweeps++
		} else {
			sub.fullSweeps = 0
		}
		sub.sweepDrops = drops

		if sub.fullSweeps >= 2 {
			h.logger.Warn("reclaiming idle subscription",
				zap.String("topic", sub.topic),
				zap.Uint64("dropped", drops))
			sub.Close()
		}
	}

	cutoff := time.Now().Add(-stateRetention)
	h.mu.Lock()
	for id, at := range h.lastChange {
		if at.Before(cutoff) {
			delete(h.lastChange, id)
		}
	}
	h.mu.Unlock()
}
