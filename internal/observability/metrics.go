package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for the queue core.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	errorCount      map[string]int64
	ticketsIssued   map[string]int64
	statusUpdates   map[string]int64
	eventsPublished map[string]int64
	eventsDropped   int64
	staleSnapshots  int64
	subscriptions   int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:    make(map[string]int64),
		errorCount:      make(map[string]int64),
		ticketsIssued:   make(map[string]int64),
		statusUpdates:   make(map[string]int64),
		eventsPublished: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordTicketIssued counts one issued ticket for a prefix.
func (m *Metrics) RecordTicketIssued(prefix string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticketsIssued[prefix]++
}

// RecordStatusUpdate counts one committed status transition.
func (m *Metrics) RecordStatusUpdate(status string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusUpdates[status]++
}

// RecordEventPublished counts one event accepted by the hub.
func (m *Metrics) RecordEventPublished(eventType string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventsPublished[eventType]++
}

// RecordEventDropped counts one pending event discarded from a full
// subscriber queue.
func (m *Metrics) RecordEventDropped() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventsDropped++
}

// RecordStaleSnapshot counts one snapshot suppressed because a newer event
// for the same ticket was already published.
func (m *Metrics) RecordStaleSnapshot() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staleSnapshots++
}

// SetSubscriptions records the current number of hub subscriptions.
func (m *Metrics) SetSubscriptions(n int64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = n
}

// Snapshot returns a flat copy of all counters for the debug endpoint.
func (m *Metrics) Snapshot() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]int64)
	for k, v := range m.requestCount {
		out["requests|"+k] = v
	}
	for k, v := range m.errorCount {
		out["errors|"+k] = v
	}
	for k, v := range m.ticketsIssued {
		out["tickets_issued|"+k] = v
	}
	for k, v := range m.statusUpdates {
		out["status_updates|"+k] = v
	}
	for k, v := range m.eventsPublished {
		out["events_published|"+k] = v
	}
	out["events_dropped"] = m.eventsDropped
	out["stale_snapshots"] = m.staleSnapshots
	out["subscriptions"] = m.subscriptions
	return out
}
