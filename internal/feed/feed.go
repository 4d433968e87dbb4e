// Package feed implements the in-process change feed: services publish an
// event after every committed write and subscribers re-query for a fresh
// snapshot. Events carry bucket keys so subscribers can ignore changes
// outside the range they are watching.
package feed

import (
	"log/slog"
	"sync"
	"time"
)

type Op string

const (
	OpCreated         Op = "created"
	OpUpdated         Op = "updated"
	OpDeleted         Op = "deleted"
	OpSettingsChanged Op = "settings_changed"
	OpCategoryChanged Op = "category_changed"
	OpReindexed       Op = "reindexed"
)

// Event describes a committed change within a scope.
type Event struct {
	ScopeID  string
	Op       Op
	RecordID string
	DayKey   string
	WeekKey  string
	MonthKey string
	At       time.Time
}

// Hub fans events out to per-scope subscribers. Publishing never blocks: a
// subscriber that cannot keep up loses events, which is safe because events
// are only invalidation hints, not data.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[int]chan Event
	nextID int
	buffer int
}

func NewHub() *Hub {
	return &Hub{
		subs:   make(map[string]map[int]chan Event),
		buffer: 16,
	}
}

// Subscribe registers for a scope's events. The returned cancel function
// closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(scopeID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.buffer)
	if h.subs[scopeID] == nil {
		h.subs[scopeID] = make(map[int]chan Event)
	}
	h.subs[scopeID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[scopeID][id]; ok {
				delete(h.subs[scopeID], id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// SubscribeAll registers for every scope's events, used for cross-scope
// concerns like cache invalidation. Scope ids are never empty, so the empty
// key holds the firehose subscribers.
func (h *Hub) SubscribeAll() (<-chan Event, func()) {
	return h.Subscribe("")
}

// Publish delivers the event to every subscriber of its scope and to every
// firehose subscriber.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.deliver(h.subs[ev.ScopeID], ev)
	h.deliver(h.subs[""], ev)
}

func (h *Hub) deliver(subs map[int]chan Event, ev Event) {
	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			slog.Debug("feed subscriber lagging, event dropped",
				"scope_id", ev.ScopeID, "op", string(ev.Op))
		}
	}
}

// Subscribers returns the number of active subscriptions for a scope.
func (h *Hub) Subscribers(scopeID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[scopeID])
}
