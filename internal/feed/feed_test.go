package feed

import (
	"testing"
	"time"
)

func TestHubPublishSubscribe(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("u1")
	defer cancel()

	h.Publish(Event{ScopeID: "u1", Op: OpCreated, RecordID: "r1", DayKey: "2026-01-15"})

	select {
	case ev := <-ch:
		if ev.Op != OpCreated || ev.RecordID != "r1" {
			t.Errorf("event = %+v", ev)
		}
		if ev.At.IsZero() {
			t.Error("At should be stamped on publish")
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestHubScopeIsolation(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("u1")
	defer cancel()

	h.Publish(Event{ScopeID: "u2", Op: OpCreated})

	select {
	case ev := <-ch:
		t.Fatalf("event leaked across scopes: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubCancel(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe("u1")
	if h.Subscribers("u1") != 1 {
		t.Fatalf("subscribers = %d", h.Subscribers("u1"))
	}
	cancel()
	cancel() // idempotent
	if h.Subscribers("u1") != 0 {
		t.Errorf("subscribers after cancel = %d", h.Subscribers("u1"))
	}
	if _, open := <-ch; open {
		t.Error("channel should be closed after cancel")
	}
	// Publishing after cancel must not panic.
	h.Publish(Event{ScopeID: "u1", Op: OpDeleted})
}

func TestHubDropsWhenFull(t *testing.T) {
	h := NewHub()
	h.buffer = 1
	ch, cancel := h.Subscribe("u1")
	defer cancel()

	h.Publish(Event{ScopeID: "u1", Op: OpCreated, RecordID: "a"})
	h.Publish(Event{ScopeID: "u1", Op: OpCreated, RecordID: "b"}) // dropped, must not block

	ev := <-ch
	if ev.RecordID != "a" {
		t.Errorf("first event = %+v", ev)
	}
	select {
	case ev := <-ch:
		t.Errorf("unexpected second event: %+v", ev)
	default:
	}
}

func TestHubSubscribeAllSeesEveryScope(t *testing.T) {
	h := NewHub()
	all, cancel := h.SubscribeAll()
	defer cancel()

	h.Publish(Event{ScopeID: "u1", Op: OpCreated, RecordID: "a"})
	h.Publish(Event{ScopeID: "u2", Op: OpDeleted, RecordID: "b"})

	first := <-all
	second := <-all
	if first.ScopeID != "u1" || second.ScopeID != "u2" {
		t.Errorf("events = %+v, %+v", first, second)
	}
}
