package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message kinds routed through the changes queue.
const (
	KindExpenseChanged = "expense_changed"
	KindReindexWeeks   = "reindex_weeks"
)

// Expense operations carried by ExpenseChangedMessage.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Envelope wraps every message with its kind so one queue can carry both.
type Envelope struct {
	Kind      string          `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// ExpenseChangedMessage signals that a record changed. It is intentionally
// thin: consumers fetch the current record from storage by id, so a stale
// message can never overwrite fresher data.
type ExpenseChangedMessage struct {
	ScopeID string `json:"scope_id"`
	ID      string `json:"id"`
	Op      string `json:"op"`
}

// ReindexWeeksMessage asks the worker to recompute a scope's stored week keys
// after the week-start setting changed.
type ReindexWeeksMessage struct {
	ScopeID      string `json:"scope_id"`
	WeekStartDay int    `json:"week_start_day"`
}

func encodeEnvelope(kind string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return json.Marshal(Envelope{
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	})
}

func decodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Kind == "" {
		return Envelope{}, fmt.Errorf("envelope without kind")
	}
	return env, nil
}
