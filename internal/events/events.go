// Package events publishes domain events after the originating transaction has
// committed. Publishing is best effort: callers log failures and move on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	TypeDispatchCreated   = "dispatch.created"
	TypeDispatchUpdated   = "dispatch.updated"
	TypeDispatchReceived  = "dispatch.received"
	TypeSampleTransferred = "sample.transferred"
)

// Event is the envelope written to every backend.
type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Subject    string          `json:"subject"` // e.g. "dispatch/12"; used as the partition key
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// New wraps data in an envelope with a fresh id.
func New(typ, subject string, data any) (Event, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s payload: %w", typ, err)
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		Subject:    subject,
		OccurredAt: time.Now().UTC(),
		Data:       body,
	}, nil
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// MemoryPublisher keeps events in memory, for tests and local runs.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
	Err    error // returned from Publish when set
}

func (m *MemoryPublisher) Publish(_ context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *MemoryPublisher) Close() error { return nil }

// Events returns a copy of everything published so far.
func (m *MemoryPublisher) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}
