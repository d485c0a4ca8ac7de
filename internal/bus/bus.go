// Package bus publishes benchmark lifecycle events so external consumers can
// follow long evaluation runs.
package bus

import (
	"context"
	"fmt"
	"time"
)

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for event bus implementations.
type Bus interface {
	// Publish publishes an event to a topic.
	Publish(ctx context.Context, topic string, event Event) error

	// Subscribe subscribes to events on a topic.
	Subscribe(ctx context.Context, topic string, handler Handler) error

	// Close closes the bus and releases resources.
	Close() error
}

// Event represents a bus event.
type Event struct {
	// ID is the unique event identifier.
	ID string `json:"id"`

	// Type is the event type, same as the topic it is published on.
	Type string `json:"type"`

	// Source is the component that generated the event.
	Source string `json:"source"`

	// Timestamp is when the event was created.
	Timestamp int64 `json:"timestamp"`

	// Payload contains the event data.
	Payload any `json:"payload"`
}

// NewEvent builds an event with a generated ID and the current timestamp.
func NewEvent(eventType, source string, payload any) Event {
	now := time.Now()
	return Event{
		ID:        fmt.Sprintf("%s-%d", eventType, now.UnixNano()),
		Type:      eventType,
		Source:    source,
		Timestamp: now.Unix(),
		Payload:   payload,
	}
}

// Benchmark lifecycle topics.
const (
	TopicRunStarted      = "run.started"
	TopicRoundStarted    = "round.started"
	TopicMethodCompleted = "method.completed"
	TopicRoundCompleted  = "round.completed"
	TopicRunCompleted    = "run.completed"
)

// RunStarted is the payload for TopicRunStarted.
type RunStarted struct {
	RunID   string   `json:"run_id"`
	Methods []string `json:"methods"`
	Rounds  int      `json:"rounds"`
	Queries int      `json:"queries"`
}

// RoundStarted is the payload for TopicRoundStarted.
type RoundStarted struct {
	RunID string `json:"run_id"`
	Round int    `json:"round"`
}

// MethodCompleted is the payload for TopicMethodCompleted.
type MethodCompleted struct {
	RunID   string             `json:"run_id"`
	Round   int                `json:"round"`
	Method  string             `json:"method"`
	Metrics map[string]float64 `json:"metrics"`
}

// RoundCompleted is the payload for TopicRoundCompleted.
type RoundCompleted struct {
	RunID string `json:"run_id"`
	Round int    `json:"round"`
}

// RunCompleted is the payload for TopicRunCompleted.
type RunCompleted struct {
	RunID    string  `json:"run_id"`
	Rounds   int     `json:"rounds"`
	Duration float64 `json:"duration_seconds"`
}
