// Package events defines the domain events the session emits and the
// envelope they travel in to websocket clients and the event stream.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	TypeRunStarted         = "run.started"
	TypeRunOver            = "run.over"
	TypeRunRecorded        = "run.recorded"
	TypeRunDiscarded       = "run.discarded"
	TypeLeaderboardCleared = "leaderboard.cleared"
	TypeSnapshotChanged    = "session.snapshot"
)

// Envelope wraps every event with its identity and routing data
type Envelope struct {
	ID        uuid.UUID       `json:"event_id"`
	Type      string          `json:"event_type"`
	RunID     string          `json:"run_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// New marshals payload into a fresh envelope
func New(eventType, runID string, at time.Time, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		ID:        uuid.New(),
		Type:      eventType,
		RunID:     runID,
		Timestamp: at.UTC(),
		Payload:   data,
	}, nil
}

// Decode unmarshals the payload into v
func (e Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// Emitter receives events from the session loop. Emit must not block.
type Emitter interface {
	Emit(env Envelope)
}

// Emitters fans an event out to several emitters in order
type Emitters []Emitter

func (es Emitters) Emit(env Envelope) {
	for _, e := range es {
		if e != nil {
			e.Emit(env)
		}
	}
}

// EmitterFunc adapts a function to Emitter
type EmitterFunc func(Envelope)

func (f EmitterFunc) Emit(env Envelope) { f(env) }
