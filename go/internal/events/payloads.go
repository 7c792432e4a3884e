package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types published by the runner
const (
	TypeIdentityStarted = "identity.started"
	TypeIdentityStopped = "identity.stopped"
	TypeRoundCompleted  = "round.completed"
	TypeBackoff         = "identity.backoff"
)

// Event is the envelope every publisher receives
type Event struct {
	ID        uuid.UUID       `json:"event_id"`
	RunID     string          `json:"run_id"`
	Type      string          `json:"event_type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// New wraps payload in an envelope with a fresh event id
func New(runID, eventType string, at time.Time, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:        uuid.New(),
		RunID:     runID,
		Type:      eventType,
		Timestamp: at.UTC(),
		Payload:   data,
	}, nil
}

// Decode unmarshals the payload into v
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// IdentityStartedPayload is published once a session has been obtained
type IdentityStartedPayload struct {
	Identity  int       `json:"identity"`
	StartedAt time.Time `json:"started_at"`
}

// RoundCompletedPayload is published after every round, whatever its state
type RoundCompletedPayload struct {
	Identity  int     `json:"identity"`
	UserID    string  `json:"user_id,omitempty"`
	RoundID   string  `json:"round_id,omitempty"`
	State     string  `json:"state"`
	Outcome   string  `json:"outcome"`
	Submitted string  `json:"submitted,omitempty"`
	Status    string  `json:"status"`
	GameTime  int     `json:"game_time"`
	Score     float64 `json:"score"`
	Balance   float64 `json:"balance"`
}

// BackoffPayload is published before waiting out a recoverable failure
type BackoffPayload struct {
	Identity int    `json:"identity"`
	Wait     string `json:"wait"`
	Reason   string `json:"reason"`
}

// IdentityStoppedPayload summarizes an identity when the runner moves on
type IdentityStoppedPayload struct {
	Identity   int     `json:"identity"`
	UserID     string  `json:"user_id,omitempty"`
	Rounds     int     `json:"rounds"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Rejected   int     `json:"rejected"`
	TotalScore float64 `json:"total_score"`
	Reason     string  `json:"reason"`
	Error      string  `json:"error,omitempty"`
}
