package events

import (
	"context"
	"sync"
	"time"
)

// Snapshot is a point-in-time view of the run
type Snapshot struct {
	RunID          string    `json:"run_id"`
	StartedAt      time.Time `json:"started_at"`
	ActiveIdentity int       `json:"active_identity"`
	IdentitiesDone int       `json:"identities_done"`
	Rounds         int       `json:"rounds"`
	Wins           int       `json:"wins"`
	Losses         int       `json:"losses"`
	Rejected       int       `json:"rejected"`
	Failures       int       `json:"failures"`
	Backoffs       int       `json:"backoffs"`
	TotalScore     float64   `json:"total_score"`
	LastBalance    float64   `json:"last_balance"`
	LastEventType  string    `json:"last_event_type,omitempty"`
	LastEventAt    time.Time `json:"last_event_at,omitempty"`
}

// Stats folds published events into running counters. It is itself a
// Publisher, so it can sit in a MultiPublisher next to the others.
type Stats struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewStats(runID string, startedAt time.Time) *Stats {
	return &Stats{snap: Snapshot{RunID: runID, StartedAt: startedAt.UTC()}}
}

func (s *Stats) Publish(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.RunID != "" {
		s.snap.RunID = event.RunID
	}
	s.snap.LastEventType = event.Type
	s.snap.LastEventAt = event.Timestamp

	switch event.Type {
	case TypeIdentityStarted:
		var p IdentityStartedPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		s.snap.ActiveIdentity = p.Identity

	case TypeIdentityStopped:
		s.snap.IdentitiesDone++
		s.snap.ActiveIdentity = 0

	case TypeBackoff:
		s.snap.Backoffs++

	case TypeRoundCompleted:
		var p RoundCompletedPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		s.recordRound(p)
	}
	return nil
}

func (s *Stats) recordRound(p RoundCompletedPayload) {
	if p.Balance > 0 {
		s.snap.LastBalance = p.Balance
	}
	if p.State != "done" {
		s.snap.Failures++
		return
	}

	s.snap.Rounds++
	s.snap.TotalScore += p.Score
	switch {
	case p.Status != "accepted":
		s.snap.Rejected++
	case p.Submitted == "win":
		s.snap.Wins++
	default:
		s.snap.Losses++
	}
}

// Snapshot returns a copy of the current counters
func (s *Stats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}
