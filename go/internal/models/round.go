package models

import (
	"encoding/json"
	"time"
)

// Outcome is the result reported for a round, decided before it is played out
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// Rewards is the reward bundle attached to a started round. Values are kept
// as raw JSON so they are echoed back to the server exactly as received.
type Rewards struct {
	BagCoins json.RawMessage `json:"bagCoins"`
	Bits     json.RawMessage `json:"bits"`
	Gifts    json.RawMessage `json:"gifts"`
}

// RoundTicket is the server-issued descriptor of a started round.
// It must be submitted to exactly one of the win or lose endpoints.
type RoundTicket struct {
	ID        string    `json:"id"`
	Rewards   Rewards   `json:"rewards"`
	CreatedAt time.Time `json:"createdAt"`
}

// StartedAtMillis returns the server-reported start time in epoch milliseconds
func (t RoundTicket) StartedAtMillis() int64 {
	return t.CreatedAt.UnixMilli()
}
