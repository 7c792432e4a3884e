package sweeper_client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mcdev12/coinsweeper/go/internal/models"
)

// SubmitStatus is the server's verdict on a win or lose submission
type SubmitStatus int

const (
	SubmitNotSent SubmitStatus = iota
	SubmitAccepted
	SubmitUnauthorized
	SubmitRejected
)

func (s SubmitStatus) String() string {
	switch s {
	case SubmitNotSent:
		return "not sent"
	case SubmitAccepted:
		return "accepted"
	case SubmitUnauthorized:
		return "unauthorized"
	default:
		return "rejected"
	}
}

// WinSubmission is the payload of a win report
type WinSubmission struct {
	Ticket   models.RoundTicket
	GameTime int
	Score    float64
	Hash     string
}

type startResponse struct {
	models.RoundTicket
	Message string `json:"message"`
}

type winRequest struct {
	BagCoins json.RawMessage `json:"bagCoins"`
	Bits     json.RawMessage `json:"bits"`
	Gifts    json.RawMessage `json:"gifts"`
	GameID   string          `json:"gameId"`
	GameTime int             `json:"gameTime"`
	Hash     string          `json:"h"`
	Score    float64         `json:"score"`
}

type loseRequest struct {
	BagCoins json.RawMessage `json:"bagCoins"`
	Bits     json.RawMessage `json:"bits"`
	Gifts    json.RawMessage `json:"gifts"`
	GameID   string          `json:"gameId"`
}

// StartRound starts a new round and returns its ticket.
func (c *SweeperClient) StartRound(ctx context.Context, sess *Session) (*models.RoundTicket, error) {
	resp, err := sess.api.PostJSON(ctx, StartGameEndpoint, struct{}{})
	if err != nil {
		return nil, &TransportError{Op: "start round", Err: err}
	}

	var body startResponse
	decodeErr := resp.DecodeJSON(&body)
	if decodeErr == nil && strings.Contains(strings.ToLower(body.Message), "expired") {
		return nil, ErrTokenExpired
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if !resp.OK() || decodeErr != nil || body.ID == "" {
		return nil, &ServerRejectedError{Op: "start round", StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	ticket := body.RoundTicket
	return &ticket, nil
}

// SubmitWin reports a won round. The error is reserved for transport failures.
func (c *SweeperClient) SubmitWin(ctx context.Context, sess *Session, win WinSubmission) (SubmitStatus, error) {
	req := winRequest{
		BagCoins: rawOrNull(win.Ticket.Rewards.BagCoins),
		Bits:     rawOrNull(win.Ticket.Rewards.Bits),
		Gifts:    rawOrNull(win.Ticket.Rewards.Gifts),
		GameID:   win.Ticket.ID,
		GameTime: win.GameTime,
		Hash:     win.Hash,
		Score:    win.Score,
	}
	return c.submit(ctx, sess, "submit win", WinGameEndpoint, req)
}

// SubmitLoss reports a lost round. No score or hash is sent.
func (c *SweeperClient) SubmitLoss(ctx context.Context, sess *Session, ticket models.RoundTicket) (SubmitStatus, error) {
	req := loseRequest{
		BagCoins: rawOrNull(ticket.Rewards.BagCoins),
		Bits:     rawOrNull(ticket.Rewards.Bits),
		Gifts:    rawOrNull(ticket.Rewards.Gifts),
		GameID:   ticket.ID,
	}
	return c.submit(ctx, sess, "submit loss", LoseGameEndpoint, req)
}

func (c *SweeperClient) submit(ctx context.Context, sess *Session, op, endpoint string, payload any) (SubmitStatus, error) {
	resp, err := sess.api.PostJSON(ctx, endpoint, payload)
	if err != nil {
		return SubmitNotSent, &TransportError{Op: op, Err: err}
	}

	switch resp.StatusCode {
	case http.StatusCreated:
		return SubmitAccepted, nil
	case http.StatusUnauthorized:
		return SubmitUnauthorized, nil
	default:
		return SubmitRejected, nil
	}
}

// rawOrNull sends absent reward fields as JSON null
func rawOrNull(v json.RawMessage) json.RawMessage {
	if len(v) == 0 {
		return json.RawMessage("null")
	}
	return v
}
