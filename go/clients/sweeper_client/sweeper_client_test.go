package sweeper_client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/mcdev12/coinsweeper/go/clients/sweeper_client"
	"github.com/mcdev12/coinsweeper/go/clients/sweeper_client/sweepertest"
	"github.com/mcdev12/coinsweeper/go/internal/models"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*sweeper_client.SweeperClient, *sweepertest.Server) {
	t.Helper()
	srv := sweepertest.NewServer(nil)
	t.Cleanup(srv.Close)
	return sweeper_client.NewSweeperClient(sweeper_client.Config{BaseURL: srv.URL}), srv
}

func TestNewSweeperClient_Defaults(t *testing.T) {
	c := sweeper_client.NewSweeperClient(sweeper_client.Config{})
	require.Equal(t, "application/json", c.Header("Content-Type"))
	require.Equal(t, "application/json", c.Header("Accept"))
	require.Equal(t, sweeper_client.DefaultUserAgent, c.Header("User-Agent"))
}

func TestLogin(t *testing.T) {
	c, srv := newClient(t)
	ctx := context.Background()

	sess, err := c.Login(ctx, "query_id=xyz")
	require.NoError(t, err)
	require.True(t, sess.Authorized())

	calls := srv.Calls("/auth/login")
	require.Len(t, calls, 1)
	require.Equal(t, "query_id=xyz", calls[0].Body["initData"])
	require.Equal(t, "query_id=xyz", calls[0].InitData)

	// the credential rides on every later request of the session
	_, err = c.StartRound(ctx, sess)
	require.NoError(t, err)
	start := srv.Calls("/games/start")
	require.Len(t, start, 1)
	require.Equal(t, "Bearer abc", start[0].Authorization)
	require.Equal(t, "query_id=xyz", start[0].InitData)

	// the parent client never carries a credential
	require.Empty(t, c.Header(sweeper_client.AuthorizationHeader))
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		message     string
		wantMessage string
	}{
		{"server message", http.StatusBadRequest, "bad init data", "bad init data"},
		{"default message", http.StatusForbidden, "", "Unexpected error"},
		{"200 is not 201", http.StatusOK, "", "Unexpected error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, srv := newClient(t)
			srv.LoginStatus = tt.status
			srv.LoginMessage = tt.message

			_, err := c.Login(context.Background(), "token")
			var authErr *sweeper_client.AuthError
			require.ErrorAs(t, err, &authErr)
			require.Equal(t, tt.status, authErr.StatusCode)
			require.Equal(t, tt.wantMessage, authErr.Message)
		})
	}
}

func TestLogin_Transport(t *testing.T) {
	c, srv := newClient(t)
	srv.Abort["/auth/login"] = 1

	_, err := c.Login(context.Background(), "token")
	require.True(t, sweeper_client.IsTransport(err))
	require.False(t, sweeper_client.IsTerminal(err))
}

func TestFetchUserInfo(t *testing.T) {
	c, srv := newClient(t)
	ctx := context.Background()
	sess, err := c.Login(ctx, "token")
	require.NoError(t, err)

	info := c.FetchUserInfo(ctx, sess)
	require.Equal(t, "42", info.ID)
	require.Equal(t, 105.0, info.Balance())
	require.Equal(t, "42", sess.UserID)

	srv.Update(func(s *sweepertest.Server) { s.UserID = 7 })
	info = c.FetchUserInfo(ctx, sess)
	require.Equal(t, "7", info.ID)

	srv.Update(func(s *sweepertest.Server) { s.UserStatus = http.StatusInternalServerError })
	info = c.FetchUserInfo(ctx, sess)
	require.True(t, info.Empty())
	require.Equal(t, "7", sess.UserID, "failed lookup keeps the known user id")
}

func TestStartRound(t *testing.T) {
	c, srv := newClient(t)
	ctx := context.Background()
	sess, err := c.Login(ctx, "token")
	require.NoError(t, err)

	srv.StartBodies = []map[string]any{{
		"id":        "r1",
		"rewards":   map[string]any{"bagCoins": 1, "bits": "2", "gifts": 3.5},
		"createdAt": "2024-01-01T00:00:00.000Z",
	}}

	ticket, err := c.StartRound(ctx, sess)
	require.NoError(t, err)
	require.Equal(t, "r1", ticket.ID)
	require.Equal(t, int64(1704067200000), ticket.StartedAtMillis())
	require.JSONEq(t, `1`, string(ticket.Rewards.BagCoins))
	require.JSONEq(t, `"2"`, string(ticket.Rewards.Bits))
	require.JSONEq(t, `3.5`, string(ticket.Rewards.Gifts))
	start := srv.Calls("/games/start")
	require.Len(t, start, 1)
	require.Empty(t, start[0].Body)
	require.Equal(t, "r1", start[0].Ticket)
	require.Equal(t, []string{"r1"}, srv.StartedIDs())
}

func TestStartRound_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     map[string]any
		abort    bool
		terminal bool
		check    func(t *testing.T, err error)
	}{
		{
			name:     "token expired",
			status:   http.StatusOK,
			body:     map[string]any{"message": "Token expired"},
			terminal: true,
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, sweeper_client.ErrTokenExpired)
			},
		},
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     map[string]any{"message": "Unauthorized"},
			terminal: true,
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, sweeper_client.ErrUnauthorized)
			},
		},
		{
			name:   "server error",
			status: http.StatusTooManyRequests,
			body:   map[string]any{"message": "slow down"},
			check: func(t *testing.T, err error) {
				var rejected *sweeper_client.ServerRejectedError
				require.ErrorAs(t, err, &rejected)
				require.Equal(t, http.StatusTooManyRequests, rejected.StatusCode)
			},
		},
		{
			name:   "missing id",
			status: http.StatusCreated,
			body:   map[string]any{"rewards": map[string]any{}},
			check: func(t *testing.T, err error) {
				var rejected *sweeper_client.ServerRejectedError
				require.ErrorAs(t, err, &rejected)
			},
		},
		{
			name:  "transport",
			abort: true,
			check: func(t *testing.T, err error) {
				require.True(t, sweeper_client.IsTransport(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, srv := newClient(t)
			ctx := context.Background()
			sess, err := c.Login(ctx, "token")
			require.NoError(t, err)

			srv.StartStatus = tt.status
			if tt.body != nil {
				srv.StartBodies = []map[string]any{tt.body}
			}
			if tt.abort {
				srv.Abort["/games/start"] = 1
			}

			ticket, err := c.StartRound(ctx, sess)
			require.Nil(t, ticket)
			require.Error(t, err)
			require.Equal(t, tt.terminal, sweeper_client.IsTerminal(err))
			tt.check(t, err)
		})
	}
}

func TestSubmitWin_Payload(t *testing.T) {
	c, srv := newClient(t)
	ctx := context.Background()
	sess, err := c.Login(ctx, "token")
	require.NoError(t, err)

	ticket := models.RoundTicket{
		ID: "r1",
		Rewards: models.Rewards{
			BagCoins: json.RawMessage(`1`),
			Bits:     json.RawMessage(`2`),
			Gifts:    json.RawMessage(`3`),
		},
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	status, err := c.SubmitWin(ctx, sess, sweeper_client.WinSubmission{
		Ticket: ticket, GameTime: 10, Score: 414.00163, Hash: "deadbeef",
	})
	require.NoError(t, err)
	require.Equal(t, sweeper_client.SubmitAccepted, status)

	calls := srv.Calls("/games/win")
	require.Len(t, calls, 1)
	body := calls[0].Body
	require.Len(t, body, 7)
	require.Equal(t, float64(1), body["bagCoins"])
	require.Equal(t, float64(2), body["bits"])
	require.Equal(t, float64(3), body["gifts"])
	require.Equal(t, "r1", body["gameId"])
	require.Equal(t, float64(10), body["gameTime"])
	require.Equal(t, "deadbeef", body["h"])
	require.Equal(t, 414.00163, body["score"])
}

func TestSubmitLoss_Payload(t *testing.T) {
	c, srv := newClient(t)
	ctx := context.Background()
	sess, err := c.Login(ctx, "token")
	require.NoError(t, err)

	status, err := c.SubmitLoss(ctx, sess, models.RoundTicket{ID: "r2"})
	require.NoError(t, err)
	require.Equal(t, sweeper_client.SubmitAccepted, status)

	body := srv.Calls("/games/lose")[0].Body
	require.Len(t, body, 4)
	require.Equal(t, "r2", body["gameId"])
	require.Nil(t, body["bagCoins"])
	require.NotContains(t, body, "score")
	require.NotContains(t, body, "h")
}

func TestSubmit_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   sweeper_client.SubmitStatus
	}{
		{http.StatusCreated, sweeper_client.SubmitAccepted},
		{http.StatusUnauthorized, sweeper_client.SubmitUnauthorized},
		{http.StatusOK, sweeper_client.SubmitRejected},
		{http.StatusBadRequest, sweeper_client.SubmitRejected},
		{http.StatusInternalServerError, sweeper_client.SubmitRejected},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			c, srv := newClient(t)
			ctx := context.Background()
			sess, err := c.Login(ctx, "token")
			require.NoError(t, err)
			srv.WinStatus = tt.status
			srv.LoseStatus = tt.status

			got, err := c.SubmitWin(ctx, sess, sweeper_client.WinSubmission{Ticket: models.RoundTicket{ID: "r"}})
			require.NoError(t, err)
			require.Equal(t, tt.want, got)

			got, err = c.SubmitLoss(ctx, sess, models.RoundTicket{ID: "r"})
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSubmit_Transport(t *testing.T) {
	c, srv := newClient(t)
	ctx := context.Background()
	sess, err := c.Login(ctx, "token")
	require.NoError(t, err)
	srv.Abort["/games/lose"] = 1

	_, err = c.SubmitLoss(ctx, sess, models.RoundTicket{ID: "r"})
	var te *sweeper_client.TransportError
	require.True(t, errors.As(err, &te))
	require.Equal(t, "submit loss", te.Op)
}
