// Package sweepertest provides an in-process fake of the coinsweeper API.
package sweepertest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Call is one request received by the fake server
type Call struct {
	Method        string
	Path          string
	Authorization string
	InitData      string
	Body          map[string]any
	At            time.Time

	// Ticket is the round id the server issued in reply to a start call.
	Ticket string
}

// Server is a scriptable fake game server. Zero-value knobs behave like the
// happy path: login returns 201, start returns fresh tickets, submissions 201.
type Server struct {
	*httptest.Server

	mu    sync.Mutex
	clock clockwork.Clock
	calls []Call
	seq   int

	// LoginStatus is the status returned by /auth/login (default 201).
	LoginStatus  int
	LoginMessage string
	AccessToken  string

	// UserStatus is the status returned by /users/me (default 200).
	UserStatus int
	UserID     any

	// StartBodies are returned by /games/start in order; once exhausted a
	// fresh ticket is generated for every call.
	StartBodies []map[string]any
	StartStatus int

	WinStatus  int
	LoseStatus int

	// Abort makes the next N requests to a path fail at the transport level.
	Abort map[string]int
}

// NewServer starts a fake server. clock timestamps calls and may be nil.
func NewServer(clock clockwork.Clock) *Server {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	s := &Server{
		clock:       clock,
		AccessToken: "abc",
		UserID:      "42",
		Abort:       make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Update changes knobs while requests may be in flight
func (s *Server) Update(fn func(s *Server)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// Calls returns the recorded calls to path, or all calls when path is empty
func (s *Server) Calls(path string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Call
	for _, c := range s.calls {
		if path == "" || c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// Submissions maps each submitted game id to the endpoints it was sent to
func (s *Server) Submissions() map[string][]string {
	out := make(map[string][]string)
	for _, c := range s.Calls("") {
		if c.Path != "/games/win" && c.Path != "/games/lose" {
			continue
		}
		id, _ := c.Body["gameId"].(string)
		out[id] = append(out[id], c.Path)
	}
	return out
}

// StartedIDs returns the ids of every ticket handed out, in order
func (s *Server) StartedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, c := range s.calls {
		if c.Ticket != "" {
			ids = append(ids, c.Ticket)
		}
	}
	return ids
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(data, &body)
	if body == nil {
		body = map[string]any{}
	}

	s.mu.Lock()
	if s.Abort[r.URL.Path] > 0 {
		s.Abort[r.URL.Path]--
		s.calls = append(s.calls, s.newCall(r, body))
		s.mu.Unlock()
		panic(http.ErrAbortHandler)
	}

	call := s.newCall(r, body)
	status, resp := s.respond(r.URL.Path, &call)
	s.calls = append(s.calls, call)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if resp != nil {
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (s *Server) newCall(r *http.Request, body map[string]any) Call {
	return Call{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
		InitData:      r.Header.Get("tl-init-data"),
		Body:          body,
		At:            s.clock.Now(),
	}
}

func (s *Server) respond(path string, call *Call) (int, any) {
	switch path {
	case "/auth/login":
		status := orDefault(s.LoginStatus, http.StatusCreated)
		if status != http.StatusCreated {
			if s.LoginMessage == "" {
				return status, map[string]any{}
			}
			return status, map[string]any{"message": s.LoginMessage}
		}
		return status, map[string]any{"accessToken": s.AccessToken}

	case "/users/me":
		status := orDefault(s.UserStatus, http.StatusOK)
		if status != http.StatusOK {
			return status, map[string]any{"message": "nope"}
		}
		return status, map[string]any{"id": s.UserID, "score": 100, "scoreFromReferrals": 5}

	case "/games/start":
		status := orDefault(s.StartStatus, http.StatusCreated)
		var resp map[string]any
		if len(s.StartBodies) > 0 {
			resp = s.StartBodies[0]
			s.StartBodies = s.StartBodies[1:]
		} else {
			s.seq++
			resp = map[string]any{
				"id":        fmt.Sprintf("game-%d", s.seq),
				"rewards":   map[string]any{"bagCoins": 1, "bits": 2, "gifts": 3},
				"createdAt": "2024-01-01T00:00:00.000Z",
			}
		}
		if id, ok := resp["id"].(string); ok {
			call.Ticket = id
		}
		return status, resp

	case "/games/win":
		return orDefault(s.WinStatus, http.StatusCreated), map[string]any{}

	case "/games/lose":
		return orDefault(s.LoseStatus, http.StatusCreated), map[string]any{}
	}
	return http.StatusNotFound, map[string]any{"message": "not found"}
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
