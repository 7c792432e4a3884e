package sweeper_client

import (
	"net/http"
	"time"

	"github.com/mcdev12/coinsweeper/go/clients"
)

// Config holds settings for the coinsweeper API client.
type Config struct {
	// BaseURL defaults to BaseURL when empty.
	BaseURL string

	// UserAgent defaults to DefaultUserAgent when empty.
	UserAgent string

	// Timeout applies to each request. Defaults to 30 seconds.
	Timeout time.Duration

	// HTTPClient allows injecting a custom client (tests).
	HTTPClient *http.Client
}

type SweeperClient struct {
	*clients.BaseClient
}

func NewSweeperClient(cfg Config) *SweeperClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	client := &SweeperClient{
		BaseClient: clients.NewBaseClientWithHTTP(cfg.BaseURL, cfg.HTTPClient),
	}
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	client.SetHeader("Accept", "application/json")
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("User-Agent", cfg.UserAgent)

	return client
}

// Session is the authorized context of one identity. It owns its own header
// set and cookie jar; every call for the identity goes through it.
type Session struct {
	// UserID is filled in by FetchUserInfo once the profile is known.
	UserID string

	api *clients.BaseClient
}

// Authorized reports whether the session carries a bearer credential
func (s *Session) Authorized() bool {
	return s.api != nil && s.api.Header(AuthorizationHeader) != ""
}
