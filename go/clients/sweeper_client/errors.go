package sweeper_client

import (
	"errors"
	"fmt"
)

var (
	// ErrTokenExpired means the identity's token expired. Terminal for the identity.
	ErrTokenExpired = errors.New("sweeper: token expired")

	// ErrUnauthorized means the server rejected the bearer credential. Terminal for the identity.
	ErrUnauthorized = errors.New("sweeper: unauthorized")
)

// AuthError is a failed login
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("sweeper: login failed (HTTP %d): %s", e.StatusCode, e.Message)
}

// TransportError wraps a network-level failure of a remote call. The caller
// should back off before the next attempt.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sweeper: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServerRejectedError is a non-terminal rejection or an unusable response body
type ServerRejectedError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ServerRejectedError) Error() string {
	return fmt.Sprintf("sweeper: %s rejected (HTTP %d): %s", e.Op, e.StatusCode, e.Body)
}

// IsTerminal reports whether err ends processing for the identity
func IsTerminal(err error) bool {
	return errors.Is(err, ErrTokenExpired) || errors.Is(err, ErrUnauthorized)
}

// IsTransport reports whether err is a network-level failure
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
