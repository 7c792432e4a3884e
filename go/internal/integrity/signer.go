// Package integrity builds the keyed digest that binds a won round's
// identity, game id and timing together for the server-side check.
package integrity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// DefaultSalt is the static salt mixed into every round key
const DefaultSalt = "v$2f1"

// ErrUnsignable is returned when a digest cannot be produced from the inputs.
var ErrUnsignable = errors.New("integrity: inputs cannot be signed")

// Sign returns the lowercase hex HMAC-SHA256 of message under key.
func Sign(key, message string) (string, error) {
	if key == "" || message == "" {
		return "", fmt.Errorf("%w: empty key or message", ErrUnsignable)
	}
	if !utf8.ValidString(key) || !utf8.ValidString(message) {
		return "", fmt.Errorf("%w: invalid utf-8 input", ErrUnsignable)
	}

	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// RoundKey builds the HMAC key for a round:
// "<userID><salt>-<roundID>-<startedAt epoch ms>".
func RoundKey(userID, salt, roundID string, startedAt time.Time) string {
	return fmt.Sprintf("%s%s-%s-%d", userID, salt, roundID, startedAt.UnixMilli())
}

// RoundMessage builds the signed message for a round: "<gameTime>-<roundID>".
func RoundMessage(gameTime int, roundID string) string {
	return fmt.Sprintf("%d-%s", gameTime, roundID)
}

// Signer signs won rounds with a fixed salt.
type Signer struct {
	salt string
}

// NewSigner returns a Signer using salt, or DefaultSalt when salt is empty
func NewSigner(salt string) *Signer {
	if salt == "" {
		salt = DefaultSalt
	}
	return &Signer{salt: salt}
}

// SignRound produces the "h" field of a win submission.
func (s *Signer) SignRound(userID, roundID string, startedAt time.Time, gameTime int) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: missing user id", ErrUnsignable)
	}
	if roundID == "" {
		return "", fmt.Errorf("%w: missing round id", ErrUnsignable)
	}
	if startedAt.IsZero() {
		return "", fmt.Errorf("%w: missing round start time", ErrUnsignable)
	}
	return Sign(RoundKey(userID, s.salt, roundID, startedAt), RoundMessage(gameTime, roundID))
}
