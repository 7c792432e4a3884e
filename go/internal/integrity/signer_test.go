package integrity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSign_Deterministic(t *testing.T) {
	a, err := Sign("key", "message")
	require.NoError(t, err)
	b, err := Sign("key", "message")
	require.NoError(t, err)

	require.Equal(t, a, b)
	require.Len(t, a, 64)
	require.Regexp(t, "^[0-9a-f]{64}$", a)
}

func TestSign_MatchesHMAC(t *testing.T) {
	mac := hmac.New(sha256.New, []byte("42v$2f1-r1-1704067200000"))
	mac.Write([]byte("10-r1"))
	want := hex.EncodeToString(mac.Sum(nil))

	got, err := Sign("42v$2f1-r1-1704067200000", "10-r1")
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestSign_Avalanche(t *testing.T) {
	base, err := Sign("user-key", "10-round")
	require.NoError(t, err)

	variants := []struct {
		key, msg string
	}{
		{"user-kez", "10-round"},
		{"User-key", "10-round"},
		{"user-key", "11-round"},
		{"user-key", "10-rounD"},
	}
	for _, v := range variants {
		got, err := Sign(v.key, v.msg)
		require.NoError(t, err)
		require.NotEqual(t, base, got, "key=%q msg=%q", v.key, v.msg)
	}
}

func TestSign_Unsignable(t *testing.T) {
	tests := []struct {
		name string
		key  string
		msg  string
	}{
		{"empty key", "", "msg"},
		{"empty message", "key", ""},
		{"invalid utf-8", "key\xff", "msg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sign(tt.key, tt.msg)
			require.ErrorIs(t, err, ErrUnsignable)
		})
	}
}

func TestSigner_SignRound(t *testing.T) {
	startedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "42v$2f1-r1-1704067200000", RoundKey("42", DefaultSalt, "r1", startedAt))
	require.Equal(t, "10-r1", RoundMessage(10, "r1"))

	s := NewSigner("")
	got, err := s.SignRound("42", "r1", startedAt, 10)
	require.NoError(t, err)

	want, err := Sign("42v$2f1-r1-1704067200000", "10-r1")
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = s.SignRound("", "r1", startedAt, 10)
	require.ErrorIs(t, err, ErrUnsignable)
	_, err = s.SignRound("42", "", startedAt, 10)
	require.ErrorIs(t, err, ErrUnsignable)
	_, err = s.SignRound("42", "r1", time.Time{}, 10)
	require.ErrorIs(t, err, ErrUnsignable)
}
