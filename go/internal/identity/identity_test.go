package identity

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	ids, err := Parse(strings.NewReader("query_id=1\n\n  query_id=2  \r\n\t\nuser=%7B%22id%22%3A3%7D\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"query_id=1", "query_id=2", "user=%7B%22id%22%3A3%7D"}, ids)
}

func TestParse_LongLine(t *testing.T) {
	long := strings.Repeat("a", 200*1024)
	ids, err := Parse(strings.NewReader(long + "\n"))
	require.NoError(t, err)
	require.Equal(t, []string{long}, ids)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n"), 0o600))

	ids, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two"}, ids)
}

func TestLoad_MissingFile(t *testing.T) {
	ids, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.Empty(t, ids)
	require.ErrorIs(t, err, ErrNoIdentities)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_OnlyBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n  \n\n"), 0o600))

	ids, err := Load(path)
	require.Empty(t, ids)
	require.ErrorIs(t, err, ErrNoIdentities)
}
