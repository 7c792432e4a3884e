// Package identity reads the list of identity tokens the runner cycles through.
package identity

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultFile is read when no identities file is configured
const DefaultFile = "data.txt"

// ErrNoIdentities is returned when the source yields nothing to run.
var ErrNoIdentities = errors.New("identity: no identities found")

// Load reads one identity per line from path. Surrounding whitespace is
// trimmed and blank lines are skipped. A missing file yields an empty list
// and an error wrapping both ErrNoIdentities and os.ErrNotExist.
func Load(path string) ([]string, error) {
	if path == "" {
		path = DefaultFile
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrNoIdentities, path, err)
	}
	defer f.Close()

	ids, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoIdentities, path)
	}
	return ids, nil
}

// Parse reads identities from r using the same rules as Load.
func Parse(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	// init-data tokens can be long
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var ids []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
