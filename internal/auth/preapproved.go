package auth

import (
	"fmt"
	"os"
	"strings"
)

// LoadPreapproved reads the newline-delimited handle list. Blank lines and
// surrounding whitespace are ignored. The list is read once at startup and
// never written back.
func LoadPreapproved(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pre-approved users: %w", err)
	}

	var handles []string

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			handles = append(handles, line)
		}
	}

	return handles, nil
}
