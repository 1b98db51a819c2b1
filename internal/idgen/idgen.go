// Package idgen generates short random identifiers.
package idgen

import (
	"fmt"
	"strings"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// SessionPrefix marks explorer session IDs.
const SessionPrefix = "ex-"

const (
	alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	size     = 8
)

// SessionID returns a new explorer session ID such as "ex-k3v9q0zd".
func SessionID() (string, error) { return New(SessionPrefix) }

// New returns prefix followed by eight lowercase alphanumerics.
func New(prefix string) (string, error) {
	id, err := nanoid.Generate(alphabet, size)
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return prefix + id, nil
}

// IsSessionID reports whether id has the shape SessionID produces.
func IsSessionID(id string) bool {
	rest, ok := strings.CutPrefix(id, SessionPrefix)
	if !ok || len(rest) != size {
		return false
	}
	for _, r := range rest {
		if !strings.ContainsRune(alphabet, r) {
			return false
		}
	}
	return true
}
