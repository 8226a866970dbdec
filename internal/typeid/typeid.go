// Package typeid generates prefixed, sortable identifiers for persisted records.
package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixArrangement = "arr"
	PrefixPuzzle      = "pzl"
	PrefixSession     = "sess"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewArrangementID() string { return New(PrefixArrangement) }
func NewPuzzleID() string      { return New(PrefixPuzzle) }
func NewSessionID() string     { return New(PrefixSession) }

// Validate checks that id parses and carries the expected prefix.
func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
