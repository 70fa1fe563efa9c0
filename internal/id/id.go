// Package id generates identifiers for stored entities and anonymous devices.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for entity identifiers.
const (
	PrefixPrompt      = "prompt"
	PrefixTag         = "tag"
	PrefixComment     = "cmt"
	PrefixRating      = "rate"
	PrefixInteraction = "ixn"
	PrefixUser        = "user"
	PrefixSession     = "sess"
	PrefixEvent       = "evt"
	PrefixClient      = "sse"
	PrefixToken       = "token"
)

// Generate creates a prefixed unique ID using NanoID
// Format: prefix-nanoid (e.g., "prompt-V1StGXR8_Z5jdHi6B-myT").
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// NewDeviceID issues an opaque identifier for an anonymous visitor.
func NewDeviceID() string {
	return uuid.NewString()
}

// IsDeviceID reports whether s looks like an identifier issued by NewDeviceID.
func IsDeviceID(s string) bool {
	u, err := uuid.Parse(s)
	return err == nil && u.Version() == 4
}
