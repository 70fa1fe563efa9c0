// Package auth issues and verifies access tokens and hashes passwords.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// keyFile holds the PASETO v4 local key as 64 hex characters.
const (
	keyFile   = "auth.key"
	keyLength = 32
)

// LoadOrGenerateKey returns the token key stored under dataPath. The first
// start generates one and writes it with owner-only permissions; every later
// start must find the same key or all issued tokens become invalid.
func LoadOrGenerateKey(dataPath string) ([]byte, error) {
	path := filepath.Join(dataPath, keyFile)

	key, err := readKey(path)
	if err == nil || !errors.Is(err, fs.ErrNotExist) {
		return key, err
	}

	key = make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate auth key: %w", err)
	}
	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, fmt.Errorf("save auth key: %w", err)
	}
	return key, nil
}

func readKey(path string) ([]byte, error) {
	raw, err := os.ReadFile(path) //#nosec G304 -- path is under the configured data directory
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(string(raw))
	if len(text) != hex.EncodedLen(keyLength) {
		return nil, fmt.Errorf("invalid auth key length: expected %d hex chars, got %d", hex.EncodedLen(keyLength), len(text))
	}
	key, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("invalid auth key: %w", err)
	}
	return key, nil
}
