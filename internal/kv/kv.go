// Package kv defines the small key-value port behind non-critical per-visitor state:
// anonymous copy quotas, recent searches and the analytics event buffer.
//
// Values are opaque bytes. GetJSON and SetJSON cover the common case of JSON documents.
// Every caller treats the store as a droppable cache, so backends may lose data.
package kv

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("kv: key not found")

// Store is a key-value store.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. A positive ttl expires the key, zero keeps it forever.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Clear removes key. Clearing a missing key is not an error.
	Clear(ctx context.Context, key string) error
}

// GetJSON decodes the JSON document stored under key into v.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &DecodeError{Key: key, Err: err}
	}
	return nil
}

// SetJSON encodes v as JSON and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kv: encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw, ttl)
}

// DecodeError reports a stored value that is not valid for the requested type.
type DecodeError struct {
	Key string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("kv: decode %s: %v", e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
