// Package storage defines the key/value port the record store persists to.
package storage

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned by backends that cap the size of stored values.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// KV is a minimal durable key/value store. Set replaces the whole value.
type KV interface {
	// Get returns the value stored under key. ok is false when nothing was stored.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}
