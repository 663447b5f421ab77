// Package kv defines the key-value store every piece of blog state lives in:
// posts keyed by slug, sessions, security events, settings and image metadata.
//
// Backends live in subpackages (sqlite, redis, memory). All of them honour a
// per-key TTL and list keys by prefix in lexical order.
package kv

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("kv: key not found")

// NoTTL stores a value without expiry.
const NoTTL time.Duration = 0

// Store is the minimal key-value contract the blog needs.
type Store interface {
	// Get returns the value stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put writes value at key. A positive ttl makes the key expire.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns the live keys starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// HasPrefix reports whether key starts with any of prefixes.
func HasPrefix(key string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}
