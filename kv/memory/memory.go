// Package memory implements kv.Store in process memory. It is meant for tests
// and throwaway development instances: nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/eringen/edgeblog/kv"
)

// Store keeps values in a ttlcache with per-key expiry.
type Store struct {
	cache *ttlcache.Cache[string, []byte]
}

// New creates an empty store and starts its expiry loop.
func New() *Store {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go cache.Start()
	return &Store{cache: cache}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	item := s.cache.Get(key)
	if item == nil || item.IsExpired() {
		return nil, kv.ErrNotFound
	}
	v := item.Value()
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *Store) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	v := make([]byte, len(value))
	copy(v, value)
	s.cache.Set(key, v, ttl)
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for k, item := range s.cache.Items() {
		if item.IsExpired() || !strings.HasPrefix(k, prefix) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Ping(context.Context) error { return nil }

// Close stops the expiry goroutine.
func (s *Store) Close() error {
	s.cache.Stop()
	return nil
}

var _ kv.Store = (*Store)(nil)
