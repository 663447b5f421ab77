package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/edgeblog/kv"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	s, err := Open(context.Background(), Config{
		URL:            url,
		KeyPrefix:      "edgeblog-test-" + uuid.NewString() + ":",
		RetryAttempts:  1,
		ConnectTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := s.List(ctx, "")
		for _, k := range keys {
			_ = s.Delete(ctx, k)
		}
		_ = s.Close()
	})
	return s
}

func TestStore(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	require.NoError(t, s.Put(ctx, "hello-world", []byte("v1"), kv.NoTTL))
	got, err := s.Get(ctx, "hello-world")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))

	for _, k := range []string{"session_b", "session_a", "session*glob"} {
		require.NoError(t, s.Put(ctx, k, []byte("v"), time.Minute))
	}
	keys, err := s.List(ctx, "session_")
	require.NoError(t, err)
	assert.Equal(t, []string{"session_a", "session_b"}, keys)

	keys, err = s.List(ctx, "session*")
	require.NoError(t, err)
	assert.Equal(t, []string{"session*glob"}, keys)

	require.NoError(t, s.Delete(ctx, "hello-world"))
	_, err = s.Get(ctx, "hello-world")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `a\*b\?c\[d\]`, escapeGlob("a*b?c[d]"))
	assert.Equal(t, "session_", escapeGlob("session_"))
}

func TestConnectBadURL(t *testing.T) {
	_, err := Connect(context.Background(), Config{URL: "://nope"})
	assert.ErrorIs(t, err, ErrParseURL)
}
