package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/edgeblog/kv"
	"github.com/eringen/edgeblog/kv/memory"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	t.Cleanup(func() { _ = s.Close() })

	t.Run("get missing key", func(t *testing.T) {
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("put then get returns a copy", func(t *testing.T) {
		val := []byte("value")
		require.NoError(t, s.Put(ctx, "k1", val, kv.NoTTL))
		val[0] = 'X'

		got, err := s.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, "value", string(got))
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "k2", []byte("v"), kv.NoTTL))
		require.NoError(t, s.Delete(ctx, "k2"))
		require.NoError(t, s.Delete(ctx, "k2"))
		_, err := s.Get(ctx, "k2")
		assert.ErrorIs(t, err, kv.ErrNotFound)
	})

	t.Run("list by prefix is sorted", func(t *testing.T) {
		for _, k := range []string{"session_b", "session_a", "post"} {
			require.NoError(t, s.Put(ctx, k, []byte("v"), kv.NoTTL))
		}
		keys, err := s.List(ctx, "session_")
		require.NoError(t, err)
		assert.Equal(t, []string{"session_a", "session_b"}, keys)
	})

	t.Run("ttl expires keys", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "security_1", []byte("v"), 20*time.Millisecond))
		_, err := s.Get(ctx, "security_1")
		require.NoError(t, err)

		time.Sleep(60 * time.Millisecond)
		_, err = s.Get(ctx, "security_1")
		assert.ErrorIs(t, err, kv.ErrNotFound)

		keys, err := s.List(ctx, "security_")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}
