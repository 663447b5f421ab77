package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/edgeblog/kv"
	"github.com/eringen/edgeblog/kv/memory"
)

func completeSession(token string) Session {
	now := time.Now().UTC()
	return Session{
		Token:              token,
		Created:            now,
		Expires:            now.Add(time.Hour),
		BrowserFingerprint: "ab",
		UserAgent:          "ua",
	}
}

func TestSessionStore(t *testing.T) {
	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })
	ss := NewSessionStore(store)
	ctx := context.Background()

	assert.ErrorIs(t, ss.Create(ctx, Session{Token: "x"}, time.Hour), ErrIncompleteSession)

	for _, tok := range []string{"a", "b", "c"} {
		require.NoError(t, ss.Create(ctx, completeSession(tok), time.Hour))
	}
	require.NoError(t, store.Put(ctx, "security_hijack_1_aa", []byte("{}"), kv.NoTTL))

	n, err := ss.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := ss.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Token)

	_, err = ss.Get(ctx, "zzz")
	assert.ErrorIs(t, err, kv.ErrNotFound)

	cleared, err := ss.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, cleared)

	n, _ = ss.Count(ctx)
	assert.Zero(t, n)
	_, err = store.Get(ctx, "security_hijack_1_aa")
	assert.NoError(t, err, "clear must only touch sessions")
}

func TestNewToken(t *testing.T) {
	a, err := NewToken()
	require.NoError(t, err)
	b, err := NewToken()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestEventLog(t *testing.T) {
	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })
	log := NewEventLog(store, time.Hour, nil)
	ctx := context.Background()

	log.Record(ctx, EventDelete, SecurityEvent{Action: "post_deleted", Slug: "hello"})
	log.Record(ctx, EventDelete, SecurityEvent{Action: "post_deleted", Slug: "world"})

	n, err := log.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n, "events in the same millisecond must not collide")

	events, err := log.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventDelete, events[0].Kind)
	assert.Equal(t, "unknown", events[0].IPAddress)
}
