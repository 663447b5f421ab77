package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/eringen/edgeblog/kv"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "test_kv.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutAndGet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "hello-world", []byte(`{"title":"Hello"}`), kv.NoTTL); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := s.Get(ctx, "hello-world")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `{"title":"Hello"}` {
		t.Errorf("Get = %q", got)
	}

	// Overwrite
	if err := s.Put(ctx, "hello-world", []byte("v2"), kv.NoTTL); err != nil {
		t.Fatalf("Put overwrite failed: %v", err)
	}
	got, _ = s.Get(ctx, "hello-world")
	if string(got) != "v2" {
		t.Errorf("Get after overwrite = %q, want v2", got)
	}
}

func TestGetMissing(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Get(context.Background(), "nonexistent")
	if !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("expected kv.ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "k", []byte("v"), kv.NoTTL); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("expected kv.ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}

func TestTTLExpiry(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if err := s.Put(ctx, "session_abc", []byte("{}"), time.Hour); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := s.Get(ctx, "session_abc"); err != nil {
		t.Fatalf("Get before expiry failed: %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := s.Get(ctx, "session_abc"); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("expected expired key to be missing, got %v", err)
	}
	keys, err := s.List(ctx, "session_")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("List returned expired keys: %v", keys)
	}

	n, err := s.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if n != 1 {
		t.Errorf("DeleteExpired = %d, want 1", n)
	}
}

func TestListByPrefix(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, k := range []string{"session_b", "session_a", "security_x", "Session_upper", "blog_settings", "my-post"} {
		if err := s.Put(ctx, k, []byte("v"), kv.NoTTL); err != nil {
			t.Fatalf("Put(%s) failed: %v", k, err)
		}
	}

	tests := []struct {
		prefix string
		want   []string
	}{
		{"session_", []string{"session_a", "session_b"}},
		{"se", []string{"security_x", "session_a", "session_b"}},
		{"blog_", []string{"blog_settings"}},
		{"nothing", nil},
	}
	for _, tt := range tests {
		got, err := s.List(ctx, tt.prefix)
		if err != nil {
			t.Fatalf("List(%q) failed: %v", tt.prefix, err)
		}
		if len(got) != len(tt.want) {
			t.Fatalf("List(%q) = %v, want %v", tt.prefix, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("List(%q)[%d] = %q, want %q", tt.prefix, i, got[i], tt.want[i])
			}
		}
	}

	all, err := s.List(ctx, "")
	if err != nil {
		t.Fatalf("List all failed: %v", err)
	}
	if len(all) != 6 {
		t.Errorf("List(\"\") count = %d, want 6", len(all))
	}
}

func TestListEscapesWildcards(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	// "_" is a LIKE wildcard; "imageX" must not match the "image_" prefix.
	for _, k := range []string{"image_1.png", "imageX"} {
		if err := s.Put(ctx, k, []byte("v"), kv.NoTTL); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	got, err := s.List(ctx, "image_")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 || got[0] != "image_1.png" {
		t.Errorf("List(image_) = %v, want [image_1.png]", got)
	}
}
