package edgeblog

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/eringen/edgeblog/auth"
	"github.com/eringen/edgeblog/kv"
	"github.com/eringen/edgeblog/kv/memory"
)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func setupPostStore(t *testing.T) (*PostStore, kv.Store, *testClock) {
	t.Helper()
	store := memory.New()
	t.Cleanup(func() { store.Close() })

	clock := &testClock{t: time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)}
	events := auth.NewEventLog(store, time.Hour, nil)
	s := NewPostStore(store, events, nil)
	s.now = clock.now
	return s, store, clock
}

func TestCreateAndGetPost(t *testing.T) {
	s, _, clock := setupPostStore(t)
	ctx := context.Background()

	p, err := s.Create(ctx, PostInput{Title: "  Hello World!  ", Content: "<p>Hi</p>"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.Slug != "hello-world" {
		t.Errorf("Slug = %q, want hello-world", p.Slug)
	}
	if p.Title != "Hello World!" {
		t.Errorf("Title = %q, want trimmed title", p.Title)
	}
	if want := "1736931600000"; p.ID != want {
		t.Errorf("ID = %q, want %q", p.ID, want)
	}
	if !p.CreatedAt.Equal(clock.t) {
		t.Errorf("CreatedAt = %v, want %v", p.CreatedAt, clock.t)
	}
	if p.UpdatedAt != nil {
		t.Error("new post should have no UpdatedAt")
	}

	got, err := s.Get(ctx, "hello-world")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Title != p.Title || got.Content != p.Content || got.ID != p.ID {
		t.Errorf("Get = %+v, want %+v", got, p)
	}
}

func TestCreateConflict(t *testing.T) {
	s, _, _ := setupPostStore(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, PostInput{Title: "Same Title", Content: "first"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err := s.Create(ctx, PostInput{Title: "same   title", Content: "second"})
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConflictError, got %v", err)
	}
	if ce.Slug != "same-title" {
		t.Errorf("conflicting slug = %q", ce.Slug)
	}
	if !errors.Is(err, ErrSlugConflict) {
		t.Error("ConflictError should unwrap to ErrSlugConflict")
	}

	got, _ := s.Get(ctx, "same-title")
	if got.Content != "first" {
		t.Errorf("first post was overwritten: %q", got.Content)
	}
}

func TestCreateValidation(t *testing.T) {
	s, _, _ := setupPostStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   PostInput
	}{
		{"missing title", PostInput{Content: "body"}},
		{"blank content", PostInput{Title: "Title", Content: "   "}},
		{"title without letters", PostInput{Title: "!!!", Content: "body"}},
		{"title too long", PostInput{Title: strings.Repeat("a", 201), Content: "body"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(ctx, tt.in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if len(ve.Details) == 0 {
				t.Error("expected at least one detail")
			}
		})
	}
}

func TestUpdateSameSlug(t *testing.T) {
	s, _, clock := setupPostStore(t)
	ctx := context.Background()

	orig, _ := s.Create(ctx, PostInput{Title: "My Post", Content: "v1"})
	clock.advance(time.Hour)

	p, err := s.Update(ctx, "my-post", PostInput{Title: "My Post", Content: "v2"}, "10.0.0.1")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if p.Slug != "my-post" || p.Content != "v2" {
		t.Errorf("Update = %+v", p)
	}
	if p.ID != orig.ID || !p.CreatedAt.Equal(orig.CreatedAt) {
		t.Error("Update must keep id and createdAt")
	}
	if p.UpdatedAt == nil || !p.UpdatedAt.Equal(clock.t) {
		t.Errorf("UpdatedAt = %v, want %v", p.UpdatedAt, clock.t)
	}
}

func TestUpdateRename(t *testing.T) {
	s, store, _ := setupPostStore(t)
	ctx := context.Background()

	orig, _ := s.Create(ctx, PostInput{Title: "Old Name", Content: "body"})
	p, err := s.Update(ctx, "old-name", PostInput{Title: "New Name", Content: "body"}, "10.0.0.1")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if p.Slug != "new-name" || p.ID != orig.ID {
		t.Errorf("renamed post = %+v", p)
	}
	if _, err := s.Get(ctx, "old-name"); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("old slug should be gone, got %v", err)
	}
	if _, err := s.Get(ctx, "new-name"); err != nil {
		t.Errorf("new slug missing: %v", err)
	}

	keys, _ := store.List(ctx, auth.SecurityKeyPrefix+auth.EventUpdate)
	if len(keys) != 1 {
		t.Errorf("expected one update audit record, got %v", keys)
	}
}

func TestUpdateRenameConflict(t *testing.T) {
	s, _, _ := setupPostStore(t)
	ctx := context.Background()

	s.Create(ctx, PostInput{Title: "First", Content: "one"})
	s.Create(ctx, PostInput{Title: "Second", Content: "two"})

	_, err := s.Update(ctx, "first", PostInput{Title: "Second", Content: "changed"}, "")
	if !errors.Is(err, ErrSlugConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	first, err := s.Get(ctx, "first")
	if err != nil || first.Content != "one" {
		t.Errorf("original must be untouched, got %+v, %v", first, err)
	}
	second, _ := s.Get(ctx, "second")
	if second.Content != "two" {
		t.Errorf("target must be untouched, got %q", second.Content)
	}
}

func TestUpdateMissing(t *testing.T) {
	s, _, _ := setupPostStore(t)
	_, err := s.Update(context.Background(), "nope", PostInput{Title: "T", Content: "c"}, "")
	if !errors.Is(err, ErrPostNotFound) {
		t.Errorf("expected ErrPostNotFound, got %v", err)
	}
}

func TestDeletePost(t *testing.T) {
	s, store, _ := setupPostStore(t)
	ctx := context.Background()

	s.Create(ctx, PostInput{Title: "Doomed", Content: "bye"})
	if err := s.Delete(ctx, "doomed", "10.0.0.1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "doomed"); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("expected ErrPostNotFound after delete, got %v", err)
	}
	keys, _ := store.List(ctx, auth.SecurityKeyPrefix+auth.EventDelete)
	if len(keys) != 1 {
		t.Errorf("expected one delete audit record, got %v", keys)
	}

	if err := s.Delete(ctx, "doomed", ""); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("second delete: expected ErrPostNotFound, got %v", err)
	}
}

func TestReservedKeysAreNotPosts(t *testing.T) {
	s, store, _ := setupPostStore(t)
	ctx := context.Background()

	for _, k := range []string{"session_abc", "security_hijack_1_aa", "image_1.png", "blog_settings", "test-key", "perf-test"} {
		if err := store.Put(ctx, k, []byte(`{"title":"x","content":"y","slug":"z"}`), kv.NoTTL); err != nil {
			t.Fatal(err)
		}
	}
	s.Create(ctx, PostInput{Title: "Real Post", Content: "body"})

	posts, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(posts) != 1 || posts[0].Slug != "real-post" {
		t.Errorf("List = %+v, want only real-post", posts)
	}
	n, _ := s.Count(ctx)
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
	if _, err := s.Get(ctx, "blog_settings"); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("Get(blog_settings) = %v, want ErrPostNotFound", err)
	}
	if err := s.Delete(ctx, "session_abc", ""); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("Delete(session_abc) = %v, want ErrPostNotFound", err)
	}
}

func TestListOrderAndMalformed(t *testing.T) {
	s, store, clock := setupPostStore(t)
	ctx := context.Background()

	s.Create(ctx, PostInput{Title: "Oldest", Content: "a"})
	clock.advance(time.Hour)
	s.Create(ctx, PostInput{Title: "Middle", Content: "b"})
	clock.advance(time.Hour)
	s.Create(ctx, PostInput{Title: "Newest", Content: "c"})
	store.Put(ctx, "broken", []byte("not json"), kv.NoTTL)
	store.Put(ctx, "empty", []byte(`{"title":""}`), kv.NoTTL)

	posts, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"newest", "middle", "oldest"}
	if len(posts) != len(want) {
		t.Fatalf("List returned %d posts, want %d", len(posts), len(want))
	}
	for i, slug := range want {
		if posts[i].Slug != slug {
			t.Errorf("posts[%d] = %q, want %q", i, posts[i].Slug, slug)
		}
	}

	if _, err := s.Get(ctx, "broken"); !errors.Is(err, ErrMalformedPost) {
		t.Errorf("Get(broken) = %v, want ErrMalformedPost", err)
	}
}

func TestReservedTitlesRejected(t *testing.T) {
	s, _, _ := setupPostStore(t)
	ctx := context.Background()

	for _, title := range []string{"Test Key", "perf test"} {
		_, err := s.Create(ctx, PostInput{Title: title, Content: "body"})
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Create(%q): expected *ValidationError, got %v", title, err)
		}
		if len(ve.Details) != 1 || ve.Details[0] != "title is reserved" {
			t.Errorf("Create(%q) details = %v", title, ve.Details)
		}
	}
	if n, _ := s.Count(ctx); n != 0 {
		t.Errorf("Count = %d after rejected creates, want 0", n)
	}

	if _, err := s.Create(ctx, PostInput{Title: "Draft", Content: "keep me"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err := s.Update(ctx, "draft", PostInput{Title: "Perf Test", Content: "keep me"}, "198.51.100.7")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Update: expected *ValidationError, got %v", err)
	}
	got, err := s.Get(ctx, "draft")
	if err != nil {
		t.Fatalf("draft must survive a rejected rename: %v", err)
	}
	if got.Content != "keep me" || got.UpdatedAt != nil {
		t.Errorf("draft changed: %+v", got)
	}
	posts, err := s.List(ctx)
	if err != nil || len(posts) != 1 {
		t.Errorf("List = %d posts, err %v; want 1", len(posts), err)
	}
}
