package edgeblog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/eringen/edgeblog/auth"
	"github.com/eringen/edgeblog/kv"
)

// Key prefixes that never hold posts. All of them contain "_", which Slugify
// never emits.
var reservedPrefixes = []string{
	imageKeyPrefix,
	auth.SessionKeyPrefix,
	auth.SecurityKeyPrefix,
	"blog_",
}

// legacy diagnostic keys written by older deployments
var legacyKeys = map[string]bool{"test-key": true, "perf-test": true}

func isPostKey(key string) bool {
	return !legacyKeys[key] && !kv.HasPrefix(key, reservedPrefixes...)
}

// PostStore provides CRUD for posts on top of a kv.Store.
type PostStore struct {
	kv     kv.Store
	events *auth.EventLog
	log    *slog.Logger
	now    func() time.Time
}

// NewPostStore returns a post repository. Updates and deletions are audited
// through events.
func NewPostStore(store kv.Store, events *auth.EventLog, log *slog.Logger) *PostStore {
	if log == nil {
		log = slog.Default()
	}
	return &PostStore{kv: store, events: events, log: log, now: time.Now}
}

func normalizeInput(in PostInput) (PostInput, string, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if err := validateStruct(in); err != nil {
		return in, "", err
	}
	slug := Slugify(in.Title)
	if slug == "" {
		return in, "", &ValidationError{Details: []string{"title must contain at least one letter or digit"}}
	}
	if !isPostKey(slug) {
		return in, "", &ValidationError{Details: []string{"title is reserved"}}
	}
	return in, slug, nil
}

// decodePost parses a stored record, rejecting anything that is not a post.
func decodePost(raw []byte) (Post, error) {
	var p Post
	if err := json.Unmarshal(raw, &p); err != nil {
		return Post{}, fmt.Errorf("%w: %v", ErrMalformedPost, err)
	}
	if p.Title == "" || p.Content == "" || p.Slug == "" {
		return Post{}, fmt.Errorf("%w: missing title, content or slug", ErrMalformedPost)
	}
	return p, nil
}

func (s *PostStore) exists(ctx context.Context, slug string) (bool, error) {
	_, err := s.kv.Get(ctx, slug)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, kv.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *PostStore) put(ctx context.Context, p Post) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.kv.Put(ctx, p.Slug, data, kv.NoTTL)
}

// Create validates in, derives the slug from the title and stores a new post.
// A post with the same slug yields a *ConflictError.
func (s *PostStore) Create(ctx context.Context, in PostInput) (Post, error) {
	in, slug, err := normalizeInput(in)
	if err != nil {
		return Post{}, err
	}
	taken, err := s.exists(ctx, slug)
	if err != nil {
		return Post{}, fmt.Errorf("check slug: %w", err)
	}
	if taken {
		return Post{}, &ConflictError{Slug: slug}
	}

	now := s.now().UTC()
	p := Post{
		ID:        strconv.FormatInt(now.UnixMilli(), 10),
		Title:     in.Title,
		Content:   in.Content,
		Slug:      slug,
		CreatedAt: now,
	}
	if err := s.put(ctx, p); err != nil {
		return Post{}, fmt.Errorf("create post: %w", err)
	}
	return p, nil
}

// Get returns the post stored under slug.
func (s *PostStore) Get(ctx context.Context, slug string) (Post, error) {
	if !isPostKey(slug) {
		return Post{}, ErrPostNotFound
	}
	raw, err := s.kv.Get(ctx, slug)
	if errors.Is(err, kv.ErrNotFound) {
		return Post{}, ErrPostNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("get post: %w", err)
	}
	return decodePost(raw)
}

// Update rewrites the post at slug. When the new title changes the slug the
// post moves: the new key is written and read back before the old one is
// deleted, so a failure part-way never loses the post.
func (s *PostStore) Update(ctx context.Context, slug string, in PostInput, clientIP string) (Post, error) {
	in, newSlug, err := normalizeInput(in)
	if err != nil {
		return Post{}, err
	}
	existing, err := s.Get(ctx, slug)
	if err != nil {
		return Post{}, err
	}

	now := s.now().UTC()
	updated := existing
	updated.Title = in.Title
	updated.Content = in.Content
	updated.Slug = newSlug
	updated.UpdatedAt = &now

	if newSlug == slug {
		if err := s.put(ctx, updated); err != nil {
			return Post{}, fmt.Errorf("update post: %w", err)
		}
	} else {
		taken, err := s.exists(ctx, newSlug)
		if err != nil {
			return Post{}, fmt.Errorf("check slug: %w", err)
		}
		if taken {
			return Post{}, &ConflictError{Slug: newSlug}
		}
		if err := s.rename(ctx, slug, updated); err != nil {
			return Post{}, err
		}
	}

	s.events.Record(ctx, auth.EventUpdate, auth.SecurityEvent{
		Action:    "post_updated",
		OldSlug:   slug,
		NewSlug:   newSlug,
		IPAddress: clientIP,
	})
	return updated, nil
}

func (s *PostStore) rename(ctx context.Context, oldSlug string, p Post) error {
	if err := s.put(ctx, p); err != nil {
		return fmt.Errorf("write renamed post: %w", err)
	}
	raw, err := s.kv.Get(ctx, p.Slug)
	if err != nil {
		return fmt.Errorf("verify renamed post: %w", err)
	}
	if got, err := decodePost(raw); err != nil || got.ID != p.ID {
		return fmt.Errorf("verify renamed post %s: record mismatch", p.Slug)
	}
	if err := s.kv.Delete(ctx, oldSlug); err != nil {
		// Both keys now hold the post; the old one is a stale duplicate.
		s.log.Error("delete old post key after rename", "old_slug", oldSlug, "new_slug", p.Slug, "error", err)
	}
	return nil
}

// Delete removes the post at slug. The audit record is written first.
func (s *PostStore) Delete(ctx context.Context, slug string, clientIP string) error {
	if !isPostKey(slug) {
		return ErrPostNotFound
	}
	found, err := s.exists(ctx, slug)
	if err != nil {
		return fmt.Errorf("get post: %w", err)
	}
	if !found {
		return ErrPostNotFound
	}

	s.events.Record(ctx, auth.EventDelete, auth.SecurityEvent{
		Action:    "post_deleted",
		Slug:      slug,
		IPAddress: clientIP,
	})
	if err := s.kv.Delete(ctx, slug); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

func (s *PostStore) postKeys(ctx context.Context) ([]string, error) {
	keys, err := s.kv.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	out := keys[:0]
	for _, k := range keys {
		if isPostKey(k) {
			out = append(out, k)
		}
	}
	return out, nil
}

// List returns every readable post, newest first. Records that do not decode
// as posts are skipped and logged.
func (s *PostStore) List(ctx context.Context) ([]Post, error) {
	keys, err := s.postKeys(ctx)
	if err != nil {
		return nil, err
	}
	posts := make([]Post, 0, len(keys))
	for _, k := range keys {
		raw, err := s.kv.Get(ctx, k)
		if errors.Is(err, kv.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", k, err)
		}
		p, err := decodePost(raw)
		if err != nil {
			s.log.Warn("skipping malformed post", "key", k, "error", err)
			continue
		}
		posts = append(posts, p)
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

// Count returns the number of post keys without reading them.
func (s *PostStore) Count(ctx context.Context) (int, error) {
	keys, err := s.postKeys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}
