package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eringen/edgeblog/kv"
)

const (
	// SessionKeyPrefix namespaces session records in the key-value store.
	SessionKeyPrefix = "session_"
	// DefaultSessionTTL is the absolute lifetime of an admin session.
	DefaultSessionTTL = 8 * time.Hour
)

var (
	ErrMalformedSession  = errors.New("auth: malformed session record")
	ErrIncompleteSession = errors.New("auth: incomplete session data")
)

// Session is the server-side record behind an admin_session cookie.
type Session struct {
	Token              string    `json:"-"`
	Created            time.Time `json:"created"`
	Expires            time.Time `json:"expires"`
	BrowserFingerprint string    `json:"browserFingerprint"`
	UserAgent          string    `json:"userAgent"`
	AcceptLanguage     string    `json:"acceptLanguage"`
	AcceptEncoding     string    `json:"acceptEncoding"`
	IPAddress          string    `json:"ipAddress"`
	LoginTime          time.Time `json:"loginTime"`
}

// Complete reports whether the fields the gate relies on are all present.
func (s Session) Complete() bool {
	return s.BrowserFingerprint != "" && s.UserAgent != "" &&
		!s.Created.IsZero() && !s.Expires.IsZero()
}

// Expired reports whether now is past the session's expiry.
func (s Session) Expired(now time.Time) bool {
	return !s.Expires.IsZero() && now.After(s.Expires)
}

// SessionStore keeps sessions in a kv.Store under "session_<token>".
type SessionStore struct {
	kv kv.Store
}

func NewSessionStore(store kv.Store) *SessionStore {
	return &SessionStore{kv: store}
}

func sessionKey(token string) string { return SessionKeyPrefix + token }

// Create stores sess under its token. The backend expires it after ttl.
func (s *SessionStore) Create(ctx context.Context, sess Session, ttl time.Duration) error {
	if sess.Token == "" || !sess.Complete() {
		return ErrIncompleteSession
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, sessionKey(sess.Token), data, ttl); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Get loads the session for token. A missing key yields kv.ErrNotFound and a
// record that is not valid JSON yields ErrMalformedSession.
func (s *SessionStore) Get(ctx context.Context, token string) (Session, error) {
	raw, err := s.kv.Get(ctx, sessionKey(token))
	if err != nil {
		return Session{}, err
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrMalformedSession, err)
	}
	sess.Token = token
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	return s.kv.Delete(ctx, sessionKey(token))
}

// Count returns the number of live sessions.
func (s *SessionStore) Count(ctx context.Context) (int, error) {
	keys, err := s.kv.List(ctx, SessionKeyPrefix)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Clear deletes every session and returns how many were removed. On error the
// count covers the sessions deleted before the failure.
func (s *SessionStore) Clear(ctx context.Context) (int, error) {
	keys, err := s.kv.List(ctx, SessionKeyPrefix)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, k := range keys {
		if err := s.kv.Delete(ctx, k); err != nil {
			return n, fmt.Errorf("delete %s: %w", k, err)
		}
		n++
	}
	return n, nil
}

// NewToken returns 32 random bytes as 64 lowercase hex characters.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
