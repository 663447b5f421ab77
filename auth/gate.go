// Package auth implements the admin session gate: opaque cookie tokens bound
// to a browser fingerprint and user agent, stored server-side in the
// key-value store, with an audit trail of rejected sessions.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/eringen/edgeblog/kv"
)

// CookieName is the cookie carrying the session token.
const CookieName = "admin_session"

// Reasons reported on a rejected session.
const (
	ReasonIncomplete        = "incomplete_session_data"
	ReasonExpired           = "session_expired"
	ReasonFingerprint       = "fingerprint_mismatch"
	ReasonUserAgentMismatch = "user_agent_mismatch"
)

// ErrBrowserVerification is returned by Login for requests without a User-Agent.
var ErrBrowserVerification = errors.New("browser verification failed")

// Verdict is the outcome of Gate.Check.
type Verdict struct {
	Authenticated bool
	SessionToken  string
	// Reason is set when a session existed but was rejected and revoked.
	Reason string
}

// Gate authenticates admin requests.
type Gate struct {
	sessions *SessionStore
	events   *EventLog
	ttl      time.Duration
	clientIP func(*http.Request) string
	now      func() time.Time
	log      *slog.Logger
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithSessionTTL sets the absolute session lifetime.
func WithSessionTTL(d time.Duration) GateOption {
	return func(g *Gate) {
		if d > 0 {
			g.ttl = d
		}
	}
}

// WithClientIP sets how the client address is taken from a request.
func WithClientIP(fn func(*http.Request) string) GateOption {
	return func(g *Gate) { g.clientIP = fn }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) { g.now = now }
}

func WithLogger(l *slog.Logger) GateOption {
	return func(g *Gate) { g.log = l }
}

func NewGate(sessions *SessionStore, events *EventLog, opts ...GateOption) *Gate {
	g := &Gate{
		sessions: sessions,
		events:   events,
		ttl:      DefaultSessionTTL,
		clientIP: ClientIP,
		now:      time.Now,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SessionTTL returns the configured session lifetime.
func (g *Gate) SessionTTL() time.Duration { return g.ttl }

// Check validates the session named by the request's admin_session cookie.
// Any rejected session is deleted before Check returns. Store failures
// produce an unauthenticated verdict, never an error.
func (g *Gate) Check(ctx context.Context, r *http.Request) Verdict {
	header := r.Header.Get("Cookie")
	if header == "" {
		return Verdict{}
	}
	token := ParseCookies(header)[CookieName]
	if token == "" {
		return Verdict{}
	}

	sess, err := g.sessions.Get(ctx, token)
	switch {
	case errors.Is(err, ErrMalformedSession):
		g.revoke(ctx, token)
		g.events.Record(ctx, EventInvalid, SecurityEvent{
			SessionToken: token,
			Reason:       ReasonIncomplete,
			IPAddress:    g.clientIP(r),
		})
		return Verdict{Reason: ReasonIncomplete}
	case err != nil:
		if !errors.Is(err, kv.ErrNotFound) {
			g.log.Error("session lookup failed", "error", err)
		}
		return Verdict{}
	}

	if sess.Expired(g.now()) {
		g.revoke(ctx, token)
		return Verdict{Reason: ReasonExpired}
	}

	if sess.BrowserFingerprint == "" || sess.UserAgent == "" || sess.Expires.IsZero() {
		g.revoke(ctx, token)
		g.events.Record(ctx, EventInvalid, SecurityEvent{
			SessionToken: token,
			Reason:       ReasonIncomplete,
			IPAddress:    g.clientIP(r),
		})
		return Verdict{Reason: ReasonIncomplete}
	}

	// The user agent is part of the fingerprint, so compare it first to report
	// the more specific reason.
	if ua := r.Header.Get("User-Agent"); sess.UserAgent != ua {
		g.revoke(ctx, token)
		g.events.Record(ctx, EventHijack, SecurityEvent{
			SessionToken:      token,
			Reason:            ReasonUserAgentMismatch,
			IPAddress:         g.clientIP(r),
			OriginalUserAgent: sess.UserAgent,
			CurrentUserAgent:  ua,
		})
		return Verdict{Reason: ReasonUserAgentMismatch}
	}

	current := Fingerprint(r.Header)
	if sess.BrowserFingerprint != current {
		g.revoke(ctx, token)
		g.events.Record(ctx, EventHijack, SecurityEvent{
			SessionToken:        token,
			Reason:              ReasonFingerprint,
			IPAddress:           g.clientIP(r),
			OriginalFingerprint: sess.BrowserFingerprint,
			CurrentFingerprint:  current,
		})
		return Verdict{Reason: ReasonFingerprint}
	}

	return Verdict{Authenticated: true, SessionToken: token}
}

func (g *Gate) revoke(ctx context.Context, token string) {
	if err := g.sessions.Delete(ctx, token); err != nil {
		g.log.Error("delete rejected session", "error", err)
	}
}

// Session loads the record for an authenticated token.
func (g *Gate) Session(ctx context.Context, token string) (Session, error) {
	return g.sessions.Get(ctx, token)
}

// Login opens a session bound to the request's browser and returns the
// cookie to set. The caller must have verified the password already.
func (g *Gate) Login(ctx context.Context, r *http.Request) (*http.Cookie, Session, error) {
	ua := r.Header.Get("User-Agent")
	if ua == "" {
		return nil, Session{}, ErrBrowserVerification
	}
	token, err := NewToken()
	if err != nil {
		return nil, Session{}, err
	}
	now := g.now().UTC()
	sess := Session{
		Token:              token,
		Created:            now,
		Expires:            now.Add(g.ttl),
		BrowserFingerprint: Fingerprint(r.Header),
		UserAgent:          ua,
		AcceptLanguage:     r.Header.Get("Accept-Language"),
		AcceptEncoding:     r.Header.Get("Accept-Encoding"),
		IPAddress:          g.clientIP(r),
		LoginTime:          now,
	}
	if err := g.sessions.Create(ctx, sess, g.ttl); err != nil {
		return nil, Session{}, err
	}
	return SessionCookie(r, token), sess, nil
}

// Logout deletes the request's session, if any, and returns a cookie that
// clears it in the browser.
func (g *Gate) Logout(ctx context.Context, r *http.Request) *http.Cookie {
	if token := ParseCookies(r.Header.Get("Cookie"))[CookieName]; token != "" {
		g.revoke(ctx, token)
	}
	c := SessionCookie(r, "")
	c.MaxAge = -1
	return c
}

// SessionCookie builds the admin_session cookie for r's host. It has no
// Max-Age, so it lives as long as the browser session. Domain is omitted on
// development hosts, and Secure is dropped only when such a host is reached
// over plain HTTP.
func SessionCookie(r *http.Request, token string) *http.Cookie {
	host := hostname(r.Host)
	c := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
	if IsDevHost(host) {
		if !isHTTPS(r) {
			c.Secure = false
		}
	} else if host != "" {
		c.Domain = host
	}
	return c
}

// IsDevHost reports whether host is a local development address.
func IsDevHost(host string) bool {
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return strings.HasSuffix(host, ".localhost")
}

func hostname(hostport string) string {
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		return strings.Trim(h, "[]")
	}
	return strings.Trim(hostport, "[]")
}

func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// ClientIP returns CF-Connecting-IP when a proxy set it, else the remote
// address host, else "unknown".
func ClientIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && h != "" {
		return h
	}
	return "unknown"
}
