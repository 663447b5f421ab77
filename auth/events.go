package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/eringen/edgeblog/kv"
)

const (
	SecurityKeyPrefix = "security_"
	DefaultEventTTL   = 7 * 24 * time.Hour
)

// Event kinds, used as the second segment of the record key.
const (
	EventInvalid = "invalid"
	EventHijack  = "hijack"
	EventUpdate  = "update"
	EventDelete  = "delete"
	EventClear   = "clear"
)

// SecurityEvent is an audit record. Only the fields relevant to the kind
// are set.
type SecurityEvent struct {
	Timestamp           time.Time `json:"timestamp"`
	Action              string    `json:"action,omitempty"`
	Reason              string    `json:"reason,omitempty"`
	SessionToken        string    `json:"sessionToken,omitempty"`
	Slug                string    `json:"slug,omitempty"`
	OldSlug             string    `json:"oldSlug,omitempty"`
	NewSlug             string    `json:"newSlug,omitempty"`
	IPAddress           string    `json:"ipAddress"`
	OriginalFingerprint string    `json:"originalFingerprint,omitempty"`
	CurrentFingerprint  string    `json:"currentFingerprint,omitempty"`
	OriginalUserAgent   string    `json:"originalUserAgent,omitempty"`
	CurrentUserAgent    string    `json:"currentUserAgent,omitempty"`
	ClearedCount        *int      `json:"clearedCount,omitempty"`
}

// StoredEvent pairs an event with its key.
type StoredEvent struct {
	Key  string `json:"key"`
	Kind string `json:"kind"`
	SecurityEvent
}

// EventLog writes audit records to the key-value store with a TTL. Writes
// are best effort: a failure is logged and never reaches the caller.
type EventLog struct {
	kv  kv.Store
	ttl time.Duration
	log *slog.Logger
	now func() time.Time
}

func NewEventLog(store kv.Store, ttl time.Duration, log *slog.Logger) *EventLog {
	if ttl <= 0 {
		ttl = DefaultEventTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &EventLog{kv: store, ttl: ttl, log: log, now: time.Now}
}

// Record stores ev under "security_<kind>_<unixmillis>_<suffix>". The random
// suffix keeps two events in the same millisecond from overwriting each other.
func (l *EventLog) Record(ctx context.Context, kind string, ev SecurityEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = l.now().UTC()
	}
	if ev.IPAddress == "" {
		ev.IPAddress = "unknown"
	}

	l.log.Warn("security event",
		"kind", kind,
		"action", ev.Action,
		"reason", ev.Reason,
		"ip", ev.IPAddress,
	)

	data, err := json.Marshal(ev)
	if err != nil {
		l.log.Error("encode security event", "error", err)
		return
	}
	key := eventKey(kind, ev.Timestamp)
	if err := l.kv.Put(ctx, key, data, l.ttl); err != nil {
		l.log.Error("write security event", "key", key, "error", err)
	}
}

func eventKey(kind string, ts time.Time) string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return SecurityKeyPrefix + kind + "_" + strconv.FormatInt(ts.UnixMilli(), 10) + "_" + hex.EncodeToString(b)
}

// Count returns the number of live security events.
func (l *EventLog) Count(ctx context.Context) (int, error) {
	keys, err := l.kv.List(ctx, SecurityKeyPrefix)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Recent returns up to limit events, newest first. Undecodable records are
// skipped.
func (l *EventLog) Recent(ctx context.Context, limit int) ([]StoredEvent, error) {
	keys, err := l.kv.List(ctx, SecurityKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list security events: %w", err)
	}
	events := make([]StoredEvent, 0, len(keys))
	for _, k := range keys {
		raw, err := l.kv.Get(ctx, k)
		if err != nil {
			continue
		}
		var ev SecurityEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			continue
		}
		events = append(events, StoredEvent{Key: k, Kind: kindFromKey(k), SecurityEvent: ev})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func kindFromKey(key string) string {
	rest := key[len(SecurityKeyPrefix):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == '_' {
			return rest[:i]
		}
	}
	return rest
}
