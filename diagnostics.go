package edgeblog

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/edgeblog/auth"
)

// Diagnostic probe keys. Both sit under the reserved blog_ prefix.
const (
	selfTestKey = "blog_selftest"
	perfTestKey = "blog_perftest"
	probeTTL    = time.Minute
)

func (a *App) handleSelfTest(c echo.Context) error {
	ctx := c.Request().Context()
	resp := map[string]any{
		"timestamp":     a.now().UTC(),
		"kvTest":        probeResult(a.kvRoundTrip(ctx, selfTestKey)),
		"blobTest":      probeResult(a.Blobs.Ping(ctx)),
		"adminPassword": passwordState(a.Config.AdminPassword),
	}

	total, err := a.Posts.Count(ctx)
	if err != nil {
		return err
	}
	resp["totalPosts"] = total

	sessions, err := a.Sessions.Count(ctx)
	if err != nil {
		return err
	}
	events, err := a.Events.Count(ctx)
	if err != nil {
		return err
	}
	resp["security"] = map[string]any{
		"activeSessions": sessions,
		"recentEvents":   events,
		"cookieType":     "non-persistent",
		"fingerprinting": "enhanced",
		"sessionTimeout": a.Gate.SessionTTL().String(),
		"validation":     "strict",
	}
	resp["success"] = resp["kvTest"] == "success" && resp["blobTest"] == "success"
	return c.JSON(http.StatusOK, resp)
}

func probeResult(err error) string {
	if err != nil {
		return "failed: " + err.Error()
	}
	return "success"
}

func passwordState(pw string) string {
	switch {
	case pw == "":
		return "missing"
	case auth.IsBcryptHash(pw):
		return "configured (bcrypt)"
	default:
		return "configured"
	}
}

// kvRoundTrip writes, reads back and deletes a probe key.
func (a *App) kvRoundTrip(ctx context.Context, key string) error {
	want := []byte(strconv.FormatInt(a.now().UnixNano(), 10))
	if err := a.KV.Put(ctx, key, want, probeTTL); err != nil {
		return err
	}
	got, err := a.KV.Get(ctx, key)
	if err != nil {
		return err
	}
	if !bytes.Equal(got, want) {
		return errors.New("read back a different value")
	}
	return a.KV.Delete(ctx, key)
}

func (a *App) handleDebugSecurity(c echo.Context) error {
	ctx := c.Request().Context()
	events, err := a.Events.Recent(ctx, debugEvents)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"features": map[string]any{
			"nonPersistentSessions": true,
			"browserFingerprinting": true,
			"sessionTimeout":        a.Gate.SessionTTL().String(),
			"corsProtection":        true,
			"securityHeaders":       true,
			"xssProtection":         true,
			"sessionValidation":     "strict",
			"userAgentValidation":   true,
			"auditLogging":          true,
		},
		"recentEvents": events,
	})
}

func (a *App) handleDebugSession(c echo.Context) error {
	token := sessionVerdict(c).SessionToken
	sess, err := a.Gate.Session(c.Request().Context(), token)
	if err != nil {
		return jsonError(c, http.StatusNotFound, "Session not found")
	}
	now := a.now()
	return c.JSON(http.StatusOK, map[string]any{
		"session":          sess,
		"currentIp":        a.clientIP(c.Request()),
		"fingerprint":      auth.Fingerprint(c.Request().Header),
		"remainingSeconds": int(sess.Expires.Sub(now).Seconds()),
		"ageSeconds":       int(now.Sub(sess.Created).Seconds()),
	})
}

func (a *App) handleDebugPerformance(c echo.Context) error {
	ctx := c.Request().Context()

	start := time.Now()
	kvErr := a.kvRoundTrip(ctx, perfTestKey)
	kvLatency := time.Since(start)

	start = time.Now()
	blobErr := a.Blobs.Ping(ctx)
	blobLatency := time.Since(start)

	start = time.Now()
	_, listErr := a.Posts.Count(ctx)
	listLatency := time.Since(start)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return c.JSON(http.StatusOK, map[string]any{
		"kv": map[string]any{
			"roundTripMs": millis(kvLatency),
			"result":      probeResult(kvErr),
		},
		"kvList": map[string]any{
			"latencyMs": millis(listLatency),
			"result":    probeResult(listErr),
		},
		"blob": map[string]any{
			"pingMs": millis(blobLatency),
			"result": probeResult(blobErr),
		},
		"memory": map[string]any{
			"allocBytes":   mem.Alloc,
			"sysBytes":     mem.Sys,
			"heapObjects":  mem.HeapObjects,
			"numGC":        mem.NumGC,
			"pauseTotalMs": millis(time.Duration(mem.PauseTotalNs)),
		},
		"goroutines":    runtime.NumGoroutine(),
		"uptimeSeconds": int(a.now().Sub(a.started).Seconds()),
		"goVersion":     runtime.Version(),
	})
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func (a *App) handleClearSessions(c echo.Context) error {
	ctx := c.Request().Context()
	n, err := a.Sessions.Clear(ctx)
	a.Events.Record(ctx, auth.EventClear, auth.SecurityEvent{
		Action:       "clear_all_sessions",
		Reason:       "manual_clear_all_sessions",
		IPAddress:    a.clientIP(c.Request()),
		ClearedCount: &n,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":      true,
		"clearedCount": n,
		"message":      "All sessions cleared. You will need to log in again.",
	})
}
