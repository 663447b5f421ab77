package edgeblog

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/eringen/edgeblog/auth"
)

const (
	flashSessionName = "edgeblog_flash"
	verdictKey       = "edgeblog.verdict"
	maxBodySize      = "12M" // uploads are capped at 10MB, plus multipart overhead
)

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	e.Pre(middleware.NonWWWRedirect())
	e.Pre(middleware.RemoveTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
	}))

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("ip", v.RemoteIP),
				slog.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			a.Log.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.BodyLimit(maxBodySize))

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/images/")
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; font-src 'self'; connect-src 'self'; frame-ancestors 'none'; base-uri 'self'; form-action 'self'",
		HSTSMaxAge:            31536000,
		HSTSExcludeSubdomains: false,
	}))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     a.Config.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           86400,
		Skipper: func(c echo.Context) bool {
			return !strings.HasPrefix(c.Request().URL.Path, "/api/")
		},
	}))

	e.Use(session.Middleware(a.newFlashStore()))

	// API writes are covered by the SameSite=Strict session cookie; forms are
	// covered here.
	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		ContextKey:     middleware.DefaultCSRFConfig.ContextKey,
		TokenLookup:    "header:X-CSRF-Token,form:_csrf",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
		CookieSecure:   a.secureCookies(),
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.HasPrefix(path, "/api/") ||
				strings.HasPrefix(path, "/images/") ||
				strings.HasPrefix(path, "/static/")
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return c.String(http.StatusForbidden, "Forbidden")
		},
	}))

	e.Use(cacheControlMiddleware)
}

func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		h := c.Response().Header()
		switch {
		case strings.HasPrefix(path, "/static/"):
			h.Set("Cache-Control", "public, max-age=86400")
		case path == "/sitemap.xml" || path == "/feed.xml" || path == "/robots.txt":
			h.Set("Cache-Control", "public, max-age=3600")
		case strings.HasPrefix(path, "/admin"), strings.HasPrefix(path, "/api/"), path == AdminPanelPath:
			h.Set("Cache-Control", "no-store")
		default:
			h.Set("Cache-Control", "public, max-age=300")
		}
		return next(c)
	}
}

func (a *App) secureCookies() bool {
	return strings.HasPrefix(a.Config.SiteURL, "https://")
}

// newFlashStore signs the short-lived cookie carrying panel status banners.
// Admin authentication itself never touches it.
func (a *App) newFlashStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   300,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.secureCookies(),
	}
	return store
}

func addFlash(c echo.Context, msg string) {
	sess, err := session.Get(flashSessionName, c)
	if err != nil {
		return
	}
	sess.AddFlash(msg)
	_ = sess.Save(c.Request(), c.Response())
}

// popFlash returns and clears the pending flash message, if any.
func popFlash(c echo.Context) string {
	sess, err := session.Get(flashSessionName, c)
	if err != nil {
		return ""
	}
	flashes := sess.Flashes()
	if len(flashes) == 0 {
		return ""
	}
	_ = sess.Save(c.Request(), c.Response())
	msg, _ := flashes[len(flashes)-1].(string)
	return msg
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}

// sessionVerdict returns the verdict stored by the auth middleware.
func sessionVerdict(c echo.Context) auth.Verdict {
	v, _ := c.Get(verdictKey).(auth.Verdict)
	return v
}

// check runs the gate and clears a rejected cookie in the browser.
func (a *App) check(c echo.Context) auth.Verdict {
	v := a.Gate.Check(c.Request().Context(), c.Request())
	if !v.Authenticated && v.Reason != "" {
		cookie := auth.SessionCookie(c.Request(), "")
		cookie.MaxAge = -1
		c.SetCookie(cookie)
	}
	return v
}

// requireAPISession answers unauthenticated API calls with 401 JSON.
func (a *App) requireAPISession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		v := a.check(c)
		if !v.Authenticated {
			reason := v.Reason
			if reason == "" {
				reason = "invalid_session"
			}
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error":  "Authentication required",
				"reason": reason,
			})
		}
		c.Set(verdictKey, v)
		return next(c)
	}
}

// requirePanelSession sends unauthenticated visitors to the login form.
func (a *App) requirePanelSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		v := a.check(c)
		if !v.Authenticated {
			if msg := reasonMessage(v.Reason); msg != "" {
				addFlash(c, msg)
			}
			return c.Redirect(http.StatusSeeOther, "/admin/login")
		}
		c.Set(verdictKey, v)
		return next(c)
	}
}

func reasonMessage(reason string) string {
	switch reason {
	case auth.ReasonExpired:
		return "Your session expired. Please log in again."
	case auth.ReasonFingerprint, auth.ReasonUserAgentMismatch:
		return "Your session was ended because the browser changed. Please log in again."
	case auth.ReasonIncomplete:
		return "Your session was invalid. Please log in again."
	}
	return ""
}
