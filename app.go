// Package edgeblog is a small self-hosted blog built with Go, Echo and templ.
// Posts, sessions, security events and settings live in a key-value store;
// uploaded images live in an object store. A hidden admin panel edits
// everything, guarded by server-side sessions bound to the browser.
//
// Templates are supplied through the ViewFuncs struct; DefaultViews wires
// the built-in ones from the views package.
package edgeblog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"

	"github.com/eringen/edgeblog/auth"
	"github.com/eringen/edgeblog/blob"
	"github.com/eringen/edgeblog/blob/local"
	"github.com/eringen/edgeblog/blob/s3"
	"github.com/eringen/edgeblog/kv"
	"github.com/eringen/edgeblog/kv/memory"
	"github.com/eringen/edgeblog/kv/redis"
	"github.com/eringen/edgeblog/kv/sqlite"
	"github.com/eringen/edgeblog/views"
)

// AdminPanelPath is the unlisted admin panel URL.
const AdminPanelPath = "/verysecretadminpanel"

const shutdownTimeout = 10 * time.Second

// ViewFuncs holds the templ components the handlers render. Replace any of
// them with WithViews to restyle the blog.
type ViewFuncs struct {
	Home        func(site views.Site, posts []views.PostSummary) templ.Component
	Post        func(site views.Site, post views.PostPage) templ.Component
	Login       func(site views.Site, form views.LoginForm) templ.Component
	Admin       func(site views.Site, panel views.AdminPanel) templ.Component
	Error       func(site views.Site, e views.ErrorPage) templ.Component
	NotFound    func(site views.Site) templ.Component
	ServerError func(site views.Site) templ.Component
}

// DefaultViews returns the built-in templates.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Home:        views.Home,
		Post:        views.Post,
		Login:       views.Login,
		Admin:       views.Admin,
		Error:       views.Error,
		NotFound:    views.NotFound,
		ServerError: views.ServerError,
	}
}

// App wires stores, services, middleware and routes together.
type App struct {
	Config   Config
	Echo     *echo.Echo
	KV       kv.Store
	Blobs    blob.Store
	Posts    *PostStore
	Settings *SettingsStore
	Images   *ImageService
	Sessions *auth.SessionStore
	Events   *auth.EventLog
	Gate     *auth.Gate
	Views    ViewFuncs
	Log      *slog.Logger

	sanitizer    *bluemonday.Policy
	started      time.Time
	now          func() time.Time
	customRoutes []func(*App)
	closers      []func() error
	ready        bool
}

// New creates an App. Stores are opened by Init, unless supplied with
// WithKV and WithBlobs.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  DefaultViews(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.Log == nil {
		a.Log = slog.Default()
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true
	return a
}

// Init validates the config, opens the stores and registers middleware and
// routes. It is called by Start; tests call it directly and drive a.Echo.
func (a *App) Init(ctx context.Context) error {
	if a.ready {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("edgeblog: %w", err)
	}

	if a.KV == nil {
		store, stop, err := OpenKV(ctx, a.Config, a.Log)
		if err != nil {
			return fmt.Errorf("edgeblog: open kv: %w", err)
		}
		a.KV = store
		a.closers = append(a.closers, func() error { stop(); return store.Close() })
	}
	if a.Blobs == nil {
		store, err := OpenBlobs(ctx, a.Config)
		if err != nil {
			return fmt.Errorf("edgeblog: open blobs: %w", err)
		}
		a.Blobs = store
	}

	a.Events = auth.NewEventLog(a.KV, a.Config.SecurityEventTTL, a.Log)
	a.Sessions = auth.NewSessionStore(a.KV)
	a.Gate = auth.NewGate(a.Sessions, a.Events,
		auth.WithSessionTTL(a.Config.SessionTTL),
		auth.WithClientIP(a.clientIP),
		auth.WithClock(a.now),
		auth.WithLogger(a.Log),
	)
	a.Posts = NewPostStore(a.KV, a.Events, a.Log)
	a.Posts.now = a.now
	a.Settings = NewSettingsStore(a.KV, a.Log)
	a.Images = NewImageService(a.Blobs, a.KV, a.Config.BlobDriver, a.Log)
	a.Images.now = a.now
	a.sanitizer = bluemonday.UGCPolicy()
	a.started = a.now()

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// Start runs the server until ctx is cancelled, then shuts it down
// gracefully.
func (a *App) Start(ctx context.Context) error {
	if err := a.Init(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("server listening", "addr", a.Config.Addr, "kv", a.Config.KVDriver, "blobs", a.Config.BlobDriver)
		errCh <- a.Echo.Start(a.Config.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.Log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("edgeblog: shutdown: %w", err)
	}
	return nil
}

// Close releases the stores opened by Init. Injected stores are left open.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) clientIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if a.Echo.IPExtractor != nil {
		if ip := a.Echo.IPExtractor(r); ip != "" {
			return ip
		}
	}
	return auth.ClientIP(r)
}

// OpenKV opens the key-value store named by cfg.KVDriver. The returned stop
// function ends background maintenance; call it once, before Close.
func OpenKV(ctx context.Context, cfg Config, log *slog.Logger) (kv.Store, func(), error) {
	noop := func() {}
	switch cfg.KVDriver {
	case "sqlite":
		store, err := sqlite.Open(cfg.KVSQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return store, store.StartCleanupScheduler(time.Hour, log), nil
	case "redis":
		store, err := redis.Open(ctx, cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case "memory":
		return memory.New(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown KV_DRIVER %q", cfg.KVDriver)
	}
}

// OpenBlobs opens the image store named by cfg.BlobDriver.
func OpenBlobs(ctx context.Context, cfg Config) (blob.Store, error) {
	switch cfg.BlobDriver {
	case "local":
		return local.New(cfg.BlobLocalDir)
	case "s3":
		return s3.New(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown BLOB_DRIVER %q", cfg.BlobDriver)
	}
}
