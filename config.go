package edgeblog

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/eringen/edgeblog/auth"
	"github.com/eringen/edgeblog/blob"
	"github.com/eringen/edgeblog/blob/s3"
	"github.com/eringen/edgeblog/kv"
	"github.com/eringen/edgeblog/kv/redis"
	"github.com/eringen/edgeblog/logger"
)

// Config holds all configuration for an edgeblog instance.
type Config struct {
	Addr    string `env:"ADDR" envDefault:":3000"`
	SiteURL string `env:"SITE_URL" envDefault:"http://localhost:3000"` // canonical URL for feeds and sitemaps

	AdminPassword string `env:"ADMIN_PANEL_PASSWORD"` // plaintext or bcrypt hash
	SessionSecret string `env:"SESSION_SECRET"`       // signs the flash cookie

	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"8h"`
	SecurityEventTTL time.Duration `env:"SECURITY_EVENT_TTL" envDefault:"168h"`

	KVDriver     string `env:"KV_DRIVER" envDefault:"sqlite"` // sqlite, redis or memory
	KVSQLitePath string `env:"KV_SQLITE_PATH" envDefault:"data/blog.db"`
	Redis        redis.Config

	BlobDriver   string `env:"BLOB_DRIVER" envDefault:"local"` // local or s3
	BlobLocalDir string `env:"BLOB_LOCAL_DIR" envDefault:"data/images"`
	S3           s3.Config

	// ImageTransformPrefix is the resizing proxy that width/height/quality/format
	// requests are redirected to, e.g. "/cdn-cgi/image" behind Cloudflare. The
	// proxy is external; when unset, "off" or "none" the original is served.
	ImageTransformPrefix string   `env:"IMAGE_TRANSFORM_PREFIX"`
	CORSOrigins          []string `env:"CORS_ORIGINS" envSeparator:","`

	Log logger.Config
}

// LoadConfig reads .env (if present) and then the process environment.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.SiteURL == "" {
		c.SiteURL = "http://localhost:3000"
	}
	c.SiteURL = strings.TrimRight(c.SiteURL, "/")
	if c.SessionTTL <= 0 {
		c.SessionTTL = auth.DefaultSessionTTL
	}
	if c.SecurityEventTTL <= 0 {
		c.SecurityEventTTL = auth.DefaultEventTTL
	}
	if c.KVDriver == "" {
		c.KVDriver = "sqlite"
	}
	if c.KVSQLitePath == "" {
		c.KVSQLitePath = "data/blog.db"
	}
	if c.BlobDriver == "" {
		c.BlobDriver = "local"
	}
	if c.BlobLocalDir == "" {
		c.BlobLocalDir = "data/images"
	}
	switch strings.ToLower(c.ImageTransformPrefix) {
	case "off", "none":
		c.ImageTransformPrefix = ""
	}
	c.ImageTransformPrefix = strings.TrimRight(c.ImageTransformPrefix, "/")
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{c.SiteURL}
	}
}

// Validate reports missing required settings.
func (c Config) Validate() error {
	var errs []error
	if c.AdminPassword == "" {
		errs = append(errs, errors.New("ADMIN_PANEL_PASSWORD is required"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}
	switch c.KVDriver {
	case "sqlite", "redis", "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown KV_DRIVER %q", c.KVDriver))
	}
	switch c.BlobDriver {
	case "local", "s3":
	default:
		errs = append(errs, fmt.Errorf("unknown BLOB_DRIVER %q", c.BlobDriver))
	}
	return errors.Join(errs...)
}

// Option configures additional App behavior.
type Option func(*App)

// WithKV uses store instead of opening one from the config.
func WithKV(store kv.Store) Option {
	return func(a *App) {
		a.KV = store
	}
}

// WithBlobs uses store for image bytes instead of opening one from the config.
func WithBlobs(store blob.Store) Option {
	return func(a *App) {
		a.Blobs = store
	}
}

// WithLogger sets the application logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.Log = l
	}
}

// WithViews replaces the built-in templates.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.Views = v
	}
}

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}
