package edgeblog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/eringen/edgeblog/kv"
)

// SettingsKey holds the single settings record.
const SettingsKey = "blog_settings"

const fallbackDescription = "A technology and cybersecurity blog"

// Settings configures titles, theme colours, social links and SEO defaults.
type Settings struct {
	Blog    BlogSettings              `json:"blog"`
	Domains map[string]DomainSettings `json:"domains" validate:"dive"`
	Theme   ThemeSettings             `json:"theme"`
	Social  SocialSettings            `json:"social"`
	SEO     SEOSettings               `json:"seo"`
}

type BlogSettings struct {
	DefaultTitle       string `json:"defaultTitle" validate:"max=200"`
	DefaultDescription string `json:"defaultDescription" validate:"max=500"`
	DefaultAuthor      string `json:"defaultAuthor" validate:"max=100"`
}

// DomainSettings overrides the title and description for one host name.
type DomainSettings struct {
	Title       string `json:"title" validate:"max=200"`
	Description string `json:"description" validate:"max=500"`
}

type ThemeSettings struct {
	PrimaryColor string `json:"primaryColor" validate:"omitempty,hexcolor6"`
	AccentColor  string `json:"accentColor" validate:"omitempty,hexcolor6"`
}

type SocialSettings struct {
	Twitter  string `json:"twitter" validate:"omitempty,http_url"`
	LinkedIn string `json:"linkedin" validate:"omitempty,http_url"`
	GitHub   string `json:"github" validate:"omitempty,http_url"`
}

type SEOSettings struct {
	Keywords string `json:"keywords" validate:"max=500"`
	OGImage  string `json:"ogImage" validate:"max=2048"`
}

// DefaultSettings returns the values used for any field left empty.
func DefaultSettings() Settings {
	return Settings{
		Blog: BlogSettings{
			DefaultTitle:       "My Technology Blog",
			DefaultDescription: "A cybersecurity and technology blog",
			DefaultAuthor:      "Blog Author",
		},
		Domains: map[string]DomainSettings{},
		Theme: ThemeSettings{
			PrimaryColor: "#3498db",
			AccentColor:  "#2c3e50",
		},
		SEO: SEOSettings{
			Keywords: "cybersecurity, technology, blog",
		},
	}
}

// withDefaults fills empty fields from DefaultSettings.
func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	or := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	s.Blog.DefaultTitle = or(s.Blog.DefaultTitle, d.Blog.DefaultTitle)
	s.Blog.DefaultDescription = or(s.Blog.DefaultDescription, d.Blog.DefaultDescription)
	s.Blog.DefaultAuthor = or(s.Blog.DefaultAuthor, d.Blog.DefaultAuthor)
	s.Theme.PrimaryColor = or(s.Theme.PrimaryColor, d.Theme.PrimaryColor)
	s.Theme.AccentColor = or(s.Theme.AccentColor, d.Theme.AccentColor)
	s.SEO.Keywords = or(s.SEO.Keywords, d.SEO.Keywords)
	if s.Domains == nil {
		s.Domains = map[string]DomainSettings{}
	}
	return s
}

// TitleForHost picks the per-domain title, then the default title, then a
// name derived from the host.
func (s Settings) TitleForHost(host string) string {
	if d, ok := s.Domains[host]; ok && d.Title != "" {
		return d.Title
	}
	if s.Blog.DefaultTitle != "" {
		return s.Blog.DefaultTitle
	}
	r, size := utf8.DecodeRuneInString(host)
	if r == utf8.RuneError {
		return "Blog"
	}
	return string(unicode.ToUpper(r)) + host[size:] + " Blog"
}

// DescriptionForHost mirrors TitleForHost for descriptions.
func (s Settings) DescriptionForHost(host string) string {
	if d, ok := s.Domains[host]; ok && d.Description != "" {
		return d.Description
	}
	if s.Blog.DefaultDescription != "" {
		return s.Blog.DefaultDescription
	}
	return fallbackDescription
}

// SettingsStore reads and writes the settings record.
type SettingsStore struct {
	kv  kv.Store
	log *slog.Logger
}

func NewSettingsStore(store kv.Store, log *slog.Logger) *SettingsStore {
	if log == nil {
		log = slog.Default()
	}
	return &SettingsStore{kv: store, log: log}
}

// Get returns the stored settings merged over the defaults. A missing or
// unreadable record yields the defaults.
func (s *SettingsStore) Get(ctx context.Context) Settings {
	raw, err := s.kv.Get(ctx, SettingsKey)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.log.Error("load settings", "error", err)
		}
		return DefaultSettings()
	}
	var st Settings
	if err := json.Unmarshal(raw, &st); err != nil {
		s.log.Error("decode settings", "error", err)
		return DefaultSettings()
	}
	return st.withDefaults()
}

// Save validates and stores settings. The last write wins.
func (s *SettingsStore) Save(ctx context.Context, st Settings) error {
	st.Blog.DefaultTitle = strings.TrimSpace(st.Blog.DefaultTitle)
	st.Blog.DefaultDescription = strings.TrimSpace(st.Blog.DefaultDescription)
	if err := validateStruct(st); err != nil {
		return err
	}
	if st.Domains == nil {
		st.Domains = map[string]DomainSettings{}
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, SettingsKey, data, kv.NoTTL); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
