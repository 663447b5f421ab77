package views

import "time"

// Site carries blog-wide settings resolved for the request host. Every page
// receives it so nothing in the pages is hardcoded.
type Site struct {
	Title        string
	Description  string
	Author       string
	URL          string
	Keywords     string
	OGImage      string
	PrimaryColor string // validated #rrggbb
	AccentColor  string
	Social       Social
}

type Social struct {
	Twitter  string
	LinkedIn string
	GitHub   string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the page <head>.
type PageMeta struct {
	Title       string
	Description string
	URL         string      // canonical + og:url
	OGType      string      // "website" or "article"
	JSONLD      string // schema.org block, encoded by encoding/json so "<" is escaped
	Script      string      // optional deferred script
	NoIndex     bool
}

// PostSummary is a post as shown in lists.
type PostSummary struct {
	Title     string
	Slug      string
	Excerpt   string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// PostPage is a single post with sanitized content.
type PostPage struct {
	Meta      PageMeta
	Title     string
	Slug      string
	Content   string // sanitized HTML, written verbatim
	CreatedAt time.Time
	UpdatedAt *time.Time
}

type LoginForm struct {
	CSRFToken string
	Error     string
	Notice    string
}

type ErrorPage struct {
	Status  int
	Title   string
	Message string
}

// Admin panel tabs.
const (
	TabDashboard = "dashboard"
	TabCreate    = "create"
	TabEdit      = "edit"
	TabSettings  = "settings"
	TabDebug     = "debug"
)

type Tab struct {
	ID     string
	Name   string
	Active bool
}

// AdminPanel is everything the panel may show. Only the fields for
// the active tab are filled.
type AdminPanel struct {
	Tab       string
	Tabs      []Tab
	CSRFToken string
	Flash     string

	Dashboard Dashboard
	Posts     []PostSummary
	Editor    *Editor
	Settings  SettingsForm
	Debug     Debug
}

type Dashboard struct {
	TotalPosts     int
	ActiveSessions int
	SecurityEvents int
	Latest         *PostSummary
	Images         []ImageSummary
}

type ImageSummary struct {
	URL          string
	OriginalName string
	UploadedAt   time.Time
	Width        int
	Height       int
}

// Editor backs the create and edit forms. Slug is empty when creating.
type Editor struct {
	Slug      string
	Title     string
	Content   string
	CreatedAt time.Time
}

type SettingsForm struct {
	DefaultTitle       string
	DefaultDescription string
	DefaultAuthor      string
	PrimaryColor       string
	AccentColor        string
	Twitter            string
	LinkedIn           string
	GitHub             string
	Keywords           string
	OGImage            string
	DomainsJSON        string
}

type Debug struct {
	SessionExpires time.Time
	SessionIP      string
	KVDriver       string
	BlobDriver     string
	Events         []SecurityEvent
}

type SecurityEvent struct {
	Kind      string
	Reason    string
	Action    string
	IPAddress string
	Timestamp time.Time
}

// AdminTabs returns the tab bar with active marked.
func AdminTabs(active string) []Tab {
	tabs := []Tab{
		{ID: TabDashboard, Name: "Dashboard"},
		{ID: TabCreate, Name: "Create"},
		{ID: TabEdit, Name: "Edit"},
		{ID: TabSettings, Name: "Settings"},
		{ID: TabDebug, Name: "Debug"},
	}
	for i := range tabs {
		tabs[i].Active = tabs[i].ID == active
	}
	return tabs
}

// NormalizeTab maps unknown tab names to the dashboard.
func NormalizeTab(tab string) string {
	switch tab {
	case TabCreate, TabEdit, TabSettings, TabDebug:
		return tab
	}
	return TabDashboard
}
