// Package views renders the blog's HTML pages as templ components. The
// components are written by hand against the templ runtime: every dynamic
// value goes through templ.EscapeString or templ.URL, and only sanitized
// post bodies and encoded JSON-LD are written verbatim.
package views

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"
)

// writer keeps the first write error so components read top to bottom.
type writer struct {
	ctx context.Context
	out io.Writer
	err error
}

func (w *writer) raw(parts ...string) {
	for _, s := range parts {
		if w.err != nil {
			return
		}
		_, w.err = io.WriteString(w.out, s)
	}
}

// text writes s escaped for element content and quoted attribute values.
func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

// url writes a sanitized, escaped URL for href/src attributes.
func (w *writer) url(s string) {
	w.text(string(templ.URL(s)))
}

func (w *writer) num(n int) {
	w.raw(strconv.Itoa(n))
}

func (w *writer) render(c templ.Component) {
	if w.err != nil {
		return
	}
	w.err = c.Render(w.ctx, w.out)
}

// component adapts a body-writing function to templ.Component.
func component(fn func(w *writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{ctx: ctx, out: out}
		fn(w)
		return w.err
	})
}

func postPath(slug string) string {
	return "/post/" + url.PathEscape(slug)
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}

func isoDate(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func dateTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.UTC().Format("2006-01-02 15:04:05 MST")
}

// Home lists posts, newest first.
func Home(site Site, posts []PostSummary) templ.Component {
	return layout(site, PageMeta{
		Title:       site.Title,
		Description: site.Description,
		URL:         site.URL,
		OGType:      "website",
	}, component(func(w *writer) {
		w.render(siteHeader(site))
		w.render(homeBody(posts))
		w.render(siteFooter(site))
	}))
}

func Post(site Site, post PostPage) templ.Component {
	meta := post.Meta
	if meta.Title == "" {
		meta.Title = post.Title + " | " + site.Title
	}
	if meta.OGType == "" {
		meta.OGType = "article"
	}
	return layout(site, meta, component(func(w *writer) {
		w.render(siteHeader(site))
		w.render(postBody(post))
		w.render(siteFooter(site))
	}))
}

func Login(site Site, form LoginForm) templ.Component {
	return layout(site, PageMeta{Title: "Admin Login", NoIndex: true}, loginBody(form))
}

func Admin(site Site, panel AdminPanel) templ.Component {
	panel.Tab = NormalizeTab(panel.Tab)
	panel.Tabs = AdminTabs(panel.Tab)
	return layout(site, PageMeta{
		Title:   "Blog Admin",
		Script:  "/static/admin.js",
		NoIndex: true,
	}, adminBody(panel))
}

// Error renders an error page for any status.
func Error(site Site, e ErrorPage) templ.Component {
	return layout(site, PageMeta{Title: e.Title + " | " + site.Title, NoIndex: true}, component(func(w *writer) {
		w.render(siteHeader(site))
		w.render(errorBody(e))
	}))
}

// NotFound is the stock 404 page.
func NotFound(site Site) templ.Component {
	return Error(site, ErrorPage{
		Status:  404,
		Title:   "Post Not Found",
		Message: "The post you're looking for doesn't exist or may have been moved.",
	})
}

// ServerError is the stock 500 page.
func ServerError(site Site) templ.Component {
	return Error(site, ErrorPage{
		Status:  500,
		Title:   "Oops! Something went wrong",
		Message: "We're experiencing technical difficulties. Please try again later.",
	})
}
