package views

import (
	"net/url"

	"github.com/a-h/templ"
)

func adminBody(p AdminPanel) templ.Component {
	return component(func(w *writer) {
		w.raw(`<header class="site-header" style="display: flex; justify-content: space-between; align-items: center;">`, "\n")
		w.raw(`  <h1 style="margin: 0;"><a href="/">Blog Admin</a></h1>`, "\n")
		w.raw(`  <form method="post" action="/admin/logout">`, "\n")
		csrfInput(w, p.CSRFToken)
		w.raw(`    <button type="submit" class="btn btn-danger">Logout</button>`, "\n  </form>\n</header>\n")

		w.raw(`<nav class="tabs">`, "\n")
		for _, tab := range p.Tabs {
			w.raw(`  <a href="?tab=`)
			w.text(tab.ID)
			w.raw(`"`)
			if tab.Active {
				w.raw(` class="active"`)
			}
			w.raw(">")
			w.text(tab.Name)
			w.raw("</a>\n")
		}
		w.raw("</nav>\n")
		if p.Flash != "" {
			w.raw(`<div class="flash">`)
			w.text(p.Flash)
			w.raw("</div>\n")
		}

		w.raw("<section>\n")
		switch p.Tab {
		case TabCreate:
			w.render(editor(nil))
		case TabEdit:
			if p.Editor != nil {
				w.render(editor(p.Editor))
			} else {
				w.render(editList(p.Posts))
			}
		case TabSettings:
			w.render(settingsTab(p.Settings))
		case TabDebug:
			w.render(debugTab(p.Debug))
		default:
			w.render(dashboardTab(p.Dashboard))
		}
		w.raw("</section>\n")
	})
}

func dashboardTab(d Dashboard) templ.Component {
	return component(func(w *writer) {
		w.raw(`<div class="stats">`, "\n")
		for _, stat := range []struct {
			n     int
			label string
		}{
			{d.TotalPosts, "Posts"},
			{d.ActiveSessions, "Active sessions"},
			{d.SecurityEvents, "Security events (7 days)"},
		} {
			w.raw(`  <div class="stat"><strong>`)
			w.num(stat.n)
			w.raw("</strong>", stat.label, "</div>\n")
		}
		w.raw("</div>\n")

		if l := d.Latest; l != nil {
			w.raw("<h3>Latest post</h3>\n", `<p><a href="`)
			w.url(postPath(l.Slug))
			w.raw(`">`)
			w.text(l.Title)
			w.raw(`</a><br>`, "\n", `<span class="meta"><strong>Published:</strong> `)
			w.text(date(l.CreatedAt))
			w.raw("</span></p>\n")
		}
		w.raw(`<p><a class="btn" href="?tab=create">Write a new post</a></p>`, "\n")

		if len(d.Images) == 0 {
			return
		}
		w.raw("<h3>Recent uploads</h3>\n<table>\n  <tr><th>File</th><th>Size</th><th>Uploaded</th></tr>\n")
		for _, img := range d.Images {
			w.raw(`  <tr><td><a href="`)
			w.url(img.URL)
			w.raw(`">`)
			w.text(img.OriginalName)
			w.raw("</a></td><td>")
			w.num(img.Width)
			w.raw("&times;")
			w.num(img.Height)
			w.raw("</td><td>")
			w.text(dateTime(img.UploadedAt))
			w.raw("</td></tr>\n")
		}
		w.raw("</table>\n")
	})
}

// editor is the create form when e is nil and the edit form otherwise.
func editor(e *Editor) templ.Component {
	return component(func(w *writer) {
		var title, content, slug string
		if e != nil {
			title, content, slug = e.Title, e.Content, e.Slug
		}
		w.raw(`<form id="post-form"`)
		if slug != "" {
			w.raw(` data-slug="`)
			w.text(slug)
			w.raw(`"`)
		}
		w.raw(">\n")
		if slug != "" {
			w.raw(`  <p class="meta">Created: `)
			w.text(date(e.CreatedAt))
			w.raw(" | Slug: ")
			w.text(slug)
			w.raw("</p>\n")
		}
		w.raw(`  <label for="title">Title</label>`, "\n")
		w.raw(`  <input type="text" id="title" name="title" maxlength="200" required value="`)
		w.text(title)
		w.raw("\">\n", `  <label for="content">Content (HTML)</label>`, "\n")
		w.raw(`  <textarea id="content" name="content" required>`)
		w.text(content)
		w.raw("</textarea>\n", `  <label for="image-upload">Insert image</label>`, "\n")
		w.raw(`  <input type="file" id="image-upload" accept="image/jpeg,image/png,image/webp,image/gif">`, "\n  <p>\n")
		if slug != "" {
			w.raw(`    <button type="submit" class="btn">Update post</button>`, "\n")
			w.raw(`    <button type="button" class="btn btn-danger" data-delete-slug="`)
			w.text(slug)
			w.raw("\">Delete</button>\n")
		} else {
			w.raw(`    <button type="submit" class="btn">Publish post</button>`, "\n")
		}
		w.raw("  </p>\n", `  <div id="post-status" class="status" role="status"></div>`, "\n</form>\n")
	})
}

func editList(posts []PostSummary) templ.Component {
	return component(func(w *writer) {
		if len(posts) == 0 {
			w.raw(`<p class="meta">No posts yet.</p>`, "\n")
		} else {
			w.raw("<table>\n  <tr><th>Title</th><th>Created</th><th></th></tr>\n")
			for _, p := range posts {
				w.raw("  <tr>\n", `    <td><a href="`)
				w.url(postPath(p.Slug))
				w.raw(`">`)
				w.text(p.Title)
				w.raw("</a></td>\n", `    <td class="meta">`)
				w.text(date(p.CreatedAt))
				if p.UpdatedAt != nil {
					w.raw(" (updated ")
					w.text(date(*p.UpdatedAt))
					w.raw(")")
				}
				w.raw("</td>\n    <td>\n", `      <a class="btn btn-secondary" href="?tab=edit&amp;slug=`)
				w.text(url.QueryEscape(p.Slug))
				w.raw(`">Edit</a>`, "\n", `      <button type="button" class="btn btn-danger" data-delete-slug="`)
				w.text(p.Slug)
				w.raw("\">Delete</button>\n    </td>\n  </tr>\n")
			}
			w.raw("</table>\n")
		}
		w.raw(`<div id="post-status" class="status" role="status"></div>`, "\n")
	})
}

// field is one labelled input of the settings form. Name is the dotted JSON
// path admin.js uses to rebuild the settings object.
type field struct {
	id, name, label, kind, value, pattern string
}

func settingsTab(s SettingsForm) templ.Component {
	const hex = "#[0-9A-Fa-f]{6}"
	groups := []struct {
		title  string
		fields []field
	}{
		{"Blog", []field{
			{"defaultTitle", "blog.defaultTitle", "Default title", "text", s.DefaultTitle, ""},
			{"defaultDescription", "blog.defaultDescription", "Default description", "text", s.DefaultDescription, ""},
			{"defaultAuthor", "blog.defaultAuthor", "Author", "text", s.DefaultAuthor, ""},
		}},
		{"Theme", []field{
			{"primaryColor", "theme.primaryColor", "Primary color", "text", s.PrimaryColor, hex},
			{"accentColor", "theme.accentColor", "Accent color", "text", s.AccentColor, hex},
		}},
		{"Social", []field{
			{"twitter", "social.twitter", "Twitter URL", "url", s.Twitter, ""},
			{"linkedin", "social.linkedin", "LinkedIn URL", "url", s.LinkedIn, ""},
			{"github", "social.github", "GitHub URL", "url", s.GitHub, ""},
		}},
		{"SEO", []field{
			{"keywords", "seo.keywords", "Keywords", "text", s.Keywords, ""},
			{"ogImage", "seo.ogImage", "Open Graph image", "text", s.OGImage, ""},
		}},
	}

	return component(func(w *writer) {
		w.raw(`<form id="settings-form">`, "\n")
		for i, g := range groups {
			w.raw("  <h3>", g.title, "</h3>\n")
			for _, f := range g.fields {
				w.raw(`  <label for="`, f.id, `">`, f.label, "</label>\n")
				w.raw(`  <input type="`, f.kind, `" id="`, f.id, `" name="`, f.name, `" value="`)
				w.text(f.value)
				w.raw(`"`)
				if f.pattern != "" {
					w.raw(` pattern="`, f.pattern, `"`)
				}
				w.raw(">\n")
			}
			if i == 0 {
				w.raw(`  <label for="domains">Per-domain overrides (JSON)</label>`, "\n")
				w.raw(`  <textarea id="domains" name="domains" style="min-height: 100px;">`)
				w.text(s.DomainsJSON)
				w.raw("</textarea>\n")
			}
		}
		w.raw(`  <p><button type="submit" class="btn">Save settings</button></p>`, "\n")
		w.raw(`  <div id="settings-status" class="status" role="status"></div>`, "\n</form>\n")
	})
}

var debugButtons = []struct {
	path, label, method, confirm string
}{
	{"/api/test", "System test", "", ""},
	{"/api/debug/security", "Security", "", ""},
	{"/api/debug/session", "Session", "", ""},
	{"/api/debug/performance", "Performance", "", ""},
	{"/api/debug/clear-sessions", "Clear all sessions", "POST", "Log out every session, including this one?"},
}

func debugTab(d Debug) templ.Component {
	return component(func(w *writer) {
		w.raw("<table>\n")
		for _, row := range [][2]string{
			{"Session expires", dateTime(d.SessionExpires)},
			{"Session IP", d.SessionIP},
			{"KV driver", d.KVDriver},
			{"Blob driver", d.BlobDriver},
		} {
			w.raw("  <tr><th>", row[0], "</th><td>")
			w.text(row[1])
			w.raw("</td></tr>\n")
		}
		w.raw("</table>\n<p>\n")
		for _, b := range debugButtons {
			class := "btn"
			if b.method != "" {
				class = "btn btn-danger"
			}
			w.raw(`  <button type="button" class="`, class, `" data-debug="`, b.path, `"`)
			if b.method != "" {
				w.raw(` data-method="`, b.method, `" data-confirm="`)
				w.text(b.confirm)
				w.raw(`"`)
			}
			w.raw(">", b.label, "</button>\n")
		}
		w.raw("</p>\n", `<pre id="debug-output" class="output"></pre>`, "\n<h3>Recent security events</h3>\n")

		if len(d.Events) == 0 {
			w.raw(`<p class="meta">No security events recorded.</p>`, "\n")
			return
		}
		w.raw("<table>\n  <tr><th>When</th><th>Kind</th><th>Detail</th><th>IP</th></tr>\n")
		for _, ev := range d.Events {
			detail := ev.Reason
			if detail == "" {
				detail = ev.Action
			}
			w.raw("  <tr><td>")
			w.text(dateTime(ev.Timestamp))
			w.raw("</td><td>")
			w.text(ev.Kind)
			w.raw("</td><td>")
			w.text(detail)
			w.raw("</td><td>")
			w.text(ev.IPAddress)
			w.raw("</td></tr>\n")
		}
		w.raw("</table>\n")
	})
}
