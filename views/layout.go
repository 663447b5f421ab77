package views

import "github.com/a-h/templ"

// layout wraps body in the document shell: head metadata, theme colours and
// the optional page script.
func layout(site Site, meta PageMeta, body templ.Component) templ.Component {
	return component(func(w *writer) {
		w.raw(`<!DOCTYPE html>`, "\n", `<html lang="en">`, "\n<head>\n")
		w.raw(`<meta charset="utf-8">`, "\n")
		w.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`, "\n")
		w.raw("<title>")
		w.text(meta.Title)
		w.raw("</title>\n")
		if meta.Description != "" {
			w.raw(`<meta name="description" content="`)
			w.text(meta.Description)
			w.raw("\">\n")
		}
		if meta.NoIndex {
			w.raw(`<meta name="robots" content="noindex, nofollow">`, "\n")
		} else if site.Keywords != "" {
			w.raw(`<meta name="keywords" content="`)
			w.text(site.Keywords)
			w.raw("\">\n")
		}
		if meta.URL != "" {
			w.raw(`<link rel="canonical" href="`)
			w.url(meta.URL)
			w.raw("\">\n", `<meta property="og:url" content="`)
			w.url(meta.URL)
			w.raw("\">\n")
		}
		w.raw(`<meta property="og:title" content="`)
		w.text(meta.Title)
		w.raw("\">\n", `<meta property="og:type" content="`)
		if meta.OGType == "" {
			meta.OGType = "website"
		}
		w.text(meta.OGType)
		w.raw("\">\n")
		if site.OGImage != "" {
			w.raw(`<meta property="og:image" content="`)
			w.url(site.OGImage)
			w.raw("\">\n")
		}
		w.raw(`<link rel="alternate" type="application/rss+xml" title="`)
		w.text(site.Title)
		w.raw(`" href="/feed.xml">`, "\n")
		if meta.JSONLD != "" {
			w.raw(`<script type="application/ld+json">`, meta.JSONLD, "</script>\n")
		}
		w.raw("<style>\n:root { --primary: ")
		w.text(site.PrimaryColor)
		w.raw("; --accent: ")
		w.text(site.AccentColor)
		w.raw("; }\n", stylesheet, "</style>\n</head>\n<body>\n")
		w.render(body)
		if meta.Script != "" {
			w.raw(`<script src="`)
			w.url(meta.Script)
			w.raw(`" defer></script>`, "\n")
		}
		w.raw("</body>\n</html>\n")
	})
}

func siteHeader(site Site) templ.Component {
	return component(func(w *writer) {
		w.raw(`<header class="site-header">`, "\n", `  <h1><a href="/">`)
		w.text(site.Title)
		w.raw("</a></h1>\n")
		if site.Description != "" {
			w.raw(`  <p class="meta">`)
			w.text(site.Description)
			w.raw("</p>\n")
		}
		w.raw("</header>\n")
	})
}

func siteFooter(site Site) templ.Component {
	return component(func(w *writer) {
		w.raw(`<footer class="site-footer">`, "\n  <p>&copy; ")
		w.text(site.Author)
		w.raw(` &middot; <a href="/feed.xml">RSS</a>`)
		for _, link := range []struct{ url, name string }{
			{site.Social.Twitter, "Twitter"},
			{site.Social.LinkedIn, "LinkedIn"},
			{site.Social.GitHub, "GitHub"},
		} {
			if link.url == "" {
				continue
			}
			w.raw(` &middot; <a href="`)
			w.url(link.url)
			w.raw(`" rel="me">`, link.name, "</a>")
		}
		w.raw("</p>\n</footer>\n")
	})
}

const stylesheet = `* { box-sizing: border-box; }
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; line-height: 1.6; max-width: 860px; margin: 0 auto; padding: 20px; color: #333; }
a { color: var(--primary); }
h1, h2, h3 { color: var(--accent); }
.site-header { border-bottom: 2px solid #eee; padding-bottom: 16px; margin-bottom: 32px; }
.site-header h1 a { color: inherit; text-decoration: none; }
.post-card { border-bottom: 1px solid #eee; padding: 16px 0; }
.post-card h2 { margin: 0 0 4px; }
.meta { color: #777; font-size: 0.9em; }
.post-content img { max-width: 100%; height: auto; }
.post-content pre { background: #f6f8fa; padding: 12px; overflow-x: auto; }
.site-footer { border-top: 1px solid #eee; margin-top: 48px; padding-top: 16px; color: #777; font-size: 0.9em; }
.btn { background: var(--primary); color: #fff; border: none; border-radius: 4px; padding: 8px 16px; cursor: pointer; text-decoration: none; display: inline-block; }
.btn-danger { background: #e74c3c; }
.btn-secondary { background: #6c757d; }
.tabs { display: flex; border-bottom: 1px solid #ddd; margin-bottom: 24px; flex-wrap: wrap; }
.tabs a { padding: 10px 18px; border: 1px solid #ddd; border-bottom: none; background: #f8f9fa; color: #6c757d; text-decoration: none; }
.tabs a.active { background: #fff; color: var(--accent); border-bottom: 2px solid var(--primary); }
.stats { display: grid; grid-template-columns: repeat(auto-fit, minmax(160px, 1fr)); gap: 16px; margin-bottom: 24px; }
.stat { background: #f8f9fa; border-radius: 6px; padding: 16px; text-align: center; }
.stat strong { display: block; font-size: 1.8em; color: var(--accent); }
label { display: block; font-weight: 600; margin: 12px 0 4px; }
input[type=text], input[type=password], input[type=url], textarea { width: 100%; padding: 8px; border: 1px solid #ccc; border-radius: 4px; font: inherit; }
textarea { min-height: 320px; font-family: ui-monospace, monospace; }
.flash { padding: 10px 14px; border-radius: 4px; margin-bottom: 16px; background: #fff3cd; border: 1px solid #ffe69c; }
.error { color: #b02a37; }
.status { margin-top: 12px; }
.status.success { color: #146c43; }
.status.error { color: #b02a37; }
pre.output { background: #1e1e1e; color: #d4d4d4; padding: 12px; min-height: 80px; white-space: pre-wrap; }
table { width: 100%; border-collapse: collapse; }
td, th { border-bottom: 1px solid #eee; padding: 6px; text-align: left; }
`
