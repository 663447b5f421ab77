package views

import "github.com/a-h/templ"

func homeBody(posts []PostSummary) templ.Component {
	return component(func(w *writer) {
		w.raw("<main>\n")
		if len(posts) == 0 {
			w.raw(`  <p class="meta">No posts yet. Check back soon.</p>`, "\n")
		}
		for _, p := range posts {
			w.raw(`  <article class="post-card">`, "\n", `    <h2><a href="`)
			w.url(postPath(p.Slug))
			w.raw(`">`)
			w.text(p.Title)
			w.raw("</a></h2>\n", `    <time class="meta" datetime="`)
			w.text(isoDate(p.CreatedAt))
			w.raw(`">Published: `)
			w.text(date(p.CreatedAt))
			w.raw("</time>\n")
			if p.Excerpt != "" {
				w.raw("    <p>")
				w.text(p.Excerpt)
				w.raw("</p>\n")
			}
			w.raw("  </article>\n")
		}
		w.raw("</main>\n")
	})
}

func postBody(post PostPage) templ.Component {
	return component(func(w *writer) {
		w.raw("<main>\n  <article>\n    <h1>")
		w.text(post.Title)
		w.raw("</h1>\n", `    <p class="meta"><time datetime="`)
		w.text(isoDate(post.CreatedAt))
		w.raw(`">Published: `)
		w.text(date(post.CreatedAt))
		w.raw("</time>")
		if post.UpdatedAt != nil {
			w.raw(" &middot; Updated: ")
			w.text(date(*post.UpdatedAt))
		}
		w.raw("</p>\n", `    <div class="post-content">`)
		w.render(templ.Raw(post.Content))
		w.raw("</div>\n  </article>\n", `  <p><a href="/">&larr; Back to all posts</a></p>`, "\n</main>\n")
	})
}

func loginBody(form LoginForm) templ.Component {
	return component(func(w *writer) {
		w.raw(`<main style="max-width: 380px; margin: 80px auto;">`, "\n  <h1>Admin Login</h1>\n")
		if form.Notice != "" {
			w.raw(`  <div class="flash">`)
			w.text(form.Notice)
			w.raw("</div>\n")
		}
		w.raw(`  <form method="post" action="/admin/login">`, "\n")
		csrfInput(w, form.CSRFToken)
		w.raw(`    <label for="password">Password</label>`, "\n")
		w.raw(`    <input type="password" id="password" name="password" autocomplete="current-password" required autofocus>`, "\n")
		if form.Error != "" {
			w.raw(`    <p class="error">`)
			w.text(form.Error)
			w.raw("</p>\n")
		}
		w.raw(`    <p><button type="submit" class="btn">Log in</button></p>`, "\n  </form>\n</main>\n")
	})
}

func errorBody(e ErrorPage) templ.Component {
	return component(func(w *writer) {
		w.raw(`<main style="text-align: center; padding: 48px 0;">`, "\n  <h1>")
		w.text(e.Title)
		w.raw("</h1>\n  <p>")
		w.text(e.Message)
		w.raw("</p>\n", `  <p><a class="btn" href="/">Go to homepage</a></p>`, "\n</main>\n")
	})
}

func csrfInput(w *writer, token string) {
	w.raw(`    <input type="hidden" name="_csrf" value="`)
	w.text(token)
	w.raw("\">\n")
}
