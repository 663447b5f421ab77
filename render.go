package edgeblog

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/edgeblog/views"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
// The component is rendered to a buffer first so a template error still
// reaches the error handler before anything is sent.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	var buf bytes.Buffer
	if err := cmp.Render(c.Request().Context(), &buf); err != nil {
		return err
	}
	return c.HTMLBlob(code, buf.Bytes())
}

// jsonError writes {"error": msg}.
func jsonError(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

// site resolves blog-wide settings for the request host.
func (a *App) site(c echo.Context) views.Site {
	st := a.Settings.Get(c.Request().Context())
	host := requestHost(c.Request())
	return views.Site{
		Title:        st.TitleForHost(host),
		Description:  st.DescriptionForHost(host),
		Author:       st.Blog.DefaultAuthor,
		URL:          a.Config.SiteURL,
		Keywords:     st.SEO.Keywords,
		OGImage:      st.SEO.OGImage,
		PrimaryColor: safeColor(st.Theme.PrimaryColor, DefaultSettings().Theme.PrimaryColor),
		AccentColor:  safeColor(st.Theme.AccentColor, DefaultSettings().Theme.AccentColor),
		Social: views.Social{
			Twitter:  st.Social.Twitter,
			LinkedIn: st.Social.LinkedIn,
			GitHub:   st.Social.GitHub,
		},
	}
}

// safeColor only lets validated hex colours into the stylesheet.
func safeColor(v, def string) string {
	if !hexColorRe.MatchString(v) {
		return def
	}
	return v
}

func requestHost(r *http.Request) string {
	host := r.Host
	if i := strings.LastIndex(host, ":"); i > 0 && !strings.HasSuffix(host, "]") {
		host = host[:i]
	}
	return strings.ToLower(host)
}
