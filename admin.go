package edgeblog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/edgeblog/auth"
	"github.com/eringen/edgeblog/views"
)

const (
	dashboardImages = 5
	debugEvents     = 20
)

func (a *App) handleLoginForm(c echo.Context) error {
	if a.check(c).Authenticated {
		return c.Redirect(http.StatusSeeOther, AdminPanelPath)
	}
	return Render(c, a.Views.Login(a.site(c), views.LoginForm{
		CSRFToken: CsrfToken(c),
		Notice:    popFlash(c),
	}))
}

func (a *App) handleLogin(c echo.Context) error {
	ctx := c.Request().Context()
	site := a.site(c)
	form := views.LoginForm{CSRFToken: CsrfToken(c)}

	if !auth.CheckPassword(a.Config.AdminPassword, c.FormValue("password")) {
		a.Log.Warn("admin login failed", "ip", a.clientIP(c.Request()))
		form.Error = "Invalid password"
		return Render(c, a.Views.Login(site, form))
	}

	cookie, sess, err := a.Gate.Login(ctx, c.Request())
	if errors.Is(err, auth.ErrBrowserVerification) {
		form.Error = "Browser verification failed"
		return RenderStatus(c, http.StatusBadRequest, a.Views.Login(site, form))
	}
	if err != nil {
		return err
	}
	a.Log.Info("admin login", "ip", sess.IPAddress, "expires", sess.Expires)
	c.SetCookie(cookie)
	return c.Redirect(http.StatusSeeOther, AdminPanelPath)
}

// handleLogout is not gated: ending a session that is already gone is a no-op.
func (a *App) handleLogout(c echo.Context) error {
	c.SetCookie(a.Gate.Logout(c.Request().Context(), c.Request()))
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) handleAdminPanel(c echo.Context) error {
	ctx := c.Request().Context()
	panel := views.AdminPanel{
		Tab:       views.NormalizeTab(c.QueryParam("tab")),
		CSRFToken: CsrfToken(c),
		Flash:     popFlash(c),
	}

	switch panel.Tab {
	case views.TabDashboard:
		d, err := a.dashboard(c)
		if err != nil {
			return err
		}
		panel.Dashboard = d

	case views.TabEdit:
		if slug := c.QueryParam("slug"); slug != "" {
			post, err := a.Posts.Get(ctx, slug)
			switch {
			case err == nil:
				panel.Editor = &views.Editor{
					Slug:      post.Slug,
					Title:     post.Title,
					Content:   post.Content,
					CreatedAt: post.CreatedAt,
				}
			case errors.Is(err, ErrPostNotFound):
				panel.Flash = "Post not found: " + slug
			default:
				return err
			}
		}
		if panel.Editor == nil {
			posts, err := a.Posts.List(ctx)
			if err != nil {
				return err
			}
			panel.Posts = summaries(posts)
		}

	case views.TabSettings:
		form, err := settingsForm(a.Settings.Get(ctx))
		if err != nil {
			return err
		}
		panel.Settings = form

	case views.TabDebug:
		d, err := a.debugInfo(c)
		if err != nil {
			return err
		}
		panel.Debug = d
	}

	return Render(c, a.Views.Admin(a.site(c), panel))
}

func (a *App) dashboard(c echo.Context) (views.Dashboard, error) {
	ctx := c.Request().Context()
	var d views.Dashboard

	posts, err := a.Posts.List(ctx)
	if err != nil {
		return d, err
	}
	d.TotalPosts = len(posts)
	if len(posts) > 0 {
		latest := summaries(posts[:1])[0]
		d.Latest = &latest
	}
	if d.ActiveSessions, err = a.Sessions.Count(ctx); err != nil {
		return d, err
	}
	if d.SecurityEvents, err = a.Events.Count(ctx); err != nil {
		return d, err
	}

	images, err := a.Images.List(ctx)
	if err != nil {
		return d, err
	}
	if len(images) > dashboardImages {
		images = images[:dashboardImages]
	}
	for _, img := range images {
		d.Images = append(d.Images, views.ImageSummary{
			URL:          "/images/" + img.Filename,
			OriginalName: img.OriginalName,
			UploadedAt:   img.UploadedAt,
			Width:        img.Width,
			Height:       img.Height,
		})
	}
	return d, nil
}

func settingsForm(st Settings) (views.SettingsForm, error) {
	domains, err := json.MarshalIndent(st.Domains, "", "  ")
	if err != nil {
		return views.SettingsForm{}, err
	}
	return views.SettingsForm{
		DefaultTitle:       st.Blog.DefaultTitle,
		DefaultDescription: st.Blog.DefaultDescription,
		DefaultAuthor:      st.Blog.DefaultAuthor,
		PrimaryColor:       st.Theme.PrimaryColor,
		AccentColor:        st.Theme.AccentColor,
		Twitter:            st.Social.Twitter,
		LinkedIn:           st.Social.LinkedIn,
		GitHub:             st.Social.GitHub,
		Keywords:           st.SEO.Keywords,
		OGImage:            st.SEO.OGImage,
		DomainsJSON:        string(domains),
	}, nil
}

func (a *App) debugInfo(c echo.Context) (views.Debug, error) {
	ctx := c.Request().Context()
	d := views.Debug{
		KVDriver:   a.Config.KVDriver,
		BlobDriver: a.Config.BlobDriver,
	}
	if sess, err := a.Gate.Session(ctx, sessionVerdict(c).SessionToken); err == nil {
		d.SessionExpires = sess.Expires
		d.SessionIP = sess.IPAddress
	}
	events, err := a.Events.Recent(ctx, debugEvents)
	if err != nil {
		return d, err
	}
	for _, ev := range events {
		d.Events = append(d.Events, views.SecurityEvent{
			Kind:      ev.Kind,
			Reason:    ev.Reason,
			Action:    ev.Action,
			IPAddress: ev.IPAddress,
			Timestamp: ev.Timestamp,
		})
	}
	return d, nil
}
