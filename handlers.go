package edgeblog

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/edgeblog/blob"
	"github.com/eringen/edgeblog/views"
)

const excerptLen = 200

func (a *App) handleHome(c echo.Context) error {
	posts, err := a.Posts.List(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, a.Views.Home(a.site(c), summaries(posts)))
}

func summaries(posts []Post) []views.PostSummary {
	out := make([]views.PostSummary, 0, len(posts))
	for _, p := range posts {
		out = append(out, views.PostSummary{
			Title:     p.Title,
			Slug:      p.Slug,
			Excerpt:   Excerpt(p.Content, excerptLen),
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		})
	}
	return out
}

func (a *App) handlePost(c echo.Context) error {
	site := a.site(c)
	slug := c.Param("slug")
	if err := ValidateSlug(slug); err != nil {
		return RenderStatus(c, http.StatusBadRequest, a.Views.Error(site, views.ErrorPage{
			Status:  http.StatusBadRequest,
			Title:   "Invalid URL",
			Message: "The requested URL is not valid.",
		}))
	}
	post, err := a.Posts.Get(c.Request().Context(), slug)
	if errors.Is(err, ErrPostNotFound) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(site))
	}
	if err != nil {
		return err
	}

	return Render(c, a.Views.Post(site, views.PostPage{
		Meta: views.PageMeta{
			Title:       post.Title + " | " + site.Title,
			Description: Excerpt(post.Content, 160),
			URL:         PostURL(a.Config.SiteURL, post.Slug),
			OGType:      "article",
			JSONLD:      BlogPostingJsonLD(post, a.Config.SiteURL, site.Title, site.Author),
		},
		Title:     post.Title,
		Slug:      post.Slug,
		Content:   a.sanitizer.Sanitize(post.Content),
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}))
}

// apiError maps domain errors to JSON responses. Anything unrecognised goes
// to the error handler as a 500.
func apiError(c echo.Context, err error) error {
	var ve *ValidationError
	var ce *ConflictError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, map[string]any{
			"error":   "Validation failed",
			"details": ve.Details,
		})
	case errors.As(err, &ce):
		return c.JSON(http.StatusConflict, map[string]string{
			"error":           "A post with this title already exists",
			"conflictingSlug": ce.Slug,
		})
	case errors.Is(err, ErrPostNotFound):
		return jsonError(c, http.StatusNotFound, "Post not found")
	case errors.Is(err, ErrInvalidSlug):
		return jsonError(c, http.StatusBadRequest, "Invalid slug")
	}
	return err
}

func (a *App) handleListPosts(c echo.Context) error {
	posts, err := a.Posts.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

func (a *App) handleGetPost(c echo.Context) error {
	slug := c.Param("slug")
	if err := ValidateSlug(slug); err != nil {
		return apiError(c, err)
	}
	post, err := a.Posts.Get(c.Request().Context(), slug)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, post)
}

func bindPostInput(c echo.Context) (PostInput, error) {
	var in PostInput
	if err := c.Bind(&in); err != nil {
		return in, &ValidationError{Details: []string{"request body must be a JSON object with title and content"}}
	}
	return in, nil
}

func (a *App) handleCreatePost(c echo.Context) error {
	in, err := bindPostInput(c)
	if err != nil {
		return apiError(c, err)
	}
	post, err := a.Posts.Create(c.Request().Context(), in)
	if err != nil {
		return apiError(c, err)
	}
	a.Log.Info("post created", "slug", post.Slug)
	return c.JSON(http.StatusOK, map[string]any{"success": true, "slug": post.Slug})
}

func (a *App) handleUpdatePost(c echo.Context) error {
	slug := c.Param("slug")
	if err := ValidateSlug(slug); err != nil {
		return apiError(c, err)
	}
	in, err := bindPostInput(c)
	if err != nil {
		return apiError(c, err)
	}
	post, err := a.Posts.Update(c.Request().Context(), slug, in, a.clientIP(c.Request()))
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "slug": post.Slug})
}

func (a *App) handleDeletePost(c echo.Context) error {
	slug := c.Param("slug")
	if err := ValidateSlug(slug); err != nil {
		return apiError(c, err)
	}
	if err := a.Posts.Delete(c.Request().Context(), slug, a.clientIP(c.Request())); err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

func (a *App) handleGetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, a.Settings.Get(c.Request().Context()))
}

func (a *App) handleSaveSettings(c echo.Context) error {
	var st Settings
	if err := c.Bind(&st); err != nil {
		return apiError(c, &ValidationError{Details: []string{"request body must be a JSON settings object"}})
	}
	if err := a.Settings.Save(c.Request().Context(), st); err != nil {
		return apiError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"settings": a.Settings.Get(c.Request().Context()),
	})
}

func (a *App) handleUpload(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "No file provided")
	}
	rec, err := a.Images.Upload(c.Request().Context(), fh)
	switch {
	case errors.Is(err, ErrNoImage):
		return jsonError(c, http.StatusBadRequest, "No file provided")
	case errors.Is(err, ErrInvalidImage):
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error":   "Invalid file type or size",
			"details": "Only JPEG, PNG, WebP, and GIF files under 10MB are allowed",
		})
	case errors.Is(err, ErrUndecodable):
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error":   "Invalid file type or size",
			"details": "The file content is not a readable JPEG, PNG, WebP or GIF image",
		})
	case err != nil:
		return err
	}
	a.Log.Info("image uploaded", "filename", rec.Filename, "size", rec.Size)
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"url":     "/images/" + rec.Filename,
		"imageId": rec.Filename,
	})
}

func (a *App) handleImage(c echo.Context) error {
	name := c.Param("filename")
	if err := ValidateImageName(name); err != nil {
		return c.String(http.StatusBadRequest, "Invalid image request")
	}

	opts, err := TransformOptions(c.QueryParams())
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	obj, err := a.Images.Open(c.Request().Context(), name)
	switch {
	case errors.Is(err, blob.ErrNotFound):
		return c.String(http.StatusNotFound, "Image not found")
	case errors.Is(err, ErrBadImageName), errors.Is(err, blob.ErrInvalidKey):
		return c.String(http.StatusBadRequest, "Invalid image request")
	case err != nil:
		return fmt.Errorf("open image %s: %w", name, err)
	}
	defer obj.Body.Close()

	// The proxy fetches the original itself, so only redirect once it exists.
	if opts != "" && a.Config.ImageTransformPrefix != "" {
		return c.Redirect(http.StatusFound, a.Config.ImageTransformPrefix+"/"+opts+"/images/"+name)
	}

	h := c.Response().Header()
	cacheControl := obj.Meta.CacheControl
	if cacheControl == "" {
		cacheControl = imageCacheControl
	}
	h.Set("Cache-Control", cacheControl)
	if obj.ETag != "" {
		h.Set("ETag", obj.ETag)
		if etagMatch(c.Request().Header.Get("If-None-Match"), obj.ETag) {
			return c.NoContent(http.StatusNotModified)
		}
	}
	if !obj.LastModified.IsZero() {
		h.Set("Last-Modified", obj.LastModified.UTC().Format(http.TimeFormat))
	}
	if obj.Size > 0 {
		h.Set(echo.HeaderContentLength, strconv.FormatInt(obj.Size, 10))
	}
	return c.Stream(http.StatusOK, ContentTypeFor(name, obj.Meta), obj.Body)
}

func etagMatch(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\n" +
		"Allow: /\n" +
		"Disallow: /api/\n" +
		"Disallow: /admin/\n\n" +
		"Sitemap: " + BuildURL(a.Config.SiteURL, "sitemap.xml") + "\n"
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	}
	req := c.Request()
	if code >= http.StatusInternalServerError {
		a.Log.Error("server error", "method", req.Method, "uri", req.RequestURI, "error", err)
		msg = "Internal server error"
	}

	if req.Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	if strings.HasPrefix(req.URL.Path, "/api/") {
		_ = jsonError(c, code, msg)
		return
	}

	site := a.site(c)
	var renderErr error
	switch {
	case code == http.StatusNotFound:
		renderErr = RenderStatus(c, code, a.Views.NotFound(site))
	case code >= http.StatusInternalServerError:
		renderErr = RenderStatus(c, code, a.Views.ServerError(site))
	default:
		renderErr = RenderStatus(c, code, a.Views.Error(site, views.ErrorPage{
			Status:  code,
			Title:   http.StatusText(code),
			Message: msg,
		}))
	}
	if renderErr != nil {
		a.Log.Error("render error page", "status", code, "error", renderErr)
		_ = c.String(code, msg)
	}
}
