package edgeblog

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const maxSlugLen = 100

// Slugify converts a title to a URL-safe slug. Only ASCII letters, digits,
// whitespace and hyphens survive; whitespace and hyphen runs become a single
// hyphen. The result never contains "_", which keeps slugs disjoint from
// reserved keys.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	sep := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if sep && b.Len() > 0 {
				b.WriteByte('-')
			}
			sep = false
			b.WriteRune(r)
		case r == '-' || unicode.IsSpace(r):
			sep = true
		}
	}
	return b.String()
}

// ValidateSlug checks a slug taken from a request path.
func ValidateSlug(slug string) error {
	switch {
	case slug == "":
		return ErrInvalidSlug
	case strings.Contains(slug, ".."), strings.ContainsAny(slug, `/\`):
		return ErrInvalidSlug
	case len(slug) > maxSlugLen:
		return ErrInvalidSlug
	}
	return nil
}

// BuildURL joins a base URL with path segments.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join("/", u.Path, path.Join(pathSegments...))
	return u.String()
}

// PostURL returns the canonical URL of a post.
func PostURL(base, slug string) string {
	return BuildURL(base, "post", slug)
}

var stripPolicy = bluemonday.StrictPolicy()

// Excerpt returns the first n characters of the post's text with markup removed.
func Excerpt(content string, n int) string {
	text := strings.Join(strings.Fields(stripPolicy.Sanitize(content)), " ")
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	cut := strings.TrimRightFunc(string(runes[:n]), unicode.IsSpace)
	return cut + "…"
}

// BlogPostingJsonLD returns a JSON-LD string for a BlogPosting schema.
func BlogPostingJsonLD(post Post, siteURL, siteName, author string) string {
	postURL := PostURL(siteURL, post.Slug)
	data := map[string]interface{}{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      post.Title,
		"description":   Excerpt(post.Content, 160),
		"datePublished": post.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		"url":           postURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if post.UpdatedAt != nil {
		data["dateModified"] = post.UpdatedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	if author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  author,
		}
	}
	if siteName != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  siteName,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
