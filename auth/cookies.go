package auth

import "strings"

// ParseCookies splits a raw Cookie header into a name/value map. Parts are
// separated by ";" and split on the first "=", so values may contain "=".
// Values are taken verbatim; parts without "=" or with an empty name are
// skipped. A repeated name keeps its last value.
func ParseCookies(header string) map[string]string {
	cookies := make(map[string]string)
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		cookies[name] = strings.TrimSpace(value)
	}
	return cookies
}
