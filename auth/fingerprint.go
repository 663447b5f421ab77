package auth

import (
	"encoding/hex"
	"net/http"
)

// Fingerprint derives a browser fingerprint from the User-Agent,
// Accept-Language and Accept-Encoding headers: the lowercase hex of
// "UA|AL|AE". It returns "" when the User-Agent is missing so that such
// requests never match a stored session.
//
// This is a tripwire for stolen cookies replayed from another browser, not
// a secret. Anyone who can read the headers can recompute it.
func Fingerprint(h http.Header) string {
	ua := h.Get("User-Agent")
	if ua == "" {
		return ""
	}
	return hex.EncodeToString([]byte(ua + "|" + h.Get("Accept-Language") + "|" + h.Get("Accept-Encoding")))
}
