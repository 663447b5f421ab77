package auth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCookies(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   map[string]string
	}{
		{"empty", "", map[string]string{}},
		{"single", "admin_session=abc", map[string]string{"admin_session": "abc"}},
		{"several with spaces", "a=1;  b=2 ; admin_session=tok", map[string]string{"a": "1", "b": "2", "admin_session": "tok"}},
		{"value containing equals", "x=a=b==", map[string]string{"x": "a=b=="}},
		{"part without equals ignored", "flag; a=1", map[string]string{"a": "1"}},
		{"empty name ignored", "=v; a=1", map[string]string{"a": "1"}},
		{"quotes kept", `a="q"`, map[string]string{"a": `"q"`}},
		{"last wins", "a=1; a=2", map[string]string{"a": "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCookies(tt.header))
		})
	}
}

func TestFingerprint(t *testing.T) {
	h := http.Header{}
	assert.Empty(t, Fingerprint(h), "no user agent")

	h.Set("User-Agent", "UA")
	h.Set("Accept-Language", "en")
	h.Set("Accept-Encoding", "gzip")
	// hex("UA|en|gzip")
	assert.Equal(t, "55417c656e7c677a6970", Fingerprint(h))

	h2 := h.Clone()
	assert.Equal(t, Fingerprint(h), Fingerprint(h2))

	h2.Set("Accept-Language", "de")
	assert.NotEqual(t, Fingerprint(h), Fingerprint(h2))
}

func TestPassword(t *testing.T) {
	assert.True(t, CheckPassword("hunter2", "hunter2"))
	assert.False(t, CheckPassword("hunter2", "hunter3"))
	assert.False(t, CheckPassword("", ""))

	hash, err := HashPassword("s3cret")
	assert.NoError(t, err)
	assert.True(t, IsBcryptHash(hash))
	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
