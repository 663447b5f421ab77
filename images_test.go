package edgeblog

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/edgeblog/blob"
	"github.com/eringen/edgeblog/blob/local"
	"github.com/eringen/edgeblog/kv/memory"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func fileHeader(t *testing.T, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()
	body, ct := multipartImage(t, filename, contentType, data)
	r := httptest.NewRequest(http.MethodPost, "/", body)
	r.Header.Set("Content-Type", ct)
	require.NoError(t, r.ParseMultipartForm(32<<20))
	return r.MultipartForm.File["image"][0]
}

func newImageService(t *testing.T) *ImageService {
	t.Helper()
	blobs, err := local.New(t.TempDir())
	require.NoError(t, err)
	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })
	s := NewImageService(blobs, store, "local", nil)
	s.now = func() time.Time { return time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestImageUpload(t *testing.T) {
	s := newImageService(t)
	ctx := context.Background()

	rec, err := s.Upload(ctx, fileHeader(t, "Holiday Photo.PNG", "image/png", testPNG(t)))
	require.NoError(t, err)
	assert.Regexp(t, `^1738368000000-[0-9a-f]{12}\.png$`, rec.Filename)
	assert.Equal(t, "Holiday Photo.PNG", rec.OriginalName)
	assert.Equal(t, 4, rec.Width)
	assert.Equal(t, 3, rec.Height)
	assert.Equal(t, "local", rec.StorageType)

	obj, err := s.Open(ctx, rec.Filename)
	require.NoError(t, err)
	defer obj.Body.Close()
	data, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, testPNG(t), data)
	assert.Equal(t, "image/png", obj.Meta.ContentType)
	assert.Equal(t, "Holiday Photo.PNG", obj.Meta.Custom["original-name"])

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rec.Filename, list[0].Filename)
}

func TestImageUploadRejects(t *testing.T) {
	s := newImageService(t)
	ctx := context.Background()

	_, err := s.Upload(ctx, nil)
	assert.ErrorIs(t, err, ErrNoImage)

	_, err = s.Upload(ctx, fileHeader(t, "a.svg", "image/svg+xml", []byte("<svg/>")))
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = s.Upload(ctx, fileHeader(t, "a.png", "image/png", []byte("plain text")))
	assert.ErrorIs(t, err, ErrUndecodable)

	// Declared as JPEG, actually PNG.
	_, err = s.Upload(ctx, fileHeader(t, "a.jpg", "image/jpeg", testPNG(t)))
	assert.ErrorIs(t, err, ErrUndecodable)

	big := append(testPNG(t), make([]byte, maxUploadSize)...)
	_, err = s.Upload(ctx, fileHeader(t, "big.png", "image/png", big))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestSecureFilenameExtension(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	tests := []struct {
		original, contentType, ext string
	}{
		{"photo.jpeg", "image/jpeg", ".jpeg"},
		{"photo.exe", "image/png", ".png"},
		{"noext", "image/jpg", ".jpg"},
		{"anim.GIF", "image/gif", ".gif"},
	}
	for _, tt := range tests {
		name, err := secureFilename(tt.original, tt.contentType, now)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(name, "1700000000000-"), name)
		assert.True(t, strings.HasSuffix(name, tt.ext), "%s -> %s", tt.original, name)
		assert.NoError(t, ValidateImageName(name))
	}
}

func TestValidateImageName(t *testing.T) {
	valid := []string{"1700000000000-abcdef012345.png", "a.JPG", "x_y-z.webp"}
	for _, name := range valid {
		assert.NoError(t, ValidateImageName(name), name)
	}
	invalid := []string{"", "../etc/passwd.png", "a..png", "a b.png", "a.txt", "a/b.png", strings.Repeat("a", 252) + ".png"}
	for _, name := range invalid {
		assert.ErrorIs(t, ValidateImageName(name), ErrBadImageName, name)
	}
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "image/webp", ContentTypeFor("a.png", blob.Meta{ContentType: "image/webp"}))
	assert.Equal(t, "image/gif", ContentTypeFor("a.png", blob.Meta{Custom: map[string]string{"content-type": "image/gif"}}))
	assert.Equal(t, "image/png", ContentTypeFor("a.png", blob.Meta{}))
	assert.Equal(t, "image/jpeg", ContentTypeFor("a.bin", blob.Meta{}))
}

func TestTransformOptions(t *testing.T) {
	tests := []struct {
		query string
		want  string
		err   bool
	}{
		{"", "", false},
		{"width=800", "width=800", false},
		{"format=AVIF&quality=80&height=600", "height=600,quality=80,format=avif", false},
		{"width=0", "", true},
		{"width=abc", "", true},
		{"quality=101", "", true},
		{"format=bmp", "", true},
	}
	for _, tt := range tests {
		q, err := url.ParseQuery(tt.query)
		require.NoError(t, err)
		got, err := TransformOptions(q)
		if tt.err {
			assert.True(t, errors.Is(err, ErrBadTransform), tt.query)
			continue
		}
		require.NoError(t, err, tt.query)
		assert.Equal(t, tt.want, got)
	}
}
