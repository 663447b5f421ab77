package edgeblog

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "golang.org/x/image/webp"

	"github.com/eringen/edgeblog/blob"
	"github.com/eringen/edgeblog/kv"
)

const (
	maxUploadSize     = 10 << 20 // 10MB
	imageKeyPrefix    = "image_"
	imageCacheControl = "public, max-age=31536000"
	maxFilenameLen    = 255
)

var (
	ErrNoImage      = errors.New("no file provided")
	ErrInvalidImage = errors.New("invalid file type or size")
	ErrUndecodable  = errors.New("file is not a readable image")
	ErrBadImageName = errors.New("invalid image request")
	ErrBadTransform = errors.New("invalid image transform")
)

// upload MIME type -> stored extension
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

var extContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// image.DecodeConfig format name per MIME type
var mimeFormats = map[string]string{
	"image/jpeg": "jpeg",
	"image/jpg":  "jpeg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

var imageNameRe = regexp.MustCompile(`^[\w.-]+$`)

// ImageRecord is the metadata kept under "image_<filename>".
type ImageRecord struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	UploadedAt   time.Time `json:"uploadedAt"`
	StorageType  string    `json:"storageType"`
	ContentType  string    `json:"contentType"`
	Size         int64     `json:"size"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
}

// ImageService stores uploads in the blob store and tracks them in the
// key-value store.
type ImageService struct {
	blobs       blob.Store
	kv          kv.Store
	storageType string
	log         *slog.Logger
	now         func() time.Time
}

func NewImageService(blobs blob.Store, store kv.Store, storageType string, log *slog.Logger) *ImageService {
	if log == nil {
		log = slog.Default()
	}
	return &ImageService{blobs: blobs, kv: store, storageType: storageType, log: log, now: time.Now}
}

// Upload validates and stores one multipart file.
func (s *ImageService) Upload(ctx context.Context, fh *multipart.FileHeader) (ImageRecord, error) {
	if fh == nil {
		return ImageRecord{}, ErrNoImage
	}
	contentType := strings.ToLower(fh.Header.Get("Content-Type"))
	if _, ok := allowedImageTypes[contentType]; !ok || fh.Size > maxUploadSize {
		return ImageRecord{}, ErrInvalidImage
	}

	src, err := fh.Open()
	if err != nil {
		return ImageRecord{}, err
	}
	defer src.Close()

	// Read one byte past the limit to catch a lying Size.
	data, err := io.ReadAll(io.LimitReader(src, maxUploadSize+1))
	if err != nil {
		return ImageRecord{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > maxUploadSize {
		return ImageRecord{}, ErrInvalidImage
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageRecord{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if mimeFormats[contentType] != format {
		return ImageRecord{}, fmt.Errorf("%w: content is %s, declared %s", ErrUndecodable, format, contentType)
	}

	now := s.now().UTC()
	filename, err := secureFilename(fh.Filename, contentType, now)
	if err != nil {
		return ImageRecord{}, err
	}

	meta := blob.Meta{
		ContentType:  contentType,
		CacheControl: imageCacheControl,
		Custom: map[string]string{
			"original-name": fh.Filename,
			"uploaded-at":   now.Format(time.RFC3339),
			"content-type":  contentType,
		},
	}
	if err := s.blobs.Put(ctx, filename, bytes.NewReader(data), int64(len(data)), meta); err != nil {
		return ImageRecord{}, fmt.Errorf("store image: %w", err)
	}

	rec := ImageRecord{
		Filename:     filename,
		OriginalName: fh.Filename,
		UploadedAt:   now,
		StorageType:  s.storageType,
		ContentType:  contentType,
		Size:         int64(len(data)),
		Width:        cfg.Width,
		Height:       cfg.Height,
	}
	s.track(ctx, rec)
	return rec, nil
}

// track records upload metadata. The image is already stored, so a failure
// here is only logged.
func (s *ImageService) track(ctx context.Context, rec ImageRecord) {
	data, err := json.Marshal(rec)
	if err == nil {
		err = s.kv.Put(ctx, imageKeyPrefix+rec.Filename, data, kv.NoTTL)
	}
	if err != nil {
		s.log.Error("track image upload", "filename", rec.Filename, "error", err)
	}
}

// Open returns the stored object for a validated filename.
func (s *ImageService) Open(ctx context.Context, filename string) (*blob.Object, error) {
	if err := ValidateImageName(filename); err != nil {
		return nil, err
	}
	return s.blobs.Get(ctx, filename)
}

// List returns tracked uploads, newest first.
func (s *ImageService) List(ctx context.Context) ([]ImageRecord, error) {
	keys, err := s.kv.List(ctx, imageKeyPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]ImageRecord, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		raw, err := s.kv.Get(ctx, keys[i])
		if err != nil {
			continue
		}
		var rec ImageRecord
		if json.Unmarshal(raw, &rec) == nil {
			out = append(out, rec)
		}
	}
	return out, nil
}

// secureFilename builds "<unixmillis>-<12 hex><ext>". The extension comes from
// the original name when it is an allowed image extension, else from the MIME
// type.
func secureFilename(original, contentType string, now time.Time) (string, error) {
	ext := strings.ToLower(filepath.Ext(original))
	if _, ok := extContentTypes[ext]; !ok {
		ext = allowedImageTypes[contentType]
	}
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + hex.EncodeToString(b) + ext, nil
}

// ValidateImageName checks a filename taken from a request path.
func ValidateImageName(name string) error {
	if name == "" || len(name) > maxFilenameLen || strings.Contains(name, "..") || !imageNameRe.MatchString(name) {
		return ErrBadImageName
	}
	if _, ok := extContentTypes[strings.ToLower(filepath.Ext(name))]; !ok {
		return ErrBadImageName
	}
	return nil
}

// ContentTypeFor picks the response content type for a stored object.
func ContentTypeFor(name string, meta blob.Meta) string {
	if meta.ContentType != "" {
		return meta.ContentType
	}
	if ct := meta.Custom["content-type"]; ct != "" {
		return ct
	}
	if ct, ok := extContentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "image/jpeg"
}

var transformFormats = map[string]bool{"auto": true, "webp": true, "avif": true, "jpeg": true, "png": true}

// TransformOptions parses width, height, quality and format from q. It returns
// an empty string when none are present.
func TransformOptions(q url.Values) (string, error) {
	var parts []string
	for _, dim := range []struct {
		key string
		max int
	}{{"width", 4096}, {"height", 4096}, {"quality", 100}} {
		v := q.Get(dim.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > dim.max {
			return "", fmt.Errorf("%w: %s must be between 1 and %d", ErrBadTransform, dim.key, dim.max)
		}
		parts = append(parts, dim.key+"="+strconv.Itoa(n))
	}
	if f := strings.ToLower(q.Get("format")); f != "" {
		if !transformFormats[f] {
			return "", fmt.Errorf("%w: unsupported format %q", ErrBadTransform, f)
		}
		parts = append(parts, "format="+f)
	}
	return strings.Join(parts, ","), nil
}
