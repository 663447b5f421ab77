// Package local stores blobs as files in a directory, with a JSON sidecar
// per object holding its serving metadata.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/eringen/edgeblog/blob"
)

const metaSuffix = ".meta.json"

// Store implements blob.Store on the local filesystem.
type Store struct {
	dir string
}

// New creates dir if needed and returns a store rooted there.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.Contains(key, "..") ||
		strings.HasSuffix(key, metaSuffix) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("%w: %q", blob.ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, key), nil
}

// Put writes to a temp file first so readers never see a partial object.
func (s *Store) Put(_ context.Context, key string, body io.Reader, _ int64, meta blob.Meta) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return fmt.Errorf("write blob %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p+metaSuffix, metaJSON, 0o644); err != nil {
		return fmt.Errorf("write blob meta %q: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("store blob %q: %w", key, err)
	}
	return nil
}

func (s *Store) Get(_ context.Context, key string) (*blob.Object, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, blob.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	var meta blob.Meta
	if raw, err := os.ReadFile(p + metaSuffix); err == nil {
		_ = json.Unmarshal(raw, &meta)
	}

	return &blob.Object{
		Body:         f,
		Meta:         meta,
		Size:         info.Size(),
		ETag:         `"` + strconv.FormatInt(info.ModTime().UnixNano(), 36) + "-" + strconv.FormatInt(info.Size(), 36) + `"`,
		LastModified: info.ModTime(),
	}, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	for _, name := range []string{p, p + metaSuffix} {
		if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Ping verifies the directory is still there.
func (s *Store) Ping(context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("blob dir %s is not a directory", s.dir)
	}
	return nil
}

var _ blob.Store = (*Store)(nil)
