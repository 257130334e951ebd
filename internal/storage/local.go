package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStore writes objects under dir; refs are URL paths under urlPrefix,
// which the server exposes as static files.
type LocalStore struct {
	dir       string
	urlPrefix string
}

func NewLocal(dir, urlPrefix string) *LocalStore {
	return &LocalStore{dir: dir, urlPrefix: "/" + strings.Trim(urlPrefix, "/")}
}

func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	key, full, err := s.pathFor(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", key, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return path.Join(s.urlPrefix, key), nil
}

func (s *LocalStore) Get(ctx context.Context, ref string) ([]byte, string, error) {
	key, full, err := s.pathFor(strings.TrimPrefix(ref, s.urlPrefix+"/"))
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return data, contentTypeFor(key), nil
}

// pathFor maps key inside dir and refuses anything that climbs out of it.
func (s *LocalStore) pathFor(key string) (string, string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", "", fmt.Errorf("empty object key")
	}
	clean = clean[1:]
	return clean, filepath.Join(s.dir, filepath.FromSlash(clean)), nil
}
