package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
)

// DefaultAvatar is the name of the image copied for every new user.
const DefaultAvatar = "default.png"

//go:embed assets/default.png
var defaultAvatar []byte

// Avatars is implemented by DirAvatars and MinioAvatars.
type Avatars interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Copy(ctx context.Context, src, dst string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
}

// DirAvatars keeps profile images as files in one directory, named by
// user id.
type DirAvatars struct {
	dir string
}

// NewDirAvatars creates dir if needed and seeds default.png when absent.
func NewDirAvatars(dir string) (*DirAvatars, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("avatar dir: %w", err)
	}
	def := filepath.Join(dir, DefaultAvatar)
	if _, err := os.Stat(def); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(def, defaultAvatar, 0o644); err != nil {
			return nil, fmt.Errorf("seed %s: %w", DefaultAvatar, err)
		}
	}
	return &DirAvatars{dir: dir}, nil
}

// Upload writes data under key, replacing any existing file.
func (s *DirAvatars) Upload(_ context.Context, key string, data []byte, _ string) error {
	if err := os.WriteFile(filepath.Join(s.dir, key), data, 0o644); err != nil {
		return fmt.Errorf("avatar write: %w", err)
	}
	return nil
}

// Copy duplicates src to dst.
func (s *DirAvatars) Copy(ctx context.Context, src, dst string) error {
	data, err := os.ReadFile(filepath.Join(s.dir, src))
	if err != nil {
		return fmt.Errorf("avatar read %s: %w", src, err)
	}
	return s.Upload(ctx, dst, data, "")
}

// Download opens key through http.Dir, whose path cleaning keeps lookups
// inside the directory.
func (s *DirAvatars) Download(_ context.Context, key string) ([]byte, string, error) {
	f, err := http.Dir(s.dir).Open("/" + key)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("avatar open: %w", err)
	}
	defer f.Close()

	if st, err := f.Stat(); err == nil && st.IsDir() {
		return nil, "", ErrNotFound
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("avatar read: %w", err)
	}
	return data, http.DetectContentType(data), nil
}
