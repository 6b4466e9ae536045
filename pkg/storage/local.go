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

type localStorage struct {
	root    string
	baseURL string
}

// NewLocalStorage stores images below root and serves them under baseURL (e.g. "/media/").
func NewLocalStorage(root, baseURL string) (ImageStorage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve media root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media root: %w", err)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &localStorage{root: abs, baseURL: baseURL}, nil
}

func (s *localStorage) UploadImage(ctx context.Context, r io.Reader, folder, fileName string) (string, error) {
	ref := path.Join(folder, uniqueFileName(fileName))
	target, err := s.resolve(ref)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload folder: %w", err)
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(target)
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	return ref, nil
}

func (s *localStorage) DeleteImage(ctx context.Context, ref string) error {
	target, err := s.resolve(ref)
	if err != nil {
		return err
	}

	info, err := os.Stat(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat image file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete image file: %w", err)
	}
	return nil
}

func (s *localStorage) URL(ref string) string {
	if ref == "" || isAbsoluteURL(ref) {
		return ref
	}
	return s.baseURL + strings.TrimPrefix(ref, "/")
}

// resolve maps a reference to a path inside root, rejecting anything that escapes it.
func (s *localStorage) resolve(ref string) (string, error) {
	clean := path.Clean("/" + ref)
	if clean == "/" {
		return "", fmt.Errorf("invalid image reference %q", ref)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
