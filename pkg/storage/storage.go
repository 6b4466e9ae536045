package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ImageStorage defines the contract for image storage providers.
// A stored image is identified by a reference string: a relative path for
// local storage, a secure URL for Cloudinary.
type ImageStorage interface {
	// UploadImage stores the image read from r under folder and returns its reference.
	UploadImage(ctx context.Context, r io.Reader, folder, fileName string) (string, error)
	// DeleteImage removes the referenced image. Deleting a missing image is not an error.
	DeleteImage(ctx context.Context, ref string) error
	// URL returns a public URL for the reference.
	URL(ref string) string
}

// DatedFolder returns the upload folder for t, e.g. "avatars/2025/03".
func DatedFolder(prefix string, t time.Time) string {
	return path.Join(prefix, t.Format("2006"), t.Format("01"))
}

// HasAllowedExtension reports whether fileName ends in one of exts (without the dot, any case).
func HasAllowedExtension(fileName string, exts ...string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	for _, allowed := range exts {
		if ext == allowed {
			return true
		}
	}
	return false
}

// uniqueFileName keeps the extension of fileName and replaces the rest with a UUID.
func uniqueFileName(fileName string) string {
	return fmt.Sprintf("%s%s", uuid.New().String(), strings.ToLower(filepath.Ext(fileName)))
}

func isAbsoluteURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
