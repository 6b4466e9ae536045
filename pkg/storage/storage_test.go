package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultAvatar = "students/avatars/default.png"

func newLocal(t *testing.T) (ImageStorage, string) {
	t.Helper()
	root := t.TempDir()
	s, err := NewLocalStorage(root, "/media")
	require.NoError(t, err)
	return s, root
}

func writeFile(t *testing.T, root, ref string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(ref))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("img"), 0o644))
	return p
}

func TestLocalStorage_UploadAndDelete(t *testing.T) {
	s, root := newLocal(t)
	ctx := context.Background()

	ref, err := s.UploadImage(ctx, strings.NewReader("png-bytes"), "avatars/2025/03", "Me.PNG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "avatars/2025/03/"))
	assert.True(t, strings.HasSuffix(ref, ".png"))
	assert.Equal(t, "/media/"+ref, s.URL(ref))

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(ref)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, s.DeleteImage(ctx, ref))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(ref)))
	assert.True(t, os.IsNotExist(err))

	// missing files are a no-op
	assert.NoError(t, s.DeleteImage(ctx, ref))
}

func TestLocalStorage_StaysInsideRoot(t *testing.T) {
	s, root := newLocal(t)
	outside := filepath.Join(filepath.Dir(root), "outside.png")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o644))
	t.Cleanup(func() { os.Remove(outside) })

	require.NoError(t, s.DeleteImage(context.Background(), "../outside.png"))

	_, err := os.Stat(outside)
	assert.NoError(t, err)
}

func TestDatedFolderAndExtensions(t *testing.T) {
	assert.Equal(t, "avatars/2025/03", DatedFolder("avatars", time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)))
	assert.True(t, HasAllowedExtension("a.JPG", "jpg", "jpeg", "png"))
	assert.False(t, HasAllowedExtension("a.gif", "jpg", "jpeg", "png"))
	assert.False(t, HasAllowedExtension("noext", "jpg"))
}

func TestAssetManager_ReplaceSameReferenceKeepsFile(t *testing.T) {
	s, root := newLocal(t)
	p := writeFile(t, root, "avatars/2025/03/a.png")
	m := NewAssetManager(s, nil, defaultAvatar)

	m.Replace(context.Background(), "avatars/2025/03/a.png", "avatars/2025/03/a.png")
	m.Replace(context.Background(), "avatars/2025/03/a.png", "avatars/2025/03/a.png")

	_, err := os.Stat(p)
	assert.NoError(t, err)
}

func TestAssetManager_ReplaceDeletesOldFile(t *testing.T) {
	s, root := newLocal(t)
	oldPath := writeFile(t, root, "avatars/2025/03/old.png")
	newPath := writeFile(t, root, "avatars/2025/03/new.png")
	m := NewAssetManager(s, nil, defaultAvatar)

	m.Replace(context.Background(), "avatars/2025/03/old.png", "avatars/2025/03/new.png")

	_, err := os.Stat(oldPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(newPath)
	assert.NoError(t, err)
}

func TestAssetManager_DefaultIsNeverDeleted(t *testing.T) {
	s, root := newLocal(t)
	p := writeFile(t, root, defaultAvatar)
	m := NewAssetManager(s, nil, defaultAvatar)

	m.Replace(context.Background(), defaultAvatar, "avatars/2025/03/new.png")
	m.Release(context.Background(), defaultAvatar)

	_, err := os.Stat(p)
	assert.NoError(t, err)
}

type failingStorage struct{ ImageStorage }

func (failingStorage) DeleteImage(context.Context, string) error { return errors.New("disk on fire") }

func TestAssetManager_SwallowsStorageErrors(t *testing.T) {
	m := NewAssetManager(failingStorage{}, nil, defaultAvatar)
	assert.NotPanics(t, func() {
		m.Release(context.Background(), "avatars/2025/03/x.png")
		m.Replace(context.Background(), "avatars/2025/03/x.png", "")
	})
}

func TestExtractPublicID(t *testing.T) {
	assert.Equal(t, "folder/sample", extractPublicID("https://res.cloudinary.com/demo/image/upload/v123456789/folder/sample.jpg"))
	assert.Equal(t, "vault/sample", extractPublicID("https://res.cloudinary.com/demo/image/upload/vault/sample.webp"))
	assert.Equal(t, "", extractPublicID("https://example.com/a.png"))
}
