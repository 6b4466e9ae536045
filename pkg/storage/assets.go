package storage

import (
	"context"
	"log/slog"
)

// AssetManager deletes stored images that are no longer referenced by a record.
// Shared placeholders are never deleted, and storage failures are logged rather
// than returned so they cannot fail the record's save or delete.
type AssetManager struct {
	storage   ImageStorage
	protected map[string]struct{}
	logger    *slog.Logger
}

func NewAssetManager(storage ImageStorage, logger *slog.Logger, protected ...string) *AssetManager {
	if logger == nil {
		logger = slog.Default()
	}
	set := make(map[string]struct{}, len(protected))
	for _, ref := range protected {
		set[ref] = struct{}{}
	}
	return &AssetManager{storage: storage, protected: set, logger: logger}
}

// IsProtected reports whether ref is a shared placeholder.
func (m *AssetManager) IsProtected(ref string) bool {
	_, ok := m.protected[ref]
	return ok
}

// Replace removes oldRef after a record switched from oldRef to newRef.
func (m *AssetManager) Replace(ctx context.Context, oldRef, newRef string) {
	if oldRef == newRef {
		return
	}
	m.Release(ctx, oldRef)
}

// Release removes ref after the record that owned it was deleted.
func (m *AssetManager) Release(ctx context.Context, ref string) {
	if ref == "" || m.IsProtected(ref) || m.storage == nil {
		return
	}
	if err := m.storage.DeleteImage(ctx, ref); err != nil {
		m.logger.Warn("failed to delete stored image", "ref", ref, "error", err)
	}
}

// URL resolves ref through the underlying storage.
func (m *AssetManager) URL(ref string) string {
	if m.storage == nil {
		return ref
	}
	return m.storage.URL(ref)
}
