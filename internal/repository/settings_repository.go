package repository

import (
	"context"

	"go-mrz-scanner/internal/storage"
)

// blobSettingsRepository reads recognition settings from blob storage
type blobSettingsRepository struct {
	blob      storage.BlobStorage
	container string
}

// NewBlobSettingsRepository creates a settings repository reading from one
// blob container
func NewBlobSettingsRepository(blob storage.BlobStorage, container string) SettingsRepository {
	return &blobSettingsRepository{blob: blob, container: container}
}

// FetchSettings downloads the named settings blob as text
func (r *blobSettingsRepository) FetchSettings(ctx context.Context, location string) (string, error) {
	content, err := r.blob.GetSettings(ctx, r.container, location)
	if err != nil {
		return "", ErrSettingsNotFound
	}
	return content, nil
}
