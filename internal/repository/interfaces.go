package repository

import (
	"context"
	"image"
)

// DocumentRepository defines the data-access operations for document images
// submitted to the scanner
type DocumentRepository interface {
	// FetchImage retrieves a document image from a URL
	FetchImage(ctx context.Context, imageURL string) (image.Image, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error
}

// SettingsRepository retrieves recognition settings content for LoadModel
type SettingsRepository interface {
	// FetchSettings retrieves settings content from a storage location
	FetchSettings(ctx context.Context, location string) (string, error)
}
