package repository

import (
	"context"
	"image"

	"go-mrz-scanner/internal/storage"
	"go-mrz-scanner/pkg/validation"
)

// documentRepository implements DocumentRepository on top of a storage
// fetcher
type documentRepository struct {
	fetcher   storage.ImageFetcher
	validator *validation.URLValidator
}

// NewDocumentRepository creates a document repository backed by the given
// fetcher
func NewDocumentRepository(fetcher storage.ImageFetcher) DocumentRepository {
	return &documentRepository{
		fetcher:   fetcher,
		validator: validation.NewURLValidator(),
	}
}

// FetchImage retrieves a document image from a URL
func (r *documentRepository) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	if err := r.ValidateImageURL(imageURL); err != nil {
		return nil, err
	}
	return r.fetcher.FetchImage(ctx, imageURL)
}

// ValidateImageURL validates if the provided URL is acceptable
func (r *documentRepository) ValidateImageURL(imageURL string) error {
	return r.validator.ValidateImageURL(imageURL)
}
