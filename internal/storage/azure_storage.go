package storage

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// BlobStorage retrieves document images and recognition settings from a
// blob container. It doubles as an ImageFetcher so the service can run
// entirely against an Azure backend.
type BlobStorage interface {
	ImageFetcher
	GetImage(ctx context.Context, blobURL string) (image.Image, error)
	GetSettings(ctx context.Context, container, blobName string) (string, error)
}

type azureStorage struct {
	client *azblob.Client
}

// NewAzureStorage creates a blob storage backed by an Azure account
func NewAzureStorage(accountName string, accountKey string) (BlobStorage, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &azureStorage{client: client}, nil
}

// GetImage downloads and decodes a document image. The URL path names the
// container; the blob name is carried in the "blob" query parameter.
func (s *azureStorage) GetImage(ctx context.Context, blobURL string) (image.Image, error) {
	parsedURL, err := url.Parse(blobURL)
	if err != nil {
		return nil, fmt.Errorf("invalid blob URL: %w", err)
	}
	if len(parsedURL.Path) < 2 {
		return nil, fmt.Errorf("blob URL missing container name")
	}

	containerName := parsedURL.Path[1:]
	blobName := parsedURL.Query().Get("blob")

	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	retryReader := downloadResponse.Body
	defer retryReader.Close()

	img, _, err := image.Decode(retryReader)
	return img, err
}

// FetchImage implements ImageFetcher so blob storage can stand in for the
// HTTP fetcher when the service is configured with an Azure backend
func (s *azureStorage) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	return s.GetImage(ctx, imageURL)
}

// GetSettings downloads a recognition settings blob as text, for feeding
// into the session's LoadModel
func (s *azureStorage) GetSettings(ctx context.Context, container, blobName string) (string, error) {
	downloadResponse, err := s.client.DownloadStream(ctx, container, blobName, nil)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer downloadResponse.Body.Close()

	content, err := io.ReadAll(downloadResponse.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read settings blob: %w", err)
	}
	return string(content), nil
}
