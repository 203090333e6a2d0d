package factory

import (
	"fmt"

	"go-mrz-scanner/internal/config"
	"go-mrz-scanner/internal/engine"
	"go-mrz-scanner/internal/storage"
)

// EngineType represents different recognition engine implementations
type EngineType string

const (
	// TesseractEngine backs recognition with the Tesseract OCR library
	TesseractEngine EngineType = "tesseract"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
)

// EngineFactory creates recognition engines
type EngineFactory interface {
	CreateEngine(engineType EngineType) (engine.Engine, error)
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
}

// engineFactory implements EngineFactory
type engineFactory struct{}

// NewEngineFactory creates a new engine factory
func NewEngineFactory() EngineFactory {
	return &engineFactory{}
}

// CreateEngine creates a recognition engine of the specified type
func (f *engineFactory) CreateEngine(engineType EngineType) (engine.Engine, error) {
	switch engineType {
	case TesseractEngine:
		return engine.NewTesseract()
	default:
		return nil, fmt.Errorf("unsupported engine type: %s", engineType)
	}
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(), nil
	case AzureStorage:
		blob, err := storage.NewAzureStorage(f.cfg.AzureAccountName, f.cfg.AzureAccountKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create azure storage: %w", err)
		}
		return blob, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	EngineFactory  EngineFactory
	StorageFactory StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		EngineFactory:  NewEngineFactory(),
		StorageFactory: NewStorageFactory(cfg),
	}
}
