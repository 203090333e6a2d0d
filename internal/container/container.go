package container

import (
	"fmt"
	"net/http"

	"go-mrz-scanner/internal/config"
	"go-mrz-scanner/internal/factory"
	"go-mrz-scanner/internal/logger"
	"go-mrz-scanner/internal/observer"
	"go-mrz-scanner/internal/repository"
	"go-mrz-scanner/internal/scanner"
	"go-mrz-scanner/internal/service"
	"go-mrz-scanner/internal/storage"
	"go-mrz-scanner/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config       *config.Config
	imageFetcher storage.ImageFetcher
	session      *scanner.Session
	docRepo      repository.DocumentRepository
	scanService  service.ScanService
	publisher    observer.Subject
	handler      http.Handler
}

// NewContainer builds the full dependency graph from configuration
func NewContainer(cfg *config.Config) (*Container, error) {
	components := factory.NewComponentFactory(cfg)

	imageFetcher, err := components.StorageFactory.CreateStorage(factory.StorageType(cfg.StorageBackend))
	if err != nil {
		return nil, fmt.Errorf("failed to create storage backend: %w", err)
	}

	eng, err := components.EngineFactory.CreateEngine(factory.TesseractEngine)
	if err != nil {
		return nil, fmt.Errorf("failed to create recognition engine: %w", err)
	}
	session := scanner.NewSession(eng)

	docRepo := repository.NewDocumentRepository(imageFetcher)

	// Settings can only come from blob storage; HTTP deployments load
	// models from the local filesystem via MODEL_LOCATION instead.
	var settingsRepo repository.SettingsRepository
	if blob, ok := imageFetcher.(storage.BlobStorage); ok {
		settingsRepo = repository.NewBlobSettingsRepository(blob, cfg.SettingsContainer)
	}

	publisher := observer.NewEventPublisher()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(observer.NewMetricsObserver())

	scanService := service.NewScanService(docRepo, settingsRepo, session, publisher)
	handler := transport.NewHandler(scanService, cfg)

	return &Container{
		config:       cfg,
		imageFetcher: imageFetcher,
		session:      session,
		docRepo:      docRepo,
		scanService:  scanService,
		publisher:    publisher,
		handler:      handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// ScanService returns the scan service
func (c *Container) ScanService() service.ScanService {
	return c.scanService
}

// Session returns the scanner session
func (c *Container) Session() *scanner.Session {
	return c.session
}

// Close releases the recognition engine and any running workers
func (c *Container) Close() error {
	return c.session.Close()
}
