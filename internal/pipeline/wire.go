package pipeline

import (
	"fmt"

	"github.com/nuworks/agentia/internal/archive"
	"github.com/nuworks/agentia/internal/config"
	"github.com/nuworks/agentia/internal/document"
	"github.com/nuworks/agentia/internal/order"
	"github.com/nuworks/agentia/internal/script"
	"github.com/nuworks/agentia/internal/storage"
)

// FromConfig assembles a Service from configuration. logger may be nil.
func FromConfig(cfg *config.Config, backend script.Backend, logger OrderLogger) (*Service, error) {
	catalog, err := order.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	opts := Options{
		Storage: store,
		Bucket:  cfg.Storage.Bucket,
		DropURL: cfg.Storage.DropURL,
		Logger:  logger,
		Style:   script.StyleFromConfig(cfg.Script),
	}

	return NewService(
		document.NewTextExtractor(),
		script.NewGenerator(backend, cfg.Script),
		order.NewBuilder(catalog),
		archive.NewPackager(),
		opts,
	), nil
}
