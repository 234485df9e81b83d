package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/anime-shed/table-cropper-go/internal/config"
	"github.com/anime-shed/table-cropper-go/internal/factory"
	"github.com/anime-shed/table-cropper-go/internal/logger"
	"github.com/anime-shed/table-cropper-go/internal/observer"
	"github.com/anime-shed/table-cropper-go/internal/repository"
	"github.com/anime-shed/table-cropper-go/internal/service"
	"github.com/anime-shed/table-cropper-go/internal/storage"
	"github.com/anime-shed/table-cropper-go/internal/strategy"
	"github.com/anime-shed/table-cropper-go/internal/tableproc"
	"github.com/anime-shed/table-cropper-go/internal/transport"
)

// Container holds all application dependencies
type Container struct {
	config           *config.Config
	imageFetcher     storage.ImageFetcher
	sourceRepository repository.SourceRepository
	processor        tableproc.Processor
	publisher        storage.Publisher
	metrics          *observer.MetricsObserver
	tableCropService service.TableCropService
	handler          http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	components := factory.NewComponentFactory()

	processor, err := components.ProcessorFactory.CreateProcessor(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create table processor: %w", err)
	}
	publisher, err := components.PublisherFactory.CreatePublisher(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create publisher: %w", err)
	}

	logger.WithField("optional_processors", tableproc.Registered()).Debug("Table processor backends compiled in")

	// Build dependency graph
	imageFetcher := storage.NewHTTPImageFetcher(cfg.ImageFetchTimeout, cfg.MaxRequestBodySize)
	sourceRepository := repository.NewSourceRepository(imageFetcher, cfg.PublishHost(), cfg.ImageURLHosts...)

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	tableCropService := service.NewTableCropService(
		sourceRepository,
		processor,
		strategy.NewPrioritySelectionStrategy(cfg.CandidatePriority),
		publisher,
		events,
	)
	handler := transport.NewHandler(tableCropService, metrics, cfg)

	return &Container{
		config:           cfg,
		imageFetcher:     imageFetcher,
		sourceRepository: sourceRepository,
		processor:        processor,
		publisher:        publisher,
		metrics:          metrics,
		tableCropService: tableCropService,
		handler:          handler,
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

// Processor returns the configured table processor
func (c *Container) Processor() tableproc.Processor {
	return c.processor
}

// Publisher returns the configured asset publisher
func (c *Container) Publisher() storage.Publisher {
	return c.publisher
}
