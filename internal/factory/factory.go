package factory

import (
	"context"
	"fmt"
	"strings"

	"github.com/anime-shed/table-cropper-go/internal/config"
	"github.com/anime-shed/table-cropper-go/internal/storage"
	"github.com/anime-shed/table-cropper-go/internal/tableproc"
)

// ProcessorFactory creates table processors
type ProcessorFactory interface {
	CreateProcessor(cfg *config.Config) (tableproc.Processor, error)
}

// PublisherFactory creates asset publishers
type PublisherFactory interface {
	CreatePublisher(ctx context.Context, cfg *config.Config) (storage.Publisher, error)
}

// processorFactory implements ProcessorFactory
type processorFactory struct{}

// NewProcessorFactory creates a new processor factory
func NewProcessorFactory() ProcessorFactory {
	return &processorFactory{}
}

// CreateProcessor creates the processor named by cfg.TableProcessor
func (f *processorFactory) CreateProcessor(cfg *config.Config) (tableproc.Processor, error) {
	switch cfg.TableProcessor {
	case config.ProcessorBounds:
		return tableproc.NewBoundsProcessor(), nil
	case config.ProcessorOCR:
		return tableproc.Lookup(config.ProcessorOCR, ocrLanguages(cfg.OCRLanguage)...)
	case config.ProcessorRemote:
		if cfg.TableProcessorURL == "" {
			return nil, fmt.Errorf("remote table processor requires TABLE_PROCESSOR_URL")
		}
		return tableproc.NewRemoteProcessor(cfg.TableProcessorURL, cfg.TableProcessorTimeout), nil
	default:
		return nil, fmt.Errorf("unsupported table processor: %s", cfg.TableProcessor)
	}
}

// ocrLanguages splits tesseract's "eng+deu" notation
func ocrLanguages(spec string) []string {
	var langs []string
	for _, lang := range strings.Split(spec, "+") {
		if lang = strings.TrimSpace(lang); lang != "" {
			langs = append(langs, lang)
		}
	}
	return langs
}

// publisherFactory implements PublisherFactory
type publisherFactory struct{}

// NewPublisherFactory creates a new publisher factory
func NewPublisherFactory() PublisherFactory {
	return &publisherFactory{}
}

// CreatePublisher creates the publisher named by cfg.Publisher
func (f *publisherFactory) CreatePublisher(ctx context.Context, cfg *config.Config) (storage.Publisher, error) {
	switch cfg.Publisher {
	case config.PublisherTmpfiles:
		publisher, err := storage.NewHostingPublisher(cfg.PublishEndpoint, cfg.PublishTimeout)
		if err != nil {
			return nil, err
		}
		return publisher, nil
	case config.PublisherAzure:
		return storage.NewAzureStorage(cfg.AzureAccountName, cfg.AzureAccountKey, cfg.AzureContainer, cfg.PublishTimeout)
	case config.PublisherS3:
		return storage.NewS3Storage(ctx, storage.S3StorageConfig{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			EndpointURL:     cfg.S3EndpointURL,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicBaseURL:   cfg.PublicBaseURL,
		}, cfg.PublishTimeout)
	default:
		return nil, fmt.Errorf("unsupported publisher: %s", cfg.Publisher)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	ProcessorFactory ProcessorFactory
	PublisherFactory PublisherFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory() *ComponentFactory {
	return &ComponentFactory{
		ProcessorFactory: NewProcessorFactory(),
		PublisherFactory: NewPublisherFactory(),
	}
}
