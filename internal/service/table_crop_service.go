package service

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/anime-shed/table-cropper-go/internal/errors"
	"github.com/anime-shed/table-cropper-go/internal/imaging"
	"github.com/anime-shed/table-cropper-go/internal/observer"
	"github.com/anime-shed/table-cropper-go/internal/repository"
	"github.com/anime-shed/table-cropper-go/internal/storage"
	"github.com/anime-shed/table-cropper-go/internal/strategy"
	"github.com/anime-shed/table-cropper-go/internal/tableproc"
	"github.com/anime-shed/table-cropper-go/pkg/models"

	"golang.org/x/sync/errgroup"
)

// Operation names reported on pipeline events
const (
	OperationCropPreview = "crop_preview"
	OperationSplitHalves = "split_halves"
)

const defaultBaseName = "uploaded"

// TableCropService runs the preview and split flows
type TableCropService interface {
	// CropPreview publishes a trimmed rendition of the best table candidate of source.
	CropPreview(ctx context.Context, source models.UploadSource) (models.PublishedAsset, error)
	// SplitHalves publishes the top and bottom halves of source, top first.
	SplitHalves(ctx context.Context, source models.UploadSource) (top, bottom models.PublishedAsset, err error)
}

type tableCropService struct {
	sources   repository.SourceRepository
	processor tableproc.Processor
	selector  strategy.SelectionStrategy
	publisher storage.Publisher
	events    observer.Subject
}

// NewTableCropService creates a new table crop service
func NewTableCropService(
	sources repository.SourceRepository,
	processor tableproc.Processor,
	selector strategy.SelectionStrategy,
	publisher storage.Publisher,
	events observer.Subject,
) TableCropService {
	if events == nil {
		events = observer.NewEventPublisher()
	}
	return &tableCropService{
		sources:   sources,
		processor: processor,
		selector:  selector,
		publisher: publisher,
		events:    events,
	}
}

// CropPreview implements TableCropService
func (s *tableCropService) CropPreview(ctx context.Context, source models.UploadSource) (models.PublishedAsset, error) {
	start := time.Now()
	s.notify(ctx, observer.PipelineEvent{EventType: observer.RequestStarted, Operation: OperationCropPreview, Filename: source.Filename})

	asset, err := s.cropPreview(ctx, source)
	if err != nil {
		err = boundary("Processing failed", err)
		s.fail(ctx, OperationCropPreview, source.Filename, start, err)
		return models.PublishedAsset{}, err
	}

	s.notify(ctx, observer.PipelineEvent{
		EventType:      observer.RequestCompleted,
		Operation:      OperationCropPreview,
		Filename:       asset.Filename,
		URL:            asset.URL,
		ProcessingTime: time.Since(start),
		Success:        true,
	})
	return asset, nil
}

func (s *tableCropService) cropPreview(ctx context.Context, source models.UploadSource) (models.PublishedAsset, error) {
	raw, err := s.sources.Resolve(ctx, source)
	if err != nil {
		return models.PublishedAsset{}, err
	}

	candidates, err := s.processor.DetectAndCorrect(ctx, raw.Data, raw.Filename)
	if err != nil {
		return models.PublishedAsset{}, err
	}
	name, img, ok := s.selector.Select(candidates)
	if !ok {
		return models.PublishedAsset{}, apperrors.NoOutputProduced()
	}
	s.notify(ctx, observer.PipelineEvent{
		EventType: observer.CandidateSelected,
		Operation: OperationCropPreview,
		Filename:  raw.Filename,
		Success:   true,
		Metadata: map[string]interface{}{
			"candidate":  name,
			"candidates": candidates.Names(),
			"processor":  s.processor.Name(),
			"strategy":   s.selector.GetStrategyName(),
		},
	})

	trimmed, err := imaging.PreviewTrim(img)
	if err != nil {
		return models.PublishedAsset{}, err
	}
	data, err := imaging.EncodePNG(trimmed)
	if err != nil {
		return models.PublishedAsset{}, err
	}

	return s.publish(ctx, OperationCropPreview, outputName(raw.Filename, "_preview"), data)
}

// SplitHalves implements TableCropService
func (s *tableCropService) SplitHalves(ctx context.Context, source models.UploadSource) (models.PublishedAsset, models.PublishedAsset, error) {
	start := time.Now()
	label := source.Filename
	if source.Kind == models.SourceURL {
		label = source.URL
	}
	s.notify(ctx, observer.PipelineEvent{EventType: observer.RequestStarted, Operation: OperationSplitHalves, Filename: label})

	top, bottom, err := s.splitHalves(ctx, source)
	if err != nil {
		err = boundary("Split failed", err)
		s.fail(ctx, OperationSplitHalves, label, start, err)
		return models.PublishedAsset{}, models.PublishedAsset{}, err
	}

	s.notify(ctx, observer.PipelineEvent{
		EventType:      observer.RequestCompleted,
		Operation:      OperationSplitHalves,
		Filename:       label,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata:       map[string]interface{}{"top_half": top.URL, "bottom_half": bottom.URL},
	})
	return top, bottom, nil
}

func (s *tableCropService) splitHalves(ctx context.Context, source models.UploadSource) (top, bottom models.PublishedAsset, err error) {
	raw, err := s.sources.Resolve(ctx, source)
	if err != nil {
		return top, bottom, err
	}
	if source.Kind == models.SourceURL {
		s.notify(ctx, observer.PipelineEvent{
			EventType: observer.ImageFetched,
			Operation: OperationSplitHalves,
			Filename:  raw.Filename,
			URL:       source.URL,
			Success:   true,
			Metadata:  map[string]interface{}{"bytes": len(raw.Data)},
		})
	}

	img, format, err := imaging.Decode(raw.Data)
	if err != nil {
		return top, bottom, err
	}
	topImg, bottomImg, err := imaging.SplitHalves(imaging.ToRGB(img))
	if err != nil {
		return top, bottom, err
	}

	var topData, bottomData []byte
	var g errgroup.Group
	g.Go(func() error {
		var encErr error
		topData, encErr = imaging.EncodePNG(topImg)
		return encErr
	})
	g.Go(func() error {
		var encErr error
		bottomData, encErr = imaging.EncodePNG(bottomImg)
		return encErr
	})
	if err := g.Wait(); err != nil {
		return top, bottom, fmt.Errorf("encode %s halves: %w", format, err)
	}

	if top, err = s.publish(ctx, OperationSplitHalves, outputName(raw.Filename, "_top_half"), topData); err != nil {
		return models.PublishedAsset{}, models.PublishedAsset{}, err
	}
	if bottom, err = s.publish(ctx, OperationSplitHalves, outputName(raw.Filename, "_bottom_half"), bottomData); err != nil {
		return models.PublishedAsset{}, models.PublishedAsset{}, err
	}
	return top, bottom, nil
}

func (s *tableCropService) publish(ctx context.Context, operation, filename string, data []byte) (models.PublishedAsset, error) {
	start := time.Now()
	asset, err := s.publisher.Publish(ctx, filename, data)
	event := observer.PipelineEvent{
		Operation:      operation,
		Filename:       filename,
		ProcessingTime: time.Since(start),
		Metadata:       map[string]interface{}{"publisher": s.publisher.Name(), "bytes": len(data)},
	}
	if err != nil {
		event.EventType = observer.AssetPublishFailed
		event.ErrorMessage = apperrors.Detail(err)
		s.notify(ctx, event)
		return models.PublishedAsset{}, err
	}
	event.EventType = observer.AssetPublished
	event.URL = asset.URL
	event.Success = true
	s.notify(ctx, event)
	return asset, nil
}

func (s *tableCropService) fail(ctx context.Context, operation, filename string, start time.Time, err error) {
	s.notify(ctx, observer.PipelineEvent{
		EventType:      observer.RequestFailed,
		Operation:      operation,
		Filename:       filename,
		ProcessingTime: time.Since(start),
		ErrorMessage:   apperrors.Detail(err),
		Metadata:       map[string]interface{}{"status_code": apperrors.GetStatusCode(err)},
	})
}

func (s *tableCropService) notify(ctx context.Context, event observer.PipelineEvent) {
	s.events.NotifyObservers(ctx, event)
}

// boundary keeps final errors as they are and turns everything else into a
// processing error whose detail starts with prefix.
func boundary(prefix string, err error) error {
	if apperrors.IsFinal(err) {
		return err
	}
	return apperrors.NewProcessingError(prefix, err)
}

func outputName(filename, suffix string) string {
	base := repository.BaseName(filename)
	if base == "" {
		base = defaultBaseName
	}
	return base + suffix + ".png"
}
