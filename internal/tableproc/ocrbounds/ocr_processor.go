//go:build ocr

// Package ocrbounds locates tables from Tesseract word boxes. It needs the
// tesseract and leptonica libraries at build and run time, and is only
// compiled with the ocr build tag.
package ocrbounds

import (
	"context"
	"fmt"
	"image"

	"github.com/otiai10/gosseract/v2"

	"github.com/anime-shed/table-cropper-go/internal/imaging"
	"github.com/anime-shed/table-cropper-go/internal/tableproc"
	"github.com/anime-shed/table-cropper-go/pkg/models"
)

func init() {
	tableproc.Register("ocr", func(languages ...string) tableproc.Processor {
		return NewOCRProcessor(languages...)
	})
}

// OCRProcessor crops to the padded union of recognized word boxes.
type OCRProcessor struct {
	clientFactory func() *gosseract.Client
	languages     []string
	minConfidence float64
	margin        float64
	maxCoverage   float64
}

// NewOCRProcessor creates an OCR-backed processor for the given tesseract languages
func NewOCRProcessor(languages ...string) *OCRProcessor {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &OCRProcessor{
		clientFactory: gosseract.NewClient,
		languages:     languages,
		minConfidence: 30,
		margin:        0.02,
		maxCoverage:   0.98,
	}
}

func (p *OCRProcessor) Name() string { return "ocr" }

// DetectAndCorrect implements tableproc.Processor
func (p *OCRProcessor) DetectAndCorrect(ctx context.Context, data []byte, filename string) (models.CandidateSet, error) {
	img, _, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}
	candidates := models.CandidateSet{models.CandidateOriginal: img}

	var words []image.Rectangle
	err = tableproc.WithWorkDir(filename, data, func(path string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var boxErr error
		words, boxErr = p.wordBoxes(path)
		return boxErr
	})
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return candidates, nil
	}

	frame := img.Bounds()
	box := image.Rectangle{}
	for _, w := range words {
		box = box.Union(w.Add(frame.Min))
	}
	box = tableproc.PadRect(box, frame, p.margin)
	if tableproc.Coverage(box, frame) > p.maxCoverage {
		return candidates, nil
	}

	cropped, err := imaging.Crop(img, box.Sub(frame.Min))
	if err != nil {
		return nil, err
	}
	candidates[models.CandidateCroppedTable] = cropped
	return candidates, nil
}

func (p *OCRProcessor) wordBoxes(path string) ([]image.Rectangle, error) {
	c := p.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(p.languages...); err != nil {
		return nil, fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetImage(path); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("word boxes: %w", err)
	}

	rects := make([]image.Rectangle, 0, len(boxes))
	for _, b := range boxes {
		if b.Confidence < p.minConfidence || b.Box.Empty() {
			continue
		}
		rects = append(rects, b.Box)
	}
	return rects, nil
}
