package tableproc

import (
	"context"
	"fmt"

	"github.com/anime-shed/table-cropper-go/internal/imaging"
	"github.com/anime-shed/table-cropper-go/pkg/models"
)

// BoundsProcessor finds the table as the bounding box of dark content.
// It returns the original image and, when the box is distinctly smaller than
// the frame, a cropped_table candidate. It does no perspective correction.
type BoundsProcessor struct {
	InkThreshold uint8   // luminance below which a pixel counts as ink
	MinInk       float64 // share of a row/column that must be ink for it to count
	Margin       float64 // padding around the box, as a share of the frame
	MaxCoverage  float64 // boxes covering more than this are not worth a crop
}

// NewBoundsProcessor creates a bounds processor with default settings
func NewBoundsProcessor() *BoundsProcessor {
	return &BoundsProcessor{
		InkThreshold: 160,
		MinInk:       0.01,
		Margin:       0.01,
		MaxCoverage:  0.98,
	}
}

func (p *BoundsProcessor) Name() string { return "bounds" }

// DetectAndCorrect implements Processor
func (p *BoundsProcessor) DetectAndCorrect(ctx context.Context, data []byte, filename string) (models.CandidateSet, error) {
	img, _, err := imaging.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", SafeInputName(filename), err)
	}
	candidates := models.CandidateSet{models.CandidateOriginal: img}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frame := img.Bounds()
	box := inkBounds(toGrayscale(img), p.InkThreshold, p.MinInk)
	if box.Empty() {
		return candidates, nil
	}
	box = PadRect(box, frame, p.Margin)
	if Coverage(box, frame) > p.MaxCoverage {
		return candidates, nil
	}

	cropped, err := imaging.Crop(img, box.Sub(frame.Min))
	if err != nil {
		return nil, err
	}
	candidates[models.CandidateCroppedTable] = cropped
	return candidates, nil
}
