// Package tableproc holds the table detection backends the crop pipeline delegates to.
// The pipeline only relies on the candidate names in models; how a backend finds
// or corrects the table is its own business.
package tableproc

import (
	"context"

	"github.com/anime-shed/table-cropper-go/pkg/models"
)

// Processor turns raw image bytes into named candidate images.
// filename is a naming and extension hint only.
type Processor interface {
	DetectAndCorrect(ctx context.Context, data []byte, filename string) (models.CandidateSet, error)
	Name() string
}
