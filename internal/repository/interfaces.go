package repository

import (
	"context"

	"github.com/anime-shed/table-cropper-go/pkg/models"
)

// SourceRepository resolves an UploadSource into raw image bytes and a source filename
type SourceRepository interface {
	Resolve(ctx context.Context, source models.UploadSource) (models.RawImage, error)
}
