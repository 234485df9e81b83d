package repository

import (
	"context"
	"path"
	"strings"

	apperrors "github.com/anime-shed/table-cropper-go/internal/errors"
	"github.com/anime-shed/table-cropper-go/internal/storage"
	"github.com/anime-shed/table-cropper-go/pkg/models"
	"github.com/anime-shed/table-cropper-go/pkg/validation"
)

const (
	defaultUploadName   = "uploaded.png"
	defaultDownloadName = "downloaded.png"
)

// sourceRepository resolves file uploads in place and URL references through an ImageFetcher
type sourceRepository struct {
	fetcher        storage.ImageFetcher
	contentTypes   *validation.ContentTypeValidator
	urls           *validation.URLValidator
	directLinkHost string
}

// NewSourceRepository creates a SourceRepository. Links on directLinkHost are
// rewritten to their direct-download form before being fetched. When
// allowedHosts is non-empty, URL sources outside it are rejected.
func NewSourceRepository(fetcher storage.ImageFetcher, directLinkHost string, allowedHosts ...string) SourceRepository {
	return &sourceRepository{
		fetcher:        fetcher,
		contentTypes:   validation.NewContentTypeValidator(),
		urls:           validation.NewURLValidatorWithOptions([]string{"http", "https"}, allowedHosts),
		directLinkHost: directLinkHost,
	}
}

// Resolve implements SourceRepository
func (r *sourceRepository) Resolve(ctx context.Context, source models.UploadSource) (models.RawImage, error) {
	switch source.Kind {
	case models.SourceFile:
		return r.resolveFile(source)
	case models.SourceURL:
		return r.resolveURL(ctx, source.URL)
	default:
		return models.RawImage{}, apperrors.NewInternalError("cannot resolve source", ErrUnknownSource)
	}
}

func (r *sourceRepository) resolveFile(source models.UploadSource) (models.RawImage, error) {
	if err := r.contentTypes.ValidateContentType(source.ContentType); err != nil {
		return models.RawImage{}, err
	}
	if len(source.Data) == 0 {
		return models.RawImage{}, apperrors.EmptyUpload()
	}
	name := source.Filename
	if name == "" {
		name = defaultUploadName
	}
	return models.RawImage{Data: source.Data, Filename: name}, nil
}

func (r *sourceRepository) resolveURL(ctx context.Context, rawURL string) (models.RawImage, error) {
	u := storage.NormalizeDownloadURL(strings.TrimSpace(rawURL), r.directLinkHost)
	if err := r.urls.ValidateImageURL(u); err != nil {
		return models.RawImage{}, apperrors.NewDownloadError("Failed to download image from URL", err)
	}

	data, err := r.fetcher.FetchImage(ctx, u)
	if err != nil {
		return models.RawImage{}, err
	}
	if len(data) == 0 {
		return models.RawImage{}, apperrors.NewDownloadError("Failed to download image from URL", apperrors.EmptyUpload())
	}
	return models.RawImage{Data: data, Filename: FilenameFromURL(u)}, nil
}

// FilenameFromURL is the last path segment of u, ignoring any query string.
func FilenameFromURL(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	if u == "" || strings.HasSuffix(u, "/") {
		return defaultDownloadName
	}
	name := path.Base(u)
	if name == "." || name == "/" || strings.HasSuffix(name, ":") {
		return defaultDownloadName
	}
	return name
}

// BaseName strips directories and the extension from filename.
func BaseName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	ext := path.Ext(name)
	if ext == name {
		// dotfiles like ".scan" have no extension
		return name
	}
	return strings.TrimSuffix(name, ext)
}
