package validation

import (
	"strings"

	apperrors "github.com/anime-shed/table-cropper-go/internal/errors"
)

// SupportedImageSuffixes are the declared content-type endings accepted for uploads
var SupportedImageSuffixes = []string{"jpeg", "jpg", "png", "bmp", "tiff"}

// ContentTypeValidator screens uploads by their declared content type.
// The check is advisory; the decoder still rejects malformed bytes.
type ContentTypeValidator struct {
	suffixes []string
}

func NewContentTypeValidator() *ContentTypeValidator {
	return &ContentTypeValidator{suffixes: SupportedImageSuffixes}
}

// ValidateContentType accepts contentType iff it case-insensitively ends with a supported suffix.
func (v *ContentTypeValidator) ValidateContentType(contentType string) error {
	ct := strings.ToLower(contentType)
	for _, suffix := range v.suffixes {
		if strings.HasSuffix(ct, suffix) {
			return nil
		}
	}
	return apperrors.UnsupportedMediaType()
}
