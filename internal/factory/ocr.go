//go:build ocr

package factory

// Links the tesseract-backed processor into the registry.
import _ "github.com/anime-shed/table-cropper-go/internal/tableproc/ocrbounds"
