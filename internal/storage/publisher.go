package storage

import (
	"context"
	"strings"

	"github.com/anime-shed/table-cropper-go/pkg/models"
)

// PNGContentType is the content type of every published asset
const PNGContentType = "image/png"

// Publisher uploads encoded images and returns where they can be downloaded.
// Each call is a single attempt.
type Publisher interface {
	Publish(ctx context.Context, filename string, data []byte) (models.PublishedAsset, error)
	Name() string
}

// NormalizeDownloadURL upgrades http:// to https:// and, for links on host that
// lack a /dl/ segment, rewrites "host/" to "host/dl/" so the link serves raw bytes.
func NormalizeDownloadURL(rawURL, host string) string {
	u := rawURL
	if strings.HasPrefix(u, "http://") {
		u = "https://" + strings.TrimPrefix(u, "http://")
	}
	if host != "" && strings.Contains(u, host) && !strings.Contains(u, "/dl/") {
		u = strings.ReplaceAll(u, host+"/", host+"/dl/")
	}
	return u
}
