package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/anime-shed/table-cropper-go/internal/errors"
)

// ImageFetcher downloads the raw bytes of a remote image
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)
}

// HTTPImageFetcher implements ImageFetcher with a single bounded GET
type HTTPImageFetcher struct {
	client  *http.Client
	maxSize int64
}

// NewHTTPImageFetcher creates an HTTP image fetcher whose requests are bounded by timeout.
// Bodies larger than maxSize are rejected.
func NewHTTPImageFetcher(timeout time.Duration, maxSize int64) *HTTPImageFetcher {
	// Transport tuned for single image downloads
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 16 << 10,
	}

	return &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,

			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		maxSize: maxSize,
	}
}

// FetchImage performs one GET. Non-200 answers and transport failures are
// download errors; nothing is retried.
func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, apperrors.NewDownloadError("Failed to download image from URL", err)
	}

	req.Header.Set("Accept", "image/png, image/jpeg, image/bmp, image/tiff, */*")
	req.Header.Set("User-Agent", "Table-Cropper/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, apperrors.NewDownloadError("Failed to download image from URL", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewDownloadError(fmt.Sprintf("Failed to download image: HTTP %d", resp.StatusCode), nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxSize+1))
	if err != nil {
		return nil, apperrors.NewDownloadError("Failed to download image from URL", err)
	}
	if int64(len(data)) > h.maxSize {
		return nil, apperrors.NewDownloadError("Failed to download image from URL",
			fmt.Errorf("image exceeds %d bytes", h.maxSize))
	}
	return data, nil
}
