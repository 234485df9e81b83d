package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	apperrors "github.com/anime-shed/table-cropper-go/internal/errors"
	"github.com/anime-shed/table-cropper-go/pkg/models"
)

// HostingPublisher uploads to a tmpfiles-style temporary file host: a multipart
// POST answered with {"status": "success", "data": {"url": ...}}.
type HostingPublisher struct {
	client   *resty.Client
	endpoint string
	host     string
	timeout  time.Duration
}

type uploadResponse struct {
	Status string `json:"status"`
	Data   struct {
		URL string `json:"url"`
	} `json:"data"`
}

// NewHostingPublisher creates a publisher for the given upload endpoint.
// Every upload is bounded by timeout.
func NewHostingPublisher(endpoint string, timeout time.Duration) (*HostingPublisher, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid upload endpoint %q", endpoint)
	}
	return &HostingPublisher{
		client:   resty.New().SetHeader("User-Agent", "Table-Cropper/1.0"),
		endpoint: endpoint,
		host:     u.Host,
		timeout:  timeout,
	}, nil
}

func (p *HostingPublisher) Name() string { return p.host }

// Publish implements Publisher
func (p *HostingPublisher) Publish(ctx context.Context, filename string, data []byte) (models.PublishedAsset, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	res, err := p.client.R().
		SetContext(ctx).
		SetMultipartField("file", filename, PNGContentType, bytes.NewReader(data)).
		Post(p.endpoint)
	if err != nil {
		return models.PublishedAsset{}, apperrors.PublishFailed(p.host, err)
	}

	if res.StatusCode() == http.StatusOK {
		var body uploadResponse
		if json.Unmarshal(res.Body(), &body) == nil && body.Status == "success" && body.Data.URL != "" {
			return models.PublishedAsset{
				Filename: filename,
				URL:      NormalizeDownloadURL(body.Data.URL, p.host),
			}, nil
		}
	}
	return models.PublishedAsset{}, apperrors.PublishFailed(p.host, fmt.Errorf("Upload failed: %s", res.String()))
}
