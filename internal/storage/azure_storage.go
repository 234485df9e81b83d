package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/google/uuid"

	apperrors "github.com/anime-shed/table-cropper-go/internal/errors"
	"github.com/anime-shed/table-cropper-go/pkg/models"
)

type azureStorage struct {
	client    *azblob.Client
	container string
	timeout   time.Duration
}

// NewAzureStorage creates a Publisher that stores assets as blobs in container.
// The returned URL is the blob URL, so the container needs public read access.
func NewAzureStorage(accountName, accountKey, container string, timeout time.Duration) (Publisher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure client: %w", err)
	}

	return &azureStorage{client: client, container: container, timeout: timeout}, nil
}

func (s *azureStorage) Name() string { return "azure blob storage" }

func (s *azureStorage) Publish(ctx context.Context, filename string, data []byte) (models.PublishedAsset, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	blobName := ObjectKey(filename)
	_, err := s.client.UploadBuffer(ctx, s.container, blobName, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(PNGContentType)},
	})
	if err != nil {
		return models.PublishedAsset{}, apperrors.PublishFailed(s.Name(), err)
	}

	blobURL := strings.TrimSuffix(s.client.URL(), "/") + "/" + url.PathEscape(s.container) + "/" + escapeKey(blobName)
	return models.PublishedAsset{Filename: filename, URL: blobURL}, nil
}

// ObjectKey prefixes filename with a random id so uploads never collide.
func ObjectKey(filename string) string {
	return uuid.NewString() + "/" + filename
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
