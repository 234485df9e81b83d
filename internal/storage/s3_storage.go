package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	apperrors "github.com/anime-shed/table-cropper-go/internal/errors"
	"github.com/anime-shed/table-cropper-go/pkg/models"
)

type S3StorageConfig struct {
	Bucket          string
	Region          string
	EndpointURL     string // set for MinIO and other S3-compatible stores
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string // when set, URLs are PublicBaseURL/<key> instead of the upload location
}

type s3Storage struct {
	uploader *manager.Uploader
	cfg      S3StorageConfig
	timeout  time.Duration
}

// NewS3Storage creates a Publisher backed by an S3 bucket.
func NewS3Storage(ctx context.Context, cfg S3StorageConfig, timeout time.Duration) (Publisher, error) {
	opts := []func(*aws_config.LoadOptions) error{aws_config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, aws_config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := aws_config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true // path-style addressing for MinIO
		}
	})

	return &s3Storage{
		uploader: manager.NewUploader(client),
		cfg:      cfg,
		timeout:  timeout,
	}, nil
}

func (s *s3Storage) Name() string { return "s3://" + s.cfg.Bucket }

func (s *s3Storage) Publish(ctx context.Context, filename string, data []byte) (models.PublishedAsset, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	key := ObjectKey(filename)
	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(PNGContentType),
	})
	if err != nil {
		return models.PublishedAsset{}, apperrors.PublishFailed(s.Name(), err)
	}

	location := out.Location
	if s.cfg.PublicBaseURL != "" {
		location = strings.TrimSuffix(s.cfg.PublicBaseURL, "/") + "/" + escapeKey(key)
	}
	if location == "" {
		return models.PublishedAsset{}, apperrors.PublishFailed(s.Name(), fmt.Errorf("upload returned no location for %s", key))
	}
	return models.PublishedAsset{Filename: filename, URL: location}, nil
}
