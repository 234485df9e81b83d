package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Table processor backends
const (
	ProcessorBounds = "bounds"
	ProcessorOCR    = "ocr"
	ProcessorRemote = "remote"
)

// Publisher backends
const (
	PublisherTmpfiles = "tmpfiles"
	PublisherAzure    = "azure"
	PublisherS3       = "s3"
)

type Config struct {
	Host               string        `env:"HOST" envDefault:"0.0.0.0"`
	Port               string        `env:"PORT" envDefault:"8080"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	ServiceName        string        `env:"SERVICE_NAME" envDefault:"DKN Table Cropper API"`
	ServiceVersion     string        `env:"SERVICE_VERSION" envDefault:"1.0.0"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"120s"`
	ImageFetchTimeout  time.Duration `env:"IMAGE_FETCH_TIMEOUT" envDefault:"30s"`
	PublishTimeout     time.Duration `env:"PUBLISH_TIMEOUT" envDefault:"60s"`
	MaxRequestBodySize int64         `env:"MAX_REQUEST_BODY_SIZE" envDefault:"20971520"` // 20MB
	ImageURLHosts      []string      `env:"IMAGE_URL_ALLOWED_HOSTS" envSeparator:","`    // empty allows any host

	TableProcessor        string        `env:"TABLE_PROCESSOR" envDefault:"bounds"`
	TableProcessorURL     string        `env:"TABLE_PROCESSOR_URL"`
	TableProcessorTimeout time.Duration `env:"TABLE_PROCESSOR_TIMEOUT" envDefault:"60s"`
	OCRLanguage           string        `env:"OCR_LANGUAGE" envDefault:"eng"`
	CandidatePriority     []string      `env:"CANDIDATE_PRIORITY" envSeparator:"," envDefault:"perspective_corrected,cropped_table,original"`

	Publisher       string `env:"PUBLISHER" envDefault:"tmpfiles"`
	PublishEndpoint string `env:"PUBLISH_ENDPOINT" envDefault:"https://tmpfiles.org/api/v1/upload"`
	PublicBaseURL   string `env:"PUBLIC_BASE_URL"`

	AzureAccountName string `env:"AZURE_ACCOUNT_NAME"`
	AzureAccountKey  string `env:"AZURE_ACCOUNT_KEY"`
	AzureContainer   string `env:"AZURE_CONTAINER" envDefault:"table-crops"`

	S3Bucket          string `env:"S3_BUCKET"`
	S3Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	S3EndpointURL     string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// LoadFromEnv reads an optional .env file, then the process environment.
func LoadFromEnv() (*Config, error) {
	// A missing .env is the normal case outside local development
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and the settings each selected backend needs.
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.PublishTimeout <= 0 || c.TableProcessorTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, publish=%s, processor=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.PublishTimeout, c.TableProcessorTimeout)
	}
	if len(c.CandidatePriority) == 0 {
		return fmt.Errorf("CANDIDATE_PRIORITY must name at least one candidate")
	}

	switch c.TableProcessor {
	case ProcessorBounds, ProcessorOCR:
	case ProcessorRemote:
		if _, err := url.ParseRequestURI(c.TableProcessorURL); err != nil {
			return fmt.Errorf("TABLE_PROCESSOR_URL must be a valid URL when TABLE_PROCESSOR=remote: %q", c.TableProcessorURL)
		}
	default:
		return fmt.Errorf("unsupported TABLE_PROCESSOR: %q", c.TableProcessor)
	}

	switch c.Publisher {
	case PublisherTmpfiles:
		u, err := url.ParseRequestURI(c.PublishEndpoint)
		if err != nil || u.Host == "" {
			return fmt.Errorf("invalid PUBLISH_ENDPOINT: %q", c.PublishEndpoint)
		}
	case PublisherAzure:
		if c.AzureAccountName == "" || c.AzureAccountKey == "" {
			return fmt.Errorf("AZURE_ACCOUNT_NAME and AZURE_ACCOUNT_KEY are required when PUBLISHER=azure")
		}
	case PublisherS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when PUBLISHER=s3")
		}
	default:
		return fmt.Errorf("unsupported PUBLISHER: %q", c.Publisher)
	}
	return nil
}

// PublishHost is the host of the upload endpoint, used for naming and URL normalization.
func (c *Config) PublishHost() string {
	u, err := url.Parse(c.PublishEndpoint)
	if err != nil {
		return ""
	}
	return u.Host
}
