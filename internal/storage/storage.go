// Package storage links post media stored in S3-compatible object storage (MinIO).
// It only signs download URLs; uploads are handled by the files service.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const signingRegion = "us-east-1"

// Config holds object storage configuration
type Config struct {
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
	LinkTTL        time.Duration
}

// Enabled reports whether media linking is configured
func (c Config) Enabled() bool {
	return c.Endpoint != ""
}

// Validate checks the settings required once storage is enabled
func (c Config) Validate() error {
	if c.AccessKey == "" {
		return fmt.Errorf("S3_ACCESS_KEY environment variable is required")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("S3_SECRET_KEY environment variable is required")
	}
	if c.Bucket == "" {
		return fmt.Errorf("S3_BUCKET_NAME environment variable is required")
	}
	if c.LinkTTL <= 0 {
		return fmt.Errorf("media link TTL must be positive")
	}
	return nil
}

// Service signs download URLs for post media
type Service struct {
	client          *s3.Client
	publicPresigner *s3.PresignClient
	bucketName      string
	ttl             time.Duration
}

// New creates a storage service configured for MinIO
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	publicEndpoint := cfg.PublicEndpoint
	if publicEndpoint == "" {
		publicEndpoint = cfg.Endpoint
		logger.Info("Using internal endpoint for media links", "endpoint", cfg.Endpoint)
	} else {
		logger.Info("Using public endpoint for media links", "endpoint", publicEndpoint)
	}

	client, err := newClient(ctx, cfg, cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	// Links must be signed for the host the device will actually reach
	publicClient := client
	if publicEndpoint != cfg.Endpoint {
		publicClient, err = newClient(ctx, cfg, publicEndpoint)
		if err != nil {
			return nil, err
		}
	}

	return &Service{
		client:          client,
		publicPresigner: s3.NewPresignClient(publicClient),
		bucketName:      cfg.Bucket,
		ttl:             cfg.LinkTTL,
	}, nil
}

func newClient(ctx context.Context, cfg Config, endpoint string) (*s3.Client, error) {
	protocol := "http"
	if cfg.UseSSL {
		protocol = "https"
	}
	endpointURL := fmt.Sprintf("%s://%s", protocol, endpoint)

	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               endpointURL,
				SigningRegion:     signingRegion,
				HostnameImmutable: true,
			}, nil
		},
	)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(signingRegion),
		config.WithEndpointResolverWithOptions(resolver),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for %s: %w", endpoint, err)
	}

	// Path-style addressing is required for MinIO
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	}), nil
}

// MediaURL creates a presigned download URL for key valid for the link TTL
func (s *Service) MediaURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("file key cannot be empty")
	}

	request, err := s.publicPresigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.ttl
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL for key %s: %w", key, err)
	}

	return request.URL, nil
}

// Health checks if the bucket is accessible
func (s *Service) Health(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucketName),
	})
	if err != nil {
		return fmt.Errorf("storage health check failed: %w", err)
	}
	return nil
}
