package storage

import (
	"bytes"
	"context"
	"fmt"
	"imgdiff/internal/retry"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3Storage struct {
	client *s3.Client
	config S3Config
}

type S3Config struct {
	Bucket string
	// Endpoint overrides the S3 endpoint, e.g. for MinIO. Defaults to
	// S3_ENDPOINT_URL.
	Endpoint string
	// MaxRetries bounds transport level retries on connection failures and
	// gateway errors.
	MaxRetries uint
}

// DefaultS3ConfigFor returns the configuration used for s3:// locations.
func DefaultS3ConfigFor(bucket string) S3Config {
	return S3Config{
		Bucket:     bucket,
		MaxRetries: 3,
	}
}

// NewS3Storage loads credentials and region from the default AWS chain.
func NewS3Storage(ctx context.Context, s S3Config) (Storage, error) {
	if s.Endpoint == "" {
		s.Endpoint = os.Getenv("S3_ENDPOINT_URL")
	}

	c, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	s3Client := s3.NewFromConfig(c, func(o *s3.Options) {
		o.UsePathStyle = true
		// retries are owned by the transport below
		o.Retryer = aws.NopRetryer{}
		o.HTTPClient = &http.Client{
			Transport: &retry.Transport{
				Strategy: retry.NewExponentialBackOff(100*time.Millisecond, 5*time.Second, s.MaxRetries, nil),
			},
		}
		if s.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.Endpoint)
		}
	})

	return &s3Storage{
		client: s3Client,
		config: s,
	}, nil
}

func (s *s3Storage) Put(ctx context.Context, key string, data []byte) (string, error) {
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(http.DetectContentType(data)),
	}); err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return s.url(key), nil
}

// Get accepts either a bare key or the URL returned by Put.
func (s *s3Storage) Get(ctx context.Context, key string) ([]byte, error) {
	key = strings.TrimPrefix(key, s.url(""))

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object: %w", err)
	}

	return data, nil
}

func (s *s3Storage) url(key string) string {
	return fmt.Sprintf("%s%s/%s", s3Scheme, s.config.Bucket, key)
}
