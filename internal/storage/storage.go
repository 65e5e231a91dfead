package storage

import (
	"context"
	"fmt"
	"strings"
)

type Storage interface {
	// Put stores data with the given key and returns the storage URL
	Put(ctx context.Context, key string, data []byte) (string, error)
	// Get retrieves the data stored with the given key
	Get(ctx context.Context, key string) ([]byte, error)
}

const s3Scheme = "s3://"

// Open returns the backend serving location together with the key of
// location inside it. s3://bucket/key goes to S3, anything else is a path
// on the local filesystem.
func Open(ctx context.Context, location string) (Storage, string, error) {
	if !strings.HasPrefix(location, s3Scheme) {
		s, err := NewFileStorage(ctx, FileConfig{})
		if err != nil {
			return nil, "", err
		}
		return s, location, nil
	}

	bucket, key, ok := splitS3Location(location)
	if !ok {
		return nil, "", fmt.Errorf("invalid S3 location %q: want s3://bucket/key", location)
	}

	s, err := NewS3Storage(ctx, DefaultS3ConfigFor(bucket))
	if err != nil {
		return nil, "", err
	}
	return s, key, nil
}

func splitS3Location(location string) (string, string, bool) {
	rest, found := strings.CutPrefix(location, s3Scheme)
	if !found {
		return "", "", false
	}

	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}

	return bucket, key, true
}
