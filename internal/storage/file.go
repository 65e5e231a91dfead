package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

type fileStorage struct {
	config FileConfig
}

type FileConfig struct {
	Directory string
}

// NewFileStorage creates a new file storage backend
func NewFileStorage(ctx context.Context, f FileConfig) (Storage, error) {
	if f.Directory == "" {
		f.Directory = "."
	}

	return &fileStorage{
		config: f,
	}, nil
}

// Put replaces the file atomically: readers see either the old content or
// the new one, never a partial write.
func (a *fileStorage) Put(ctx context.Context, key string, data []byte) (string, error) {
	filePath := a.path(key)
	directory := filepath.Dir(filePath)

	if err := os.MkdirAll(directory, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	temporary, err := os.CreateTemp(directory, "."+filepath.Base(filePath)+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(temporary.Name())

	if _, err := temporary.Write(data); err != nil {
		_ = temporary.Close()
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := temporary.Close(); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Chmod(temporary.Name(), 0644); err != nil {
		return "", fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(temporary.Name(), filePath); err != nil {
		return "", fmt.Errorf("failed to replace file: %w", err)
	}

	return filePath, nil
}

func (a *fileStorage) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(a.path(key))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return data, nil
}

func (a *fileStorage) path(key string) string {
	if filepath.IsAbs(key) {
		return key
	}
	return filepath.Join(a.config.Directory, key)
}
