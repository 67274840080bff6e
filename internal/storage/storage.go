package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/campfirehq/campfire/pkg/config"
	"github.com/campfirehq/campfire/pkg/logging"
)

// Store is the blob storage capability consumed by the content engine for
// post attachments and community resources.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// FileStore is a filesystem-backed Store rooted at a configured directory
type FileStore struct {
	root   string
	logger *zap.Logger
}

// NewFileStore creates a new filesystem store
func NewFileStore(cfg *config.StorageConfig) (*FileStore, error) {
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &FileStore{
		root:   cfg.Root,
		logger: logging.GetLogger().With(zap.String("component", "file-store")),
	}, nil
}

// Put stores data under key
func (s *FileStore) Put(ctx context.Context, key string, data []byte) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}
	return nil
}

// Get retrieves data stored under key
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

// Delete removes the blob stored under key
func (s *FileStore) Delete(ctx context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// resolve maps a key to an on-disk path, rejecting traversal outside root
func (s *FileStore) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty storage key")
	}
	cleaned := filepath.Clean("/" + key)
	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid storage key: %s", key)
	}
	return filepath.Join(s.root, cleaned), nil
}

// NewKey generates a storage key under prefix, keeping the original file
// extension
func NewKey(prefix, fileName string) string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	ext := filepath.Ext(fileName)
	return prefix + "/" + hex.EncodeToString(buf) + ext
}
