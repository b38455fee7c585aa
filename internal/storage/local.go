package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/idhub/backend/internal/logger"
)

// LocalStorage writes files into a single root upload directory.
type LocalStorage struct {
	root    string // absolute path of the upload directory
	dirName string // last path element, used in returned locations
}

// NewLocalStorage creates the upload directory if it doesn't exist.
func NewLocalStorage(uploadDir string) (*LocalStorage, error) {
	absPath, err := filepath.Abs(uploadDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload directory: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	logger.Info("Upload directory ready", map[string]interface{}{
		"path": absPath,
	})

	return &LocalStorage{
		root:    absPath,
		dirName: filepath.Base(absPath),
	}, nil
}

// Put writes data to root/name, replacing any existing file.
func (s *LocalStorage) Put(ctx context.Context, name string, data io.Reader, _ int64) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if !validName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, name)
	}

	dest := filepath.Join(s.root, name)
	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}

	logger.Debug("Stored upload", map[string]interface{}{
		"path": dest,
	})
	return s.dirName + "/" + name, nil
}

// Ping checks the upload directory is still there.
func (s *LocalStorage) Ping(_ context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.root)
	}
	return nil
}

// Root returns the absolute upload directory.
func (s *LocalStorage) Root() string {
	return s.root
}
