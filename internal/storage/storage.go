// Package storage persists uploaded data source files.
//
// Two backends exist: LocalStorage writes under a single root upload directory,
// MinioStorage writes objects under the same prefix in an S3-compatible bucket.
// Both return the location string recorded on the data source, which is
// "{uploadDirName}/{fileName}" in either case.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/idhub/backend/internal/config"
)

var (
	// ErrInvalidKey is returned for names that are empty or escape the upload root.
	ErrInvalidKey = errors.New("invalid storage key")
)

// Storage stores a blob under name and returns its location.
type Storage interface {
	Put(ctx context.Context, name string, data io.Reader, size int64) (string, error)
	Ping(ctx context.Context) error
}

// SourceFileName is the deterministic blob name for a data source upload:
// source_{id}_{original base name}.
func SourceFileName(dataSourceID uint, originalFilename string) string {
	base := filepath.Base(filepath.Clean(strings.ReplaceAll(originalFilename, "\\", "/")))
	if base == "." || base == "/" {
		base = ""
	}
	return fmt.Sprintf("source_%d_%s", dataSourceID, base)
}

// New builds the backend selected by cfg.Provider.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Provider {
	case config.StorageLocal:
		s, err := NewLocalStorage(cfg.UploadDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StorageMinio:
		s, err := NewMinioStorage(ctx, MinioConfig{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			UseSSL:    cfg.UseSSL,
			Prefix:    cfg.UploadDir,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
}

func validName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\`) && name != "." && name != ".."
}
