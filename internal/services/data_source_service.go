package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/idhub/backend/internal/logger"
	"github.com/idhub/backend/internal/metrics"
	"github.com/idhub/backend/internal/models"
	"github.com/idhub/backend/internal/repository"
	"github.com/idhub/backend/internal/storage"
)

// RegisterInput is the registration payload. ID and timestamps are always
// assigned by the store.
type RegisterInput struct {
	Name        string
	SourceType  string
	Location    *string
	Description *string
}

type DataSourceService struct {
	store DataSourceStore
	files storage.Storage
}

func NewDataSourceService(store DataSourceStore, files storage.Storage) *DataSourceService {
	return &DataSourceService{
		store: store,
		files: files,
	}
}

// List returns every registered data source.
func (s *DataSourceService) List(ctx context.Context) ([]models.DataSource, error) {
	sources, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list data sources: %w", err)
	}
	return sources, nil
}

// Get returns one data source or ErrNotFound.
func (s *DataSourceService) Get(ctx context.Context, id uint) (*models.DataSource, error) {
	ds, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("data source %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get data source %d: %w", id, err)
	}
	return ds, nil
}

// Register creates a data source. A taken name yields ErrConflict and leaves
// the existing row untouched.
func (s *DataSourceService) Register(ctx context.Context, in RegisterInput) (*models.DataSource, error) {
	name := strings.TrimSpace(in.Name)
	sourceType := strings.TrimSpace(in.SourceType)
	if name == "" || sourceType == "" {
		return nil, fmt.Errorf("name and sourceType are required: %w", ErrInvalidInput)
	}

	exists, err := s.store.ExistsByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check data source name: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("data source %q: %w", name, ErrConflict)
	}

	ds := &models.DataSource{
		Name:        name,
		SourceType:  sourceType,
		Location:    in.Location,
		Description: in.Description,
	}
	if err := s.store.Create(ctx, ds); err != nil {
		// lost a race with a concurrent registration of the same name
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("data source %q: %w", name, ErrConflict)
		}
		return nil, fmt.Errorf("failed to create data source: %w", err)
	}

	metrics.DataSourcesRegistered.Inc()
	logger.WithDataSource(ds.ID).WithFields(map[string]interface{}{
		"name":        ds.Name,
		"source_type": ds.SourceType,
	}).Info("Data source registered")
	return ds, nil
}

// AttachFile stores an uploaded file as source_{id}_{filename} and records
// its location on the data source.
func (s *DataSourceService) AttachFile(ctx context.Context, id uint, filename string, size int64, data io.Reader) (*models.DataSource, error) {
	ds, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("uploaded file is empty: %w", ErrInvalidInput)
	}

	name := storage.SourceFileName(ds.ID, filename)
	location, err := s.files.Put(ctx, name, data, size)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		logger.WithError(err, "data_source_service").Error("Failed to store uploaded file")
		return nil, fmt.Errorf("failed to store file for data source %d: %w: %w", id, ErrStorage, err)
	}

	ds.Location = &location
	if err := s.store.Update(ctx, ds); err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to record file location for data source %d: %w: %w", id, ErrStorage, err)
	}

	metrics.UploadsTotal.WithLabelValues("stored").Inc()
	metrics.UploadBytes.Add(float64(size))
	logger.WithDataSource(ds.ID).WithFields(map[string]interface{}{
		"location": location,
		"size":     size,
	}).Info("File attached to data source")
	return ds, nil
}
