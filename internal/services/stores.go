package services

import (
	"context"

	"github.com/idhub/backend/internal/models"
	"github.com/idhub/backend/internal/repository"
)

// DataSourceStore is the persistence contract for data sources.
type DataSourceStore interface {
	Create(ctx context.Context, ds *models.DataSource) error
	FindByID(ctx context.Context, id uint) (*models.DataSource, error)
	FindAll(ctx context.Context) ([]models.DataSource, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Update(ctx context.Context, ds *models.DataSource) error
}

// AnalysisResultStore is the persistence contract for analysis jobs.
type AnalysisResultStore interface {
	Create(ctx context.Context, result *models.AnalysisResult) error
	FindByID(ctx context.Context, id uint) (*models.AnalysisResult, error)
	Update(ctx context.Context, result *models.AnalysisResult) error
	FindLatestByDataSourceID(ctx context.Context, dataSourceID uint) (*models.AnalysisResult, error)
	FindByDataSourceID(ctx context.Context, dataSourceID uint) ([]models.AnalysisResult, error)
}

var (
	_ DataSourceStore     = (*repository.DataSourceRepository)(nil)
	_ AnalysisResultStore = (*repository.AnalysisResultRepository)(nil)
)
