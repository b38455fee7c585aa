package repository

import (
	"context"
	"fmt"

	"github.com/idhub/backend/internal/models"
	"gorm.io/gorm"
)

type DataSourceRepository struct {
	db *gorm.DB
}

func NewDataSourceRepository(db *gorm.DB) *DataSourceRepository {
	return &DataSourceRepository{db: db}
}

// Create inserts a new data source. The unique index on name is the final
// arbiter; a violation comes back as ErrDuplicate.
func (r *DataSourceRepository) Create(ctx context.Context, ds *models.DataSource) error {
	if err := r.db.WithContext(ctx).Create(ds).Error; err != nil {
		return fmt.Errorf("failed to create data source: %w", translate(err))
	}
	return nil
}

func (r *DataSourceRepository) FindByID(ctx context.Context, id uint) (*models.DataSource, error) {
	var ds models.DataSource
	if err := r.db.WithContext(ctx).First(&ds, id).Error; err != nil {
		return nil, translate(err)
	}
	return &ds, nil
}

func (r *DataSourceRepository) FindByName(ctx context.Context, name string) (*models.DataSource, error) {
	var ds models.DataSource
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&ds).Error; err != nil {
		return nil, translate(err)
	}
	return &ds, nil
}

func (r *DataSourceRepository) FindAll(ctx context.Context) ([]models.DataSource, error) {
	var sources []models.DataSource
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&sources).Error; err != nil {
		return nil, fmt.Errorf("failed to list data sources: %w", err)
	}
	return sources, nil
}

func (r *DataSourceRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.DataSource{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check data source name: %w", err)
	}
	return count > 0, nil
}

// Update persists every column of ds and refreshes UpdatedAt.
func (r *DataSourceRepository) Update(ctx context.Context, ds *models.DataSource) error {
	if err := r.db.WithContext(ctx).Save(ds).Error; err != nil {
		return fmt.Errorf("failed to update data source: %w", translate(err))
	}
	return nil
}
