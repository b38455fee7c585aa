package repository

import (
	"context"
	"fmt"

	"github.com/idhub/backend/internal/models"
	"gorm.io/gorm"
)

// newestFirst orders jobs by creation time with the id as tiebreak, so two
// rows created in the same clock tick still come back in insertion order.
const newestFirst = "created_at DESC, id DESC"

type AnalysisResultRepository struct {
	db *gorm.DB
}

func NewAnalysisResultRepository(db *gorm.DB) *AnalysisResultRepository {
	return &AnalysisResultRepository{db: db}
}

func (r *AnalysisResultRepository) Create(ctx context.Context, result *models.AnalysisResult) error {
	if err := r.db.WithContext(ctx).Create(result).Error; err != nil {
		return fmt.Errorf("failed to create analysis result: %w", translate(err))
	}
	return nil
}

func (r *AnalysisResultRepository) FindByID(ctx context.Context, id uint) (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	if err := r.db.WithContext(ctx).First(&result, id).Error; err != nil {
		return nil, translate(err)
	}
	return &result, nil
}

func (r *AnalysisResultRepository) Update(ctx context.Context, result *models.AnalysisResult) error {
	if err := r.db.WithContext(ctx).Save(result).Error; err != nil {
		return fmt.Errorf("failed to update analysis result: %w", translate(err))
	}
	return nil
}

// FindLatestByDataSourceID returns the most recent job for a data source.
func (r *AnalysisResultRepository) FindLatestByDataSourceID(ctx context.Context, dataSourceID uint) (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	err := r.db.WithContext(ctx).
		Where("data_source_id = ?", dataSourceID).
		Order(newestFirst).
		Take(&result).Error
	if err != nil {
		return nil, translate(err)
	}
	return &result, nil
}

// FindByDataSourceID returns every job for a data source, newest first.
func (r *AnalysisResultRepository) FindByDataSourceID(ctx context.Context, dataSourceID uint) ([]models.AnalysisResult, error) {
	var results []models.AnalysisResult
	err := r.db.WithContext(ctx).
		Where("data_source_id = ?", dataSourceID).
		Order(newestFirst).
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis results: %w", err)
	}
	return results, nil
}

// Count returns the number of jobs recorded for a data source.
func (r *AnalysisResultRepository) Count(ctx context.Context, dataSourceID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.AnalysisResult{}).
		Where("data_source_id = ?", dataSourceID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count analysis results: %w", err)
	}
	return count, nil
}
