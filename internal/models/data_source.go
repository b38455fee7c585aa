package models

import (
	"strings"
	"time"
)

// Source types offered by the dashboard. The worker picks its processing path from
// this value; others are stored as-is.
const (
	SourceTypeCSVUpload              = "CSV_UPLOAD"
	SourceTypeAnomalyDetection       = "ANOMALY_DETECTION"
	SourceTypeRULPrediction          = "RUL_PREDICTION"
	SourceTypeQCVisualClassification = "QC_VISUAL_CLASSIFICATION"
)

type DataSource struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:255;not null;uniqueIndex"`
	SourceType  string    `json:"sourceType" gorm:"size:50;not null"`
	Location    *string   `json:"location" gorm:"size:1024"`
	Description *string   `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (DataSource) TableName() string {
	return "data_sources"
}

// HasLocation reports whether there is anything to analyze.
func (d *DataSource) HasLocation() bool {
	return d.Location != nil && strings.TrimSpace(*d.Location) != ""
}
