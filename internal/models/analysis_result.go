package models

import (
	"time"

	"gorm.io/datatypes"
)

type AnalysisStatus string

// Only PENDING and FAILED are written by this service. RUNNING and COMPLETED
// are set by the external worker.
const (
	AnalysisStatusPending   AnalysisStatus = "PENDING"
	AnalysisStatusRunning   AnalysisStatus = "RUNNING"
	AnalysisStatusCompleted AnalysisStatus = "COMPLETED"
	AnalysisStatusFailed    AnalysisStatus = "FAILED"
)

// AnalysisTypeAnomalyDetection is the only analysis type recorded on new jobs.
const AnalysisTypeAnomalyDetection = "ANOMALY_DETECTION"

type AnalysisResult struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	DataSourceID      uint           `json:"dataSourceId" gorm:"not null;index"`
	AnalysisType      string         `json:"analysisType" gorm:"size:100;not null"`
	Status            AnalysisStatus `json:"status" gorm:"size:50;not null"`
	ResultSummary     *string        `json:"resultSummary" gorm:"type:text"`
	ErrorMessage      *string        `json:"errorMessage" gorm:"type:text"`
	ResultDetailsJSON datatypes.JSON `json:"resultDetailsJson" gorm:"column:result_details_json"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

func (AnalysisResult) TableName() string {
	return "analysis_results"
}

// NewPendingAnalysis returns an unsaved job row for the given data source.
func NewPendingAnalysis(dataSourceID uint) *AnalysisResult {
	return &AnalysisResult{
		DataSourceID: dataSourceID,
		AnalysisType: AnalysisTypeAnomalyDetection,
		Status:       AnalysisStatusPending,
	}
}

// MarkFailed moves the job to FAILED with the given reason.
func (a *AnalysisResult) MarkFailed(reason string) {
	a.Status = AnalysisStatusFailed
	a.ErrorMessage = &reason
}
