package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/idhub/backend/internal/logger"
	"github.com/idhub/backend/internal/metrics"
	"github.com/idhub/backend/internal/models"
	"github.com/idhub/backend/internal/queue"
	"github.com/idhub/backend/internal/repository"
)

const compensationTimeout = 10 * time.Second

// AnalysisService turns analysis requests into job rows plus queue messages,
// and answers status polls.
type AnalysisService struct {
	sources   DataSourceStore
	results   AnalysisResultStore
	publisher queue.Publisher
}

func NewAnalysisService(sources DataSourceStore, results AnalysisResultStore, publisher queue.Publisher) *AnalysisService {
	return &AnalysisService{
		sources:   sources,
		results:   results,
		publisher: publisher,
	}
}

// Dispatch creates a PENDING job for the data source and publishes it once.
//
// The row is persisted before anything is published, so a worker never sees a
// message for a job it cannot read. If the publish fails the same row is moved
// to FAILED and returned alongside an error wrapping ErrDownstream.
// Repeated calls create independent jobs.
func (s *AnalysisService) Dispatch(ctx context.Context, dataSourceID uint) (*models.AnalysisResult, error) {
	ds, err := s.sources.FindByID(ctx, dataSourceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("data source %d: %w", dataSourceID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load data source %d: %w", dataSourceID, err)
	}

	if !ds.HasLocation() {
		return nil, fmt.Errorf("data source %d has no file to analyze: %w", dataSourceID, ErrInvalidInput)
	}

	job := models.NewPendingAnalysis(ds.ID)
	if err := s.results.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create analysis job: %w: %w", ErrStorage, err)
	}

	log := logger.WithAnalysis(job.ID, ds.ID)

	msg := queue.AnalysisMessage{
		AnalysisResultID: job.ID,
		DataSourceID:     ds.ID,
		FilePath:         *ds.Location,
		AnalysisType:     ds.SourceType,
	}

	if pubErr := s.publisher.PublishAnalysis(ctx, msg); pubErr != nil {
		metrics.AnalysisDispatchTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		log.WithField("error", pubErr.Error()).Error("Failed to enqueue analysis job")

		job.MarkFailed(fmt.Sprintf("failed to enqueue analysis job: %v", pubErr))
		if err := s.markFailed(ctx, job); err != nil {
			log.WithField("error", err.Error()).Error("Failed to mark analysis job as FAILED")
			return job, fmt.Errorf("publish analysis job %d: %w: %w (marking failed: %w: %w)",
				job.ID, ErrDownstream, pubErr, ErrStorage, err)
		}
		return job, fmt.Errorf("publish analysis job %d: %w: %w", job.ID, ErrDownstream, pubErr)
	}

	metrics.AnalysisDispatchTotal.WithLabelValues(metrics.OutcomeAccepted).Inc()
	log.WithField("source_type", ds.SourceType).Info("Analysis job enqueued")
	return job, nil
}

// markFailed persists the FAILED transition even when ctx has already been
// cancelled, so an aborted request never leaves the row PENDING.
func (s *AnalysisService) markFailed(ctx context.Context, job *models.AnalysisResult) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()
	return s.results.Update(ctx, job)
}

// LatestResult returns the newest job for a data source, or ErrNotFound when
// nothing has been dispatched yet.
func (s *AnalysisService) LatestResult(ctx context.Context, dataSourceID uint) (*models.AnalysisResult, error) {
	result, err := s.results.FindLatestByDataSourceID(ctx, dataSourceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("no analysis for data source %d: %w", dataSourceID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get latest analysis: %w", err)
	}
	return result, nil
}

// History returns every job for a data source, newest first.
func (s *AnalysisService) History(ctx context.Context, dataSourceID uint) ([]models.AnalysisResult, error) {
	if _, err := s.sources.FindByID(ctx, dataSourceID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("data source %d: %w", dataSourceID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load data source %d: %w", dataSourceID, err)
	}

	results, err := s.results.FindByDataSourceID(ctx, dataSourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return results, nil
}

// Get returns a single job by id.
func (s *AnalysisService) Get(ctx context.Context, id uint) (*models.AnalysisResult, error) {
	result, err := s.results.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("analysis %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get analysis %d: %w", id, err)
	}
	return result, nil
}
