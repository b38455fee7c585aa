package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/idhub/backend/internal/logger"
	"github.com/idhub/backend/internal/middleware"
	"github.com/idhub/backend/internal/services"
)

type AnalysisController struct {
	service *services.AnalysisService
}

func NewAnalysisController(service *services.AnalysisService) *AnalysisController {
	return &AnalysisController{service: service}
}

// AnalyzeDataSource dispatches an analysis job and answers 202 with the PENDING row.
// When the queue rejects the job the FAILED row is returned with a 500.
func (ac *AnalysisController) AnalyzeDataSource(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	job, err := ac.service.Dispatch(c.Request.Context(), id)
	if err != nil {
		if job != nil && errors.Is(err, services.ErrDownstream) {
			logger.WithError(err, "analysis_controller").WithField("request_id", middleware.GetRequestID(c)).
				Error("Analysis job could not be enqueued")
			c.JSON(http.StatusInternalServerError, job)
			return
		}
		respondError(c, err, "analysis_controller")
		return
	}
	c.JSON(http.StatusAccepted, job)
}

// GetLatestAnalysis returns the newest job for a data source
func (ac *AnalysisController) GetLatestAnalysis(c *gin.Context) {
	id, ok := parseID(c, "dataSourceId")
	if !ok {
		return
	}

	result, err := ac.service.LatestResult(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "analysis_controller")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetAnalysisHistory lists every job for a data source, newest first
func (ac *AnalysisController) GetAnalysisHistory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	results, err := ac.service.History(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "analysis_controller")
		return
	}
	c.JSON(http.StatusOK, results)
}

// GetAnalysis returns one job by id
func (ac *AnalysisController) GetAnalysis(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	result, err := ac.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "analysis_controller")
		return
	}
	c.JSON(http.StatusOK, result)
}
