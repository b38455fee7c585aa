package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/idhub/backend/internal/db"
	"github.com/idhub/backend/internal/queue"
	"github.com/idhub/backend/internal/storage"
	"gorm.io/gorm"
)

const Version = "1.0.0"

type HealthController struct {
	db        *gorm.DB
	publisher queue.Publisher
	files     storage.Storage
}

func NewHealthController(database *gorm.DB, publisher queue.Publisher, files storage.Storage) *HealthController {
	return &HealthController{
		db:        database,
		publisher: publisher,
		files:     files,
	}
}

func componentStatus(err error) gin.H {
	if err != nil {
		return gin.H{"status": "error", "error": err.Error()}
	}
	return gin.H{"status": "ok"}
}

// Health reports database, queue and storage connectivity
func (hc *HealthController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dbErr := db.Ping(hc.db)
	queueErr := hc.publisher.Ping(ctx)
	storageErr := hc.files.Ping(ctx)

	overallStatus := "ok"
	statusCode := http.StatusOK
	if dbErr != nil || queueErr != nil || storageErr != nil {
		overallStatus = "error"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
		"services": gin.H{
			"database": componentStatus(dbErr),
			"queue":    componentStatus(queueErr),
			"storage":  componentStatus(storageErr),
		},
	})
}
