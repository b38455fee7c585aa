package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/idhub/backend/internal/controllers"
	"github.com/idhub/backend/internal/middleware"
	"github.com/idhub/backend/internal/queue"
	"github.com/idhub/backend/internal/repository"
	"github.com/idhub/backend/internal/services"
	"github.com/idhub/backend/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// SetupRoutes configures all application routes. CORS applies to /api only.
func SetupRoutes(r *gin.Engine, db *gorm.DB, publisher queue.Publisher, files storage.Storage, corsOrigin string) {
	// Initialize repositories
	dataSourceRepo := repository.NewDataSourceRepository(db)
	analysisRepo := repository.NewAnalysisResultRepository(db)

	// Initialize services
	dataSourceService := services.NewDataSourceService(dataSourceRepo, files)
	analysisService := services.NewAnalysisService(dataSourceRepo, analysisRepo, publisher)

	// Initialize controllers
	dataSourceController := controllers.NewDataSourceController(dataSourceService)
	analysisController := controllers.NewAnalysisController(analysisService)
	healthController := controllers.NewHealthController(db, publisher, files)

	r.GET("/health", healthController.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := r.Group("/api")
	api.Use(middleware.CORS(corsOrigin))
	{
		// Preflight requests match no other route; CORS answers them before this handler runs
		api.OPTIONS("/*path", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})

		datasources := api.Group("/datasources")
		{
			datasources.GET("", dataSourceController.GetDataSources)
			datasources.POST("", dataSourceController.CreateDataSource)
			datasources.GET("/:id", dataSourceController.GetDataSource)
			datasources.POST("/:id/upload", dataSourceController.UploadFile)
			datasources.POST("/:id/analyze", analysisController.AnalyzeDataSource)
			datasources.GET("/:id/analyses", analysisController.GetAnalysisHistory)
			datasources.GET("/analysis/latest/:dataSourceId", analysisController.GetLatestAnalysis)
		}

		api.GET("/analysis/:id", analysisController.GetAnalysis)
	}
}
