package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/idhub/backend/internal/logger"
	"github.com/idhub/backend/internal/services"
)

type DataSourceController struct {
	service *services.DataSourceService
}

func NewDataSourceController(service *services.DataSourceService) *DataSourceController {
	return &DataSourceController{service: service}
}

type CreateDataSourceRequest struct {
	Name        string  `json:"name" binding:"required"`
	SourceType  string  `json:"sourceType" binding:"required"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
}

// GetDataSources returns every data source, or 204 when there are none
func (dc *DataSourceController) GetDataSources(c *gin.Context) {
	sources, err := dc.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "data_source_controller")
		return
	}
	if len(sources) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, sources)
}

// GetDataSource returns a single data source
func (dc *DataSourceController) GetDataSource(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ds, err := dc.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "data_source_controller")
		return
	}
	c.JSON(http.StatusOK, ds)
}

// CreateDataSource registers a new data source
func (dc *DataSourceController) CreateDataSource(c *gin.Context) {
	var req CreateDataSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ds, err := dc.service.Register(c.Request.Context(), services.RegisterInput{
		Name:        req.Name,
		SourceType:  req.SourceType,
		Location:    req.Location,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err, "data_source_controller")
		return
	}
	c.JSON(http.StatusCreated, ds)
}

// UploadFile stores the multipart "file" field and points the data source at it
func (dc *DataSourceController) UploadFile(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	// A missing file is handled like an empty one so an unknown id still yields 404.
	var (
		filename string
		size     int64
	)
	file, err := c.FormFile("file")
	if err == nil {
		filename = file.Filename
		size = file.Size
	}
	if err != nil || size == 0 {
		_, attachErr := dc.service.AttachFile(c.Request.Context(), id, filename, 0, nil)
		respondError(c, attachErr, "data_source_controller")
		return
	}

	src, err := file.Open()
	if err != nil {
		logger.WithError(err, "data_source_controller").Error("Failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer src.Close()

	ds, err := dc.service.AttachFile(c.Request.Context(), id, filename, size, src)
	if err != nil {
		respondError(c, err, "data_source_controller")
		return
	}
	c.JSON(http.StatusOK, ds)
}
