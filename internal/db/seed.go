package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/idhub/backend/internal/logger"
	"github.com/idhub/backend/internal/models"
	"github.com/idhub/backend/internal/repository"
	"gorm.io/gorm"
)

// DataSourceSeed is one entry of the seed file
type DataSourceSeed struct {
	Name        string  `json:"name"`
	SourceType  string  `json:"sourceType"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
}

// SeedFile represents the structure of the seed JSON file
type SeedFile struct {
	DataSources []DataSourceSeed `json:"dataSources"`
}

// LoadSeedFile reads a seed file from disk
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

// SeedDataSources creates the seeded data sources that don't exist yet and
// returns how many were created. Existing names are left untouched.
func SeedDataSources(ctx context.Context, db *gorm.DB, seed *SeedFile) (int, error) {
	repo := repository.NewDataSourceRepository(db)
	created := 0
	for _, s := range seed.DataSources {
		if s.Name == "" || s.SourceType == "" {
			logger.Warn("Skipping seed entry without name or sourceType", map[string]interface{}{
				"name": s.Name,
			})
			continue
		}

		_, err := repo.FindByName(ctx, s.Name)
		if err == nil {
			logger.Debug("Data source already exists", map[string]interface{}{
				"name": s.Name,
			})
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return created, fmt.Errorf("failed to look up data source %q: %w", s.Name, err)
		}

		ds := models.DataSource{
			Name:        s.Name,
			SourceType:  s.SourceType,
			Location:    s.Location,
			Description: s.Description,
		}
		if err := repo.Create(ctx, &ds); err != nil {
			return created, fmt.Errorf("failed to create data source %q: %w", s.Name, err)
		}
		created++
		logger.Info("Created data source", map[string]interface{}{
			"id":          ds.ID,
			"name":        ds.Name,
			"source_type": ds.SourceType,
		})
	}
	return created, nil
}
