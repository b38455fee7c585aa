package db

import (
	"fmt"
	"time"

	"github.com/idhub/backend/internal/config"
	"github.com/idhub/backend/internal/logger"
	"github.com/idhub/backend/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect opens the database selected by cfg.Driver.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN())
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.DSN())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Error),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.Driver == config.DriverSQLite {
		// sqlite serializes writers; one connection avoids SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	logger.Info("Database connected successfully", map[string]interface{}{
		"driver": cfg.Driver,
	})
	return db, nil
}

// AutoMigrate runs database migrations
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.DataSource{}); err != nil {
		return fmt.Errorf("data_sources migration failed: %w", err)
	}
	logger.Debug("data_sources table migrated successfully", nil)

	if err := db.AutoMigrate(&models.AnalysisResult{}); err != nil {
		return fmt.Errorf("analysis_results migration failed: %w", err)
	}
	logger.Debug("analysis_results table migrated successfully", nil)

	logger.Info("All database migrations completed successfully", nil)
	return nil
}

// Ping checks database connectivity for the health endpoint.
func Ping(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection not initialized")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
