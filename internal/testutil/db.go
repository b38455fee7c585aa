// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/idhub/backend/internal/config"
	"github.com/idhub/backend/internal/db"
	"gorm.io/gorm"
)

// NewTestDB returns a migrated sqlite database in a per-test temp directory.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := db.Connect(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Name:   filepath.Join(t.TempDir(), "idhub_test.db"),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}
