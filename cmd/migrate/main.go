package main

import (
	"log"

	"github.com/idhub/backend/internal/config"
	"github.com/idhub/backend/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Connect to database
	database, err := db.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	log.Println("Running database migrations...")
	if err := db.AutoMigrate(database); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("✅ Database migrations completed successfully!")
}
