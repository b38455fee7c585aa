package main

import (
	"context"
	"log"
	"os"

	"github.com/idhub/backend/internal/config"
	"github.com/idhub/backend/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	seedFile := cfg.SeedFile
	if len(os.Args) > 1 {
		seedFile = os.Args[1]
	}

	// Connect to database
	database, err := db.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations first
	log.Println("Running database migrations...")
	if err := db.AutoMigrate(database); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	// Seed database with sample data
	log.Printf("Seeding database from %s...", seedFile)
	seed, err := db.LoadSeedFile(seedFile)
	if err != nil {
		log.Fatalf("Error loading seed file: %v", err)
	}

	created, err := db.SeedDataSources(context.Background(), database, seed)
	if err != nil {
		log.Fatalf("Error seeding data sources: %v", err)
	}

	log.Printf("✅ Database seeding completed successfully! (%d data sources created)", created)
}
