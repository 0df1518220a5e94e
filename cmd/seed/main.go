// Seeds a development database with demo users, links, pages, and a month
// of click/view traffic.
//
// Usage:
//
//	go run ./cmd/seed            # add 25 demo users
//	go run ./cmd/seed -users 100
//	go run ./cmd/seed -clear     # wipe all data first
package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/andreajoa/linktree/backend/internal/config"
	"github.com/andreajoa/linktree/backend/internal/database"
	"github.com/andreajoa/linktree/backend/internal/logger"
	"github.com/andreajoa/linktree/backend/internal/seed"
)

func main() {
	users := flag.Int("users", 25, "number of demo users to create")
	clear := flag.Bool("clear", false, "delete all existing data before seeding")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	seeder := seed.NewSeeder(db)
	if *clear {
		if err := seeder.Clear(); err != nil {
			log.Fatalf("Failed to clear database: %v", err)
		}
	}
	if err := seeder.SeedDev(*users); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
