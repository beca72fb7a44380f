package main

import (
	"log"
	"os"
	"strconv"

	"github.com/safar/storefront/internal/config"
	"github.com/safar/storefront/internal/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down [steps]]")
	}

	direction := os.Args[1]
	if direction != "up" && direction != "down" {
		log.Fatal("Direction must be 'up' or 'down'")
	}

	steps := 0
	if len(os.Args) > 2 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil || n < 0 {
			log.Fatalf("Invalid step count %q", os.Args[2])
		}
		steps = n
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	if direction == "up" {
		err = database.MigrateUp(db, cfg.Database.MigrationsDir)
	} else {
		err = database.MigrateDown(db, cfg.Database.MigrationsDir, steps)
	}
	if err != nil {
		log.Fatalf("Run migrations: %v", err)
	}

	log.Printf("Successfully ran migrations %s from %s", direction, cfg.Database.MigrationsDir)
}
