package main

import (
	"log"

	"github.com/temcen/bookrec/internal/app"
	"github.com/temcen/bookrec/internal/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := app.Run(cfg); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
