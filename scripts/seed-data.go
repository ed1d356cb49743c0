//go:build ignore

// Seeds a BookHub database with the demo accounts and sample books.
//
//	go run scripts/seed-data.go [db-path]
package main

import (
	"context"
	"log"
	"os"

	"github.com/binhbb2204/bookhub/internal/devserver"
	"github.com/binhbb2204/bookhub/pkg/database"
)

func main() {
	dbPath := "data/bookhub.db"
	if len(os.Args) > 1 {
		dbPath = os.Args[1]
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.CreateAPITables(db); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}
	if err := devserver.Seed(context.Background(), db); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	log.Printf("Seeded %s", dbPath)
}
