package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	_ "github.com/lib/pq"
	"github.com/vncsmyrnk/livepoll/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/livepoll/internal/config"
)

// Runs every up migration, or a single one when a name such as
// "create_votes.down" is given.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open("postgres", cfg.Database.ConnString())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()

	if len(os.Args) < 2 {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatal(err)
		}
		log.Println("All migrations executed successfully.")
		return
	}

	name, content, err := postgres.MigrationFile(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}

	if _, err := db.ExecContext(ctx, string(content)); err != nil {
		log.Fatalf("Failed to execute SQL file %s: %v", name, err)
	}

	log.Printf("Migration file %s executed successfully.", name)
}
