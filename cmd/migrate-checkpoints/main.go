// migrate-checkpoints copies ritual checkpoints from SQLite to PostgreSQL.
//
// Usage:
//
//	go run ./cmd/migrate-checkpoints \
//	    -sqlite data/ritual.db \
//	    -pg-host localhost \
//	    -pg-port 5432 \
//	    -pg-user ritual \
//	    -pg-password ritual \
//	    -pg-database ritual
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/lawnchairsociety/mazeritual/internal/database"
)

func main() {
	sqlitePath := flag.String("sqlite", "data/ritual.db", "Path to SQLite database")
	pgHost := flag.String("pg-host", "localhost", "PostgreSQL host")
	pgPort := flag.Int("pg-port", 5432, "PostgreSQL port")
	pgUser := flag.String("pg-user", "ritual", "PostgreSQL user")
	pgPassword := flag.String("pg-password", "ritual", "PostgreSQL password")
	pgDatabase := flag.String("pg-database", "ritual", "PostgreSQL database name")
	pgSSLMode := flag.String("pg-sslmode", "disable", "PostgreSQL SSL mode")
	dryRun := flag.Bool("dry-run", false, "Show what would be migrated without making changes")
	flag.Parse()

	log.Println("Checkpoint Migration Tool")
	log.Println("=========================")

	// Open would create an empty database
	if _, err := os.Stat(*sqlitePath); err != nil {
		log.Fatalf("SQLite database not found: %v", err)
	}

	log.Printf("Opening SQLite database: %s", *sqlitePath)
	src, err := database.Open(*sqlitePath)
	if err != nil {
		log.Fatalf("Failed to open SQLite database: %v", err)
	}
	defer src.Close()

	cfg := database.DefaultConfig("")
	cfg.Driver = "postgres"
	cfg.Postgres.Host = *pgHost
	cfg.Postgres.Port = *pgPort
	cfg.Postgres.User = *pgUser
	cfg.Postgres.Password = *pgPassword
	cfg.Postgres.Database = *pgDatabase
	cfg.Postgres.SSLMode = *pgSSLMode

	log.Printf("Opening PostgreSQL database: %s@%s:%d/%s", *pgUser, *pgHost, *pgPort, *pgDatabase)
	dst, err := database.OpenWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to open PostgreSQL database: %v", err)
	}
	defer dst.Close()

	if *dryRun {
		log.Println("DRY RUN MODE - No changes will be made")
	}

	log.Println("Migrating table: ritual_checkpoints")
	count, err := database.CopyCheckpoints(context.Background(), src, dst, *dryRun)
	if err != nil {
		log.Fatalf("Failed to migrate ritual_checkpoints: %v", err)
	}

	log.Println("=========================")
	log.Printf("Migration complete! Total rows migrated: %d", count)
	if *dryRun {
		log.Println("(DRY RUN - No actual changes were made)")
	}
}
