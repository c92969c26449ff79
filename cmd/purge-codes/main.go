package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/yourusername/accounts-api/internal/config"
)

// Maintenance utility: deletes verification code rows that can never match
// again (consumed or invalidated rows older than the retention window, and
// anything expired past it). The API itself never deletes them, so the table
// grows until this runs.
func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "path to config file")
		retention  = flag.Duration("retention", 30*24*time.Hour, "keep expired rows younger than this")
		dryRun     = flag.Bool("dry-run", false, "report what would be deleted without deleting")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	cutoff := time.Now().Add(-*retention)

	if *dryRun {
		var count int64
		err := db.QueryRow(
			`SELECT COUNT(*) FROM verification_codes WHERE (verified = true AND created_at < $1) OR expires_at < $1`,
			cutoff,
		).Scan(&count)
		if err != nil {
			log.Fatalf("Failed to count purgeable rows: %v", err)
		}
		fmt.Printf("Would delete %d verification code rows (cutoff %s)\n", count, cutoff.Format(time.RFC3339))
		return
	}

	res, err := db.Exec(
		`DELETE FROM verification_codes WHERE (verified = true AND created_at < $1) OR expires_at < $1`,
		cutoff,
	)
	if err != nil {
		log.Fatalf("Failed to purge verification codes: %v", err)
	}

	deleted, _ := res.RowsAffected()
	fmt.Printf("Deleted %d verification code rows (cutoff %s)\n", deleted, cutoff.Format(time.RFC3339))
}
