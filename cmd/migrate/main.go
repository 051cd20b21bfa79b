package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/lib/pq"

	"impact-platform/internal/config"
	"impact-platform/pkg/logging"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	dir := flag.String("dir", "migrations", "Directory holding *.up.sql / *.down.sql files")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("impact-migrate", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	ctx := context.Background()

	files, err := migrationFiles(*dir, *direction)
	if err != nil {
		logger.Fatal(ctx, "[MIGRATE_ERROR] Could not resolve migration files", logging.Fields{
			"dir":       *dir,
			"direction": *direction,
		}, err)
	}
	if len(files) == 0 {
		logger.Fatal(ctx, "[MIGRATE_ERROR] No migration files found", logging.Fields{
			"dir":       *dir,
			"direction": *direction,
		}, fmt.Errorf("no *.%s.sql files in %s", *direction, *dir))
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Database,
		cfg.Database.SSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Fatal(ctx, "[MIGRATE_ERROR] Failed to open database", logging.Fields{
			"host": cfg.Database.Host,
			"db":   cfg.Database.Database,
		}, err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal(ctx, "[MIGRATE_ERROR] Failed to reach database", logging.Fields{
			"host": cfg.Database.Host,
			"db":   cfg.Database.Database,
		}, err)
	}

	logger.Info(ctx, "[MIGRATE_START] Applying summary-schema migrations", logging.Fields{
		"direction": *direction,
		"files":     len(files),
	})

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			logger.Fatal(ctx, "[MIGRATE_ERROR] Failed to read migration", logging.Fields{
				"file": file,
			}, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			logger.Fatal(ctx, "[MIGRATE_ERROR] Migration failed", logging.Fields{
				"file": file,
			}, err)
		}

		logger.Info(ctx, "[MIGRATE_APPLIED] Migration applied", logging.Fields{
			"file": filepath.Base(file),
		})
	}

	logger.Info(ctx, "[MIGRATE_COMPLETE] All migrations applied", logging.Fields{
		"direction": *direction,
		"files":     len(files),
	})
}

// migrationFiles lists the *.{direction}.sql files under dir. Up
// migrations apply in ascending name order, down migrations in
// descending order so later schema changes unwind first.
func migrationFiles(dir, direction string) ([]string, error) {
	if direction != "up" && direction != "down" {
		return nil, fmt.Errorf("invalid direction %q, expected up or down", direction)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*."+direction+".sql"))
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	if direction == "down" {
		for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
			files[i], files[j] = files[j], files[i]
		}
	}

	return files, nil
}
