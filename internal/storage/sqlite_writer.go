package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"impact-platform/internal/models"
)

// SQLiteWriter exports aggregated summaries to a standalone SQLite
// database file, usable by chart frontends without a Postgres instance.
type SQLiteWriter struct {
	db *sql.DB
}

// NewSQLiteWriter creates (or replaces) the SQLite file at the given
// path and prepares the schema.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("sqlite: create output dir: %w", err)
	}

	// Replace any previous export; summaries supersede in full.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("sqlite: remove previous file: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	if _, err := db.Exec(`
		CREATE TABLE impact_summaries (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			grouping_kind  TEXT NOT NULL,
			diet_group     TEXT NOT NULL,
			gender         TEXT NOT NULL,
			age_group      TEXT NOT NULL,
			ghgs           REAL NOT NULL DEFAULT 0,
			land_use       REAL NOT NULL DEFAULT 0,
			water_scarcity REAL NOT NULL DEFAULT 0,
			eutrophication REAL NOT NULL DEFAULT 0,
			acidification  REAL NOT NULL DEFAULT 0,
			biodiversity   REAL NOT NULL DEFAULT 0,
			record_count   INTEGER NOT NULL DEFAULT 0
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}

	return &SQLiteWriter{db: db}, nil
}

// Write inserts summary rows in a single transaction.
func (w *SQLiteWriter) Write(summaries []models.ImpactSummary) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite: begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO impact_summaries (
			grouping_kind, diet_group, gender, age_group,
			ghgs, land_use, water_scarcity, eutrophication, acidification, biodiversity,
			record_count
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range summaries {
		_, err := stmt.Exec(
			s.Grouping,
			s.DietGroup,
			s.Gender,
			s.AgeGroup,
			s.GHGs,
			s.LandUse,
			s.WaterScarcity,
			s.Eutrophication,
			s.Acidification,
			s.Biodiversity,
			s.RecordCount,
		)
		if err != nil {
			return fmt.Errorf("sqlite: insert summary: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}

	return nil
}

// Close closes the underlying database file.
func (w *SQLiteWriter) Close() error {
	return w.db.Close()
}
