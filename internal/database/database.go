package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DBPath returns the path to the single shared database
func DBPath() string {
	return filepath.Join("data", "wain-terminal.db")
}

// Open opens the database at dbPath, creating its directory when needed
func Open(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the stations table when it does not exist yet.
// Existing rows are left untouched.
func EnsureSchema(dbPath string) error {
	db, err := Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	return CreateTables(db)
}

// CreateTables runs the schema statements against an open handle
func CreateTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS stations (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			station_id TEXT NOT NULL,
			name TEXT,
			basin TEXT,
			attributes TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_stations_station_id ON stations(station_id);
		CREATE INDEX IF NOT EXISTS idx_stations_basin ON stations(basin);
	`)
	if err != nil {
		return fmt.Errorf("creating stations table: %w", err)
	}
	return nil
}
