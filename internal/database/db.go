package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens sqlite with sensible defaults.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)
	return db, nil
}

// OpenMigrated creates the parent directory, applies migrations and opens path.
func OpenMigrated(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	if err := RunMigrations(path); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return db, nil
}

// Now returns UTC time truncated to seconds (consistent with SQLite default).
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
