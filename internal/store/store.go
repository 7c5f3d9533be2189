// Package store persists users and roles in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"userweb/internal/store/migrations"
)

// Open opens the SQLite database at path with foreign keys enforced.
// Use "file:name?mode=memory&cache=shared" in tests.
func Open(path string) (*sql.DB, error) {
	dsn := path + "?_fk=1"
	if strings.Contains(path, "?") {
		dsn = path + "&_fk=1"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("store: ping database: %w", err)
	}
	return db, nil
}

// Migrate brings the schema up to date using the embedded migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("store: set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}
