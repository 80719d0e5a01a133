// Package sqlite implements the repository interfaces on SQLite.
//
// modernc.org/sqlite is a pure Go translation of SQLite: no C toolchain,
// works everywhere Go works, and ":memory:" gives tests a fresh isolated
// database per test.
//
// Uniqueness is enforced here, not in the services: the compound unique
// indexes below are the single consistency mechanism for duplicate
// categories/labels/usernames. Concurrent same-name creations race at the
// index, and the loser's driver error is translated into an apperror
// duplicate at the call site.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository
// interfaces for users, categories, labels, and posts.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" for tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite serializes writers anyway; a single pooled connection avoids
	// SQLITE_BUSY under write contention and keeps ":memory:" databases from
	// splitting across connections.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write is in flight, needed for a web
	// server where requests overlap.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are off by default in SQLite.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Always defer this next to New.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS categories (
			id         TEXT PRIMARY KEY,
			owner_id   TEXT NOT NULL REFERENCES users(id),
			name       TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (owner_id, name)
		);
		CREATE INDEX IF NOT EXISTS idx_categories_owner ON categories(owner_id);

		CREATE TABLE IF NOT EXISTS labels (
			id          TEXT PRIMARY KEY,
			owner_id    TEXT NOT NULL,
			category_id TEXT NOT NULL REFERENCES categories(id),
			name        TEXT NOT NULL,
			color       TEXT NOT NULL,
			checked     INTEGER NOT NULL DEFAULT 0,
			UNIQUE (owner_id, category_id, name)
		);
		CREATE INDEX IF NOT EXISTS idx_labels_category ON labels(category_id);

		CREATE TABLE IF NOT EXISTS posts (
			id            TEXT PRIMARY KEY,
			owner_id      TEXT NOT NULL,
			category_id   TEXT NOT NULL,
			title         TEXT NOT NULL,
			url           TEXT NOT NULL,
			source        TEXT NOT NULL DEFAULT '',
			original_date DATETIME NOT NULL,
			img_src       TEXT NOT NULL DEFAULT '',
			is_bookmarked INTEGER NOT NULL DEFAULT 0,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_posts_owner ON posts(owner_id);
		CREATE INDEX IF NOT EXISTS idx_posts_category ON posts(category_id);

		CREATE TABLE IF NOT EXISTS post_labels (
			post_id  TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
			label_id TEXT NOT NULL,
			PRIMARY KEY (post_id, label_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is the driver's unique-index
// failure. modernc.org/sqlite surfaces SQLite's own message, which always
// contains this marker for SQLITE_CONSTRAINT_UNIQUE.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// placeholders returns "?, ?, ?" for n arguments, for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
