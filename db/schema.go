// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Database types accepted by Open
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Open connects to the database and verifies the connection.
// SQLite is limited to a single connection so writers never contend.
func Open(dbType, url string) (*sql.DB, error) {
	var driver string
	switch dbType {
	case TypeSQLite, "":
		driver = "sqlite"
	case TypePostgres:
		driver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database type %q (use sqlite or postgres)", dbType)
	}

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == "sqlite" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// The schema sticks to SQL both SQLite and PostgreSQL accept.
// Only room presence is stored; votes never reach the database.
const schema = `
-- Rooms
CREATE TABLE IF NOT EXISTS room (
    name TEXT PRIMARY KEY,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    last_active_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_room_last_active ON room(last_active_at);

-- Presence (one row per relay connection)
CREATE TABLE IF NOT EXISTS presence (
    session_id TEXT PRIMARY KEY,
    room_name TEXT NOT NULL REFERENCES room(name) ON DELETE CASCADE,
    identity TEXT NOT NULL,
    ip_hash TEXT,
    connected_at TIMESTAMP NOT NULL,
    disconnected_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_presence_room ON presence(room_name);
CREATE INDEX IF NOT EXISTS idx_presence_open ON presence(room_name, disconnected_at);
`
