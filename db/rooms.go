// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danielhkuo/pok-er/models"
)

// RoomStore records which rooms exist and who connected to them
type RoomStore struct {
	db *sql.DB
}

func NewRoomStore(db *sql.DB) *RoomStore {
	return &RoomStore{db: db}
}

// RecordJoin upserts the room and opens a presence row for the connection
func (s *RoomStore) RecordJoin(ctx context.Context, rec models.PresenceRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	connectedAt := rec.ConnectedAt.UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO room (name, created_at, last_active_at)
		VALUES ($1, $2, $2)
		ON CONFLICT (name) DO UPDATE SET last_active_at = excluded.last_active_at
	`, rec.Room, connectedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert room: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO presence (session_id, room_name, identity, ip_hash, connected_at)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.SessionID, rec.Room, rec.Identity, rec.IPHash, connectedAt)
	if err != nil {
		return fmt.Errorf("failed to insert presence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit presence: %w", err)
	}
	return nil
}

// RecordLeave closes the presence row for sessionID and touches the room
func (s *RoomStore) RecordLeave(ctx context.Context, sessionID string, at time.Time) error {
	at = at.UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var room string
	err = tx.QueryRowContext(ctx, `
		SELECT room_name FROM presence WHERE session_id = $1
	`, sessionID).Scan(&room)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to query presence: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE presence SET disconnected_at = $1
		WHERE session_id = $2 AND disconnected_at IS NULL
	`, at, sessionID)
	if err != nil {
		return fmt.Errorf("failed to close presence: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE room SET last_active_at = $1 WHERE name = $2
	`, at, room)
	if err != nil {
		return fmt.Errorf("failed to touch room: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit presence: %w", err)
	}
	return nil
}

// CloseOpenSessions marks every still-open presence row as disconnected.
// Called at startup, since no connection survives a relay restart.
func (s *RoomStore) CloseOpenSessions(ctx context.Context, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE presence SET disconnected_at = $1 WHERE disconnected_at IS NULL
	`, at.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to close open sessions: %w", err)
	}
	return res.RowsAffected()
}

// ListRooms returns rooms by most recent activity. Participants counts
// presence rows that are still open.
func (s *RoomStore) ListRooms(ctx context.Context, limit int) ([]models.RoomSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.name, r.last_active_at,
			(SELECT COUNT(*) FROM presence p
			 WHERE p.room_name = r.name AND p.disconnected_at IS NULL)
		FROM room r
		ORDER BY r.last_active_at DESC, r.name
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	rooms := []models.RoomSummary{}
	for rows.Next() {
		var room models.RoomSummary
		if err := rows.Scan(&room.Name, &room.LastActiveAt, &room.Participants); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// RecentPresence returns the latest connections to room, newest first
func (s *RoomStore) RecentPresence(ctx context.Context, room string, limit int) ([]models.PresenceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, room_name, identity, ip_hash, connected_at, disconnected_at
		FROM presence
		WHERE room_name = $1
		ORDER BY connected_at DESC, session_id
		LIMIT $2
	`, room, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query presence: %w", err)
	}
	defer rows.Close()

	records := []models.PresenceRecord{}
	for rows.Next() {
		var rec models.PresenceRecord
		var ipHash sql.NullString
		var disconnectedAt sql.NullTime
		if err := rows.Scan(&rec.SessionID, &rec.Room, &rec.Identity, &ipHash, &rec.ConnectedAt, &disconnectedAt); err != nil {
			return nil, fmt.Errorf("failed to scan presence: %w", err)
		}
		if ipHash.Valid {
			rec.IPHash = &ipHash.String
		}
		if disconnectedAt.Valid {
			t := disconnectedAt.Time
			rec.DisconnectedAt = &t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RoomExists reports whether room has ever been joined
func (s *RoomStore) RoomExists(ctx context.Context, room string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM room WHERE name = $1)
	`, room).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query room: %w", err)
	}
	return exists, nil
}
