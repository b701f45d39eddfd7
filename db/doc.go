// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database, creates the schema, and records room presence.

# Drivers

Open accepts two database types:

	conn, err := db.Open(db.TypeSQLite, "file:poker.db")           // modernc.org/sqlite
	conn, err := db.Open(db.TypePostgres, "postgres://...")        // github.com/lib/pq

Queries use $N placeholders, which both drivers understand.

# Schema

CreateSchema is idempotent (IF NOT EXISTS):

	room      name, created_at, last_active_at
	presence  session_id, room_name, identity, ip_hash, connected_at, disconnected_at

Votes are never stored. The relay only records who connected to which room
and when, so the room listing can show recent activity.

# RoomStore

	store := db.NewRoomStore(conn)
	store.RecordJoin(ctx, record)          // upsert room, open presence row
	store.RecordLeave(ctx, sessionID, now) // close presence row
	store.ListRooms(ctx, 50)
	store.RecentPresence(ctx, "sprint-42", 20)

At startup the server calls CloseOpenSessions, since no WebSocket survives a
restart.
*/
package db
