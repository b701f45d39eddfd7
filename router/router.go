// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/pok-er/auth"
	"github.com/danielhkuo/pok-er/cliparse"
	"github.com/danielhkuo/pok-er/db"
	"github.com/danielhkuo/pok-er/handlers"
	"github.com/danielhkuo/pok-er/middleware"
	"github.com/danielhkuo/pok-er/relay"
)

func NewRouter(conn *sql.DB, hub *relay.Hub, issuer *auth.Issuer, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	store := db.NewRoomStore(conn)
	tokenHandler := handlers.NewTokenHandler(issuer, cfg)
	roomHandler := handlers.NewRoomHandler(store, hub, cfg)
	relayHandler := handlers.NewRelayHandler(issuer, hub, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Access tokens
	mux.HandleFunc("POST /tokens", middleware.WithLogging(tokenHandler.IssueToken))

	// Rooms
	mux.HandleFunc("GET /rooms", middleware.WithLogging(roomHandler.ListRooms))
	mux.HandleFunc("GET /rooms/{name}", middleware.WithLogging(roomHandler.GetRoom))

	// Relay (WebSocket upgrade)
	mux.HandleFunc("GET /rtc", middleware.WithLogging(relayHandler.Connect))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pok-er API v1"))
	})

	return mux
}
