// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/pok-er/cliparse"
	"github.com/danielhkuo/pok-er/db"
	"github.com/danielhkuo/pok-er/location"
	"github.com/danielhkuo/pok-er/middleware"
	"github.com/danielhkuo/pok-er/models"
	"github.com/danielhkuo/pok-er/relay"
)

const (
	roomListLimit   = 50
	roomRecentLimit = 20
)

type RoomHandler struct {
	store *db.RoomStore
	hub   *relay.Hub
	cfg   cliparse.Config
	now   func() time.Time
}

func NewRoomHandler(store *db.RoomStore, hub *relay.Hub, cfg cliparse.Config) *RoomHandler {
	return &RoomHandler{store: store, hub: hub, cfg: cfg, now: time.Now}
}

// ListRooms handles GET /rooms
func (h *RoomHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.store.ListRooms(r.Context(), roomListLimit)
	if err != nil {
		slog.Error("failed to list rooms", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Live counts come from the hub; the registry may lag behind it
	counts := h.hub.Counts()
	for i := range rooms {
		rooms[i].Participants = counts[rooms[i].Name]
		delete(counts, rooms[i].Name)
	}
	for name, n := range counts {
		rooms = append(rooms, models.RoomSummary{Name: name, Participants: n})
	}

	middleware.JSONResponse(w, http.StatusOK, rooms)
}

// GetRoom handles GET /rooms/{name}
func (h *RoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "room name is required")
		return
	}

	participants := h.hub.Participants(name)

	recent, err := h.store.RecentPresence(r.Context(), name, roomRecentLimit)
	if err != nil {
		slog.Error("failed to query presence", "room", name, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if len(participants) == 0 && len(recent) == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Room not found")
		return
	}

	now := h.now()
	for i := range participants {
		participants[i].ConnectedFor = strings.TrimSpace(humanize.RelTime(participants[i].ConnectedAt, now, "", ""))
	}

	middleware.JSONResponse(w, http.StatusOK, models.RoomDetail{
		Name:         name,
		Participants: participants,
		Recent:       recent,
		ShareURL:     location.ShareLink(h.cfg.PublicURL, name),
	})
}
