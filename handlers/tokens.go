// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/danielhkuo/pok-er/auth"
	"github.com/danielhkuo/pok-er/cliparse"
	"github.com/danielhkuo/pok-er/middleware"
	"github.com/danielhkuo/pok-er/models"
)

// maxNameLen bounds identities and room names in runes
const maxNameLen = 64

type TokenHandler struct {
	issuer *auth.Issuer
	cfg    cliparse.Config
}

func NewTokenHandler(issuer *auth.Issuer, cfg cliparse.Config) *TokenHandler {
	return &TokenHandler{issuer: issuer, cfg: cfg}
}

// IssueToken handles POST /tokens
func (h *TokenHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req models.TokenRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	identity := strings.TrimSpace(req.Identity)
	room := strings.TrimSpace(req.Room)

	if identity == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "identity is required")
		return
	}
	if utf8.RuneCountInString(identity) > maxNameLen || utf8.RuneCountInString(room) > maxNameLen {
		middleware.ErrorResponse(w, http.StatusBadRequest, "identity and room must be at most 64 characters")
		return
	}

	// No room means start a new one
	if room == "" {
		generated, err := auth.GenerateRoomName()
		if err != nil {
			slog.Error("failed to generate room name", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create room")
			return
		}
		room = generated
	}

	token, err := h.issuer.IssueToken(r.Context(), identity, room)
	if err != nil {
		slog.Error("failed to issue token", "identity", identity, "room", room, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	expiresAt, err := auth.ExpiresAt(token)
	if err != nil {
		slog.Error("failed to read token expiry", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	slog.Info("token issued", "identity", identity, "room", room)

	middleware.JSONResponse(w, http.StatusCreated, models.TokenResponse{
		Token:     token,
		URL:       h.cfg.PublicURL,
		Room:      room,
		ExpiresAt: expiresAt,
	})
}
