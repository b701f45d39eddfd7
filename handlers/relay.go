// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/danielhkuo/pok-er/auth"
	"github.com/danielhkuo/pok-er/cliparse"
	"github.com/danielhkuo/pok-er/middleware"
	"github.com/danielhkuo/pok-er/models"
	"github.com/danielhkuo/pok-er/relay"
)

const (
	maxFrameBytes   = 16 << 10
	maxVoteBytes    = 1 << 10
	maxDecodeErrors = 5
	writeTimeout    = 10 * time.Second
)

type RelayHandler struct {
	issuer *auth.Issuer
	hub    *relay.Hub
	cfg    cliparse.Config
}

func NewRelayHandler(issuer *auth.Issuer, hub *relay.Hub, cfg cliparse.Config) *RelayHandler {
	return &RelayHandler{issuer: issuer, hub: hub, cfg: cfg}
}

// Connect handles GET /rtc. The access token is checked before the upgrade.
func (h *RelayHandler) Connect(w http.ResponseWriter, r *http.Request) {
	claims, err := h.issuer.Verify(middleware.AccessToken(r))
	if err != nil {
		slog.Info("relay unauthorized", "remote", r.RemoteAddr, "error", err)
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid access token")
		return
	}

	ipHash := auth.HashIP(middleware.GetClientIP(r), h.cfg.APISecret)

	srv := websocket.Server{
		// Browsers on any origin may join; the token is the credential
		Handshake: func(*websocket.Config, *http.Request) error { return nil },
		Handler: func(conn *websocket.Conn) {
			h.serve(conn, claims, ipHash)
		},
	}
	srv.ServeHTTP(w, r)
}

func (h *RelayHandler) serve(conn *websocket.Conn, claims *auth.Claims, ipHash string) {
	defer conn.Close()
	conn.MaxPayloadBytes = maxFrameBytes

	ctx := context.WithoutCancel(conn.Request().Context())
	peer := &wsPeer{conn: conn}

	ms, err := h.hub.Join(ctx, claims.Room(), claims.Identity(), peer, &ipHash)
	if err != nil {
		_ = peer.sendError(err.Error())
		return
	}
	defer h.hub.Leave(ctx, ms)

	decodeErrors := 0
	for {
		var frame models.Frame
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			if errors.Is(err, websocket.ErrFrameTooLarge) {
				_ = peer.sendError("frame too large")
				continue
			}
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				decodeErrors++
				_ = peer.sendError("invalid frame payload")
				if decodeErrors >= maxDecodeErrors {
					return
				}
				continue
			}
			return
		}
		decodeErrors = 0

		switch frame.Type {
		case models.FrameData:
			if len(frame.Payload) > maxVoteBytes {
				_ = peer.sendError("payload too large")
				continue
			}
			h.hub.Broadcast(ms, frame.Payload)
		default:
			_ = peer.sendError("unsupported frame type")
		}
	}
}

// wsPeer serializes writes to one relay connection
type wsPeer struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (p *wsPeer) Send(frame models.Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	_ = p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return websocket.JSON.Send(p.conn, frame)
}

func (p *wsPeer) Close() error {
	return p.conn.Close()
}

func (p *wsPeer) sendError(message string) error {
	return p.Send(models.Frame{Type: models.FrameError, Message: message})
}
