// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package relay

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/pok-er/models"
)

var (
	ErrHubClosed     = errors.New("relay: hub closed")
	ErrMissingMember = errors.New("relay: room and identity are required")
)

// Peer is one connected client. Send must be safe for concurrent use.
type Peer interface {
	Send(frame models.Frame) error
	Close() error
}

// Recorder persists presence. db.RoomStore implements it.
type Recorder interface {
	RecordJoin(ctx context.Context, rec models.PresenceRecord) error
	RecordLeave(ctx context.Context, sessionID string, at time.Time) error
}

// Membership identifies an admitted peer
type Membership struct {
	Room      string
	Identity  string
	SessionID string
}

type member struct {
	Membership
	peer        Peer
	connectedAt time.Time
}

type room struct {
	name    string
	members map[string]*member // keyed by identity
}

// Hub routes data frames between the members of each room
type Hub struct {
	mu       sync.Mutex
	rooms    map[string]*room
	recorder Recorder
	now      func() time.Time
	closed   bool
}

// NewHub creates a hub. recorder may be nil.
func NewHub(recorder Recorder) *Hub {
	return &Hub{
		rooms:    make(map[string]*room),
		recorder: recorder,
		now:      time.Now,
	}
}

// Join admits peer into roomName under identity. An existing member with the
// same identity is evicted and its peer closed.
func (h *Hub) Join(ctx context.Context, roomName, identity string, peer Peer, ipHash *string) (Membership, error) {
	if roomName == "" || identity == "" {
		return Membership{}, ErrMissingMember
	}

	m := &member{
		Membership: Membership{
			Room:      roomName,
			Identity:  identity,
			SessionID: uuid.NewString(),
		},
		peer:        peer,
		connectedAt: h.now(),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return Membership{}, ErrHubClosed
	}
	r, ok := h.rooms[roomName]
	if !ok {
		r = &room{name: roomName, members: make(map[string]*member)}
		h.rooms[roomName] = r
	}
	evicted := r.members[identity]
	r.members[identity] = m
	h.mu.Unlock()

	if evicted != nil {
		slog.Info("participant replaced", "room", roomName, "identity", identity, "session_id", evicted.SessionID)
		h.recordLeave(ctx, evicted.SessionID)
		_ = evicted.peer.Send(models.Frame{Type: models.FrameError, Message: "replaced by a newer connection"})
		_ = evicted.peer.Close()
	}

	if h.recorder != nil {
		err := h.recorder.RecordJoin(ctx, models.PresenceRecord{
			Room:        roomName,
			Identity:    identity,
			SessionID:   m.SessionID,
			IPHash:      ipHash,
			ConnectedAt: m.connectedAt,
		})
		if err != nil {
			slog.Warn("failed to record join", "room", roomName, "identity", identity, "error", err)
		}
	}

	slog.Info("participant joined", "room", roomName, "identity", identity, "session_id", m.SessionID)
	return m.Membership, nil
}

// Leave removes the member. It is a no-op when the session was already
// replaced or removed.
func (h *Hub) Leave(ctx context.Context, ms Membership) {
	h.mu.Lock()
	r, ok := h.rooms[ms.Room]
	if !ok {
		h.mu.Unlock()
		return
	}
	current, ok := r.members[ms.Identity]
	if !ok || current.SessionID != ms.SessionID {
		h.mu.Unlock()
		return
	}
	delete(r.members, ms.Identity)
	if len(r.members) == 0 {
		delete(h.rooms, ms.Room)
	}
	h.mu.Unlock()

	h.recordLeave(ctx, ms.SessionID)
	slog.Info("participant left", "room", ms.Room, "identity", ms.Identity, "session_id", ms.SessionID)
}

// Broadcast sends payload to every other member of the sender's room with
// From set to the sender's identity. Returns the number of peers reached.
// Frames from a session that is no longer a member are dropped.
func (h *Hub) Broadcast(from Membership, payload []byte) int {
	h.mu.Lock()
	r, ok := h.rooms[from.Room]
	if !ok {
		h.mu.Unlock()
		return 0
	}
	if sender, ok := r.members[from.Identity]; !ok || sender.SessionID != from.SessionID {
		h.mu.Unlock()
		return 0
	}
	targets := make([]*member, 0, len(r.members)-1)
	for _, m := range r.members {
		if m.SessionID != from.SessionID {
			targets = append(targets, m)
		}
	}
	h.mu.Unlock()

	frame := models.Frame{Type: models.FrameData, From: from.Identity, Payload: payload}
	delivered := 0
	for _, m := range targets {
		if err := m.peer.Send(frame); err != nil {
			slog.Warn("failed to relay frame", "room", from.Room, "to", m.Identity, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

// Participants lists live members of roomName, oldest connection first
func (h *Hub) Participants(roomName string) []models.Participant {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomName]
	if !ok {
		return []models.Participant{}
	}
	out := make([]models.Participant, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, models.Participant{
			Identity:    m.Identity,
			SessionID:   m.SessionID,
			ConnectedAt: m.connectedAt,
		})
	}
	slices.SortFunc(out, func(a, b models.Participant) int {
		if c := a.ConnectedAt.Compare(b.ConnectedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Identity, b.Identity)
	})
	return out
}

// Counts returns the live member count of every non-empty room
func (h *Hub) Counts() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()

	counts := make(map[string]int, len(h.rooms))
	for name, r := range h.rooms {
		counts[name] = len(r.members)
	}
	return counts
}

// Close disconnects every peer and rejects further joins
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var peers []Peer
	for _, r := range h.rooms {
		for _, m := range r.members {
			peers = append(peers, m.peer)
		}
	}
	h.rooms = make(map[string]*room)
	h.mu.Unlock()

	for _, p := range peers {
		_ = p.Close()
	}
}

func (h *Hub) recordLeave(ctx context.Context, sessionID string) {
	if h.recorder == nil {
		return
	}
	if err := h.recorder.RecordLeave(ctx, sessionID, h.now()); err != nil {
		slog.Warn("failed to record leave", "session_id", sessionID, "error", err)
	}
}
