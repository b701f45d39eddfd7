package models

import "time"

// Relay frame types
const (
	FrameData  = "data"
	FrameError = "error"
)

// Frame is one message on the relay WebSocket.
// Clients send data frames with a payload; the relay forwards them to the
// other room members with From set to the sender's identity. Any From sent
// by a client is ignored.
type Frame struct {
	Type    string `json:"type"`
	From    string `json:"from,omitempty"`
	Payload []byte `json:"payload,omitempty"`
	Message string `json:"message,omitempty"`
}

// Request types

type TokenRequest struct {
	Identity string `json:"identity"`
	Room     string `json:"room"`
}

// Response types

type TokenResponse struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	Room      string    `json:"room"`
	ExpiresAt time.Time `json:"expires_at"`
}

type RoomSummary struct {
	Name         string    `json:"name"`
	Participants int       `json:"participants"`
	LastActiveAt time.Time `json:"last_active_at"`
}

type RoomDetail struct {
	Name         string           `json:"name"`
	Participants []Participant    `json:"participants"`
	Recent       []PresenceRecord `json:"recent"`
	ShareURL     string           `json:"share_url"`
}

// Domain types

// Participant is a live member of a room
type Participant struct {
	Identity     string    `json:"identity"`
	SessionID    string    `json:"session_id"`
	ConnectedAt  time.Time `json:"connected_at"`
	ConnectedFor string    `json:"connected_for,omitempty"`
}

// PresenceRecord is one connection in the room registry
type PresenceRecord struct {
	Room           string     `json:"room"`
	Identity       string     `json:"identity"`
	SessionID      string     `json:"session_id"`
	IPHash         *string    `json:"-"` // Never expose in JSON
	ConnectedAt    time.Time  `json:"connected_at"`
	DisconnectedAt *time.Time `json:"disconnected_at,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
