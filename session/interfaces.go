// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import "context"

// TokenIssuer produces a credential authorizing identity to join room
type TokenIssuer interface {
	IssueToken(ctx context.Context, identity, room string) (string, error)
}

// DataHandler receives one inbound broadcast. sender is empty when the
// transport could not attribute the payload to a participant.
type DataHandler func(payload []byte, sender string)

// Transport is one connection to the room-session service.
// A Transport is used for a single session and discarded afterwards.
type Transport interface {
	// Connect establishes the session and returns once it is live
	Connect(ctx context.Context, endpoint, token string) error
	// Disconnect tears the session down. Safe to call more than once.
	Disconnect()
	// Publish broadcasts payload to every other participant
	Publish(ctx context.Context, payload []byte) error
	// Subscribe registers fn for inbound broadcasts until the returned
	// function is called
	Subscribe(fn DataHandler) (unsubscribe func())
}

// TransportFactory creates a fresh Transport for each join
type TransportFactory interface {
	NewTransport() Transport
}

// TransportFactoryFunc adapts a function to TransportFactory
type TransportFactoryFunc func() Transport

func (f TransportFactoryFunc) NewTransport() Transport {
	return f()
}

// RoomRecorder mirrors the active room name somewhere addressable,
// such as a shareable link
type RoomRecorder interface {
	SetRoom(room string)
}
