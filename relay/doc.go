// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package relay is the room hub behind the /rtc WebSocket endpoint.

Each room holds at most one member per identity. A data frame from one member
is forwarded to every other member of the same room, with From set by the hub:

	ms, err := hub.Join(ctx, "sprint-42", "alice", peer, ipHash)
	defer hub.Leave(ctx, ms)
	hub.Broadcast(ms, []byte("8"))

Joining again with an identity already in the room replaces the older
connection, which receives an error frame and is closed. Presence is written
through the optional Recorder; recorder failures are logged and never block
the relay.
*/
package relay
