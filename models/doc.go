// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, wire and domain types for the API.

# Request Types

  - TokenRequest: identity, room

# Response Types

  - TokenResponse: token, url, room, expires_at
  - RoomSummary: name, participants, last_active_at
  - RoomDetail: name, live participants, recent presence, share_url
  - ErrorResponse: error, message

# Relay Frames

Frame is the JSON envelope on the /rtc WebSocket:

	{"type": "data", "payload": "NQ=="}              client → relay
	{"type": "data", "from": "bob", "payload": "NQ=="} relay → client
	{"type": "error", "message": "..."}              relay → client

Payload is base64 in JSON. For votes it carries the raw UTF-8 text of the
vote (see package session).

# Domain Types

  - Participant: a live room member
  - PresenceRecord: one connection in the room registry

Sensitive fields (IPHash) are tagged json:"-" and never serialized.
*/
package models
