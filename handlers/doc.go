// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the pok-er server.

# Handler Types

  - TokenHandler: signs room access tokens
  - RoomHandler: room listing and detail from the hub and the presence registry
  - RelayHandler: the WebSocket relay

	tokenHandler := handlers.NewTokenHandler(issuer, cfg)
	roomHandler := handlers.NewRoomHandler(store, hub, cfg)
	relayHandler := handlers.NewRelayHandler(issuer, hub, cfg)

# Tokens

	POST /tokens {"identity":"alice","room":"sprint-42"}
	→ 201 {"token":"eyJ...","url":"http://localhost:3318","room":"sprint-42","expires_at":"..."}

An empty room starts a new one with a generated name.

# Rooms

	GET /rooms         → rooms by latest activity with live participant counts
	GET /rooms/{name}  → live participants, recent connections, share_url

# Relay

	GET /rtc?access_token=<token>

The token may also be sent as "Authorization: Bearer <token>". An invalid or
expired token is rejected with 401 before the upgrade. After the upgrade the
connection joins the room named in the token's grant and exchanges
models.Frame values as JSON. Data frames are forwarded to the other members
with From set to the token's identity.
*/
package handlers
