// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for pok-er, a minimal planning-poker tool.

Participants join a named room, each picks an estimate card, and everyone
sees everyone's latest pick live. The same binary runs the server and the
terminal client.

# Starting the Server

	LIVEKIT_API_KEY=dev LIVEKIT_API_SECRET=secret go run .

Or with flags:

	go run . serve -p 3318 -api-key dev -api-secret secret -t postgres -d "postgres://..."

A .env file in the working directory is loaded first.

# Starting a Client

	go run . client -s http://localhost:3318 -n alice -r sprint-42
	go run . client -link "http://localhost:3318/?r=sprint-42" -n bob

# Architecture

  - ledger: last known vote per participant
  - session: join/leave/vote coordinator over a pluggable transport
  - rtc: WebSocket transport used by the client
  - relay: room hub that forwards votes between members
  - handlers, router, middleware: HTTP API (/tokens, /rooms, /rtc)
  - auth: access tokens and IDs
  - db: schema and presence registry (sqlite or postgres)
  - location: room name in a shareable link
  - client: terminal front end
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
