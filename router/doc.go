// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the pok-er server.

	mux := router.NewRouter(db, hub, issuer, cfg)

# Endpoints

	GET  /health        - Liveness
	POST /tokens        - Room access token
	GET  /rooms         - Known rooms with live participant counts
	GET  /rooms/{name}  - Live participants, recent connections, share link
	GET  /rtc           - WebSocket relay (access_token query or Bearer header)

Every route except /health and / is wrapped with middleware.WithLogging. The
hub is shared with main so it can be closed on shutdown.
*/
package router
