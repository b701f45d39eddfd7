// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Server

	cfg, err := cliparse.ParseFlags(os.Args[1:])

	-p            Server port (default 3318)
	-d            Database URL (default file:poker.db)
	-t            Database type: sqlite or postgres (default sqlite)
	-public-url   URL embedded in token responses and share links
	-token-ttl    Access token lifetime (default 10m)
	-api-key      API key (required)
	-api-secret   API secret (required)

# Client

	cfg, err := cliparse.ParseClientFlags(os.Args[2:])

	-s                    Server URL (default http://localhost:3318)
	-n, -r                Identity and room to join at startup
	-link                 Shared link to take the room from
	-timeout              Join timeout (default 15s)
	-clear-on-disconnect  Forget votes when leaving
	-api-key, -api-secret Sign tokens locally instead of asking the server

# Environment Variables

Flags fall back to environment variables:

	PORT                  → -p
	DATABASE_URL          → -d
	DATABASE_TYPE         → -t
	PUBLIC_URL            → -public-url
	TOKEN_TTL             → -token-ttl
	LIVEKIT_API_KEY       → -api-key
	LIVEKIT_API_SECRET    → -api-secret
	POKER_SERVER_URL      → -s
	POKER_CONNECT_TIMEOUT → -timeout

CLI flags take precedence over environment variables. LoadEnvFile reads a
.env file first without overriding variables that are already set.
*/
package cliparse
