// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth issues and verifies room access tokens and generates IDs.

# Access Tokens

Tokens are HS256 JWTs signed with an API key pair, in the same claim layout
LiveKit uses so the two are interchangeable:

	{
	  "iss": "<api key>",
	  "sub": "alice",
	  "name": "alice",
	  "jti": "<random>",
	  "nbf": 1740830400,
	  "exp": 1740831000,
	  "video": {"roomJoin": true, "room": "sprint-42"}
	}

Issue and verify with the same Issuer:

	issuer, err := auth.NewIssuer(apiKey, apiSecret, auth.DefaultTokenTTL)
	token, err := issuer.IssueToken(ctx, "alice", "sprint-42")
	claims, err := issuer.Verify(token)

Issuer satisfies session.TokenIssuer, so a client holding the key pair can
sign its own tokens. Tokens live for 10 minutes by default.

ExpiresAt reads the exp claim without verifying, for display only.

# Room Names

GenerateRoomName returns a random base62 name (alphanumeric only) for
users who join without choosing a room.

# ID Generation

Random hex IDs:

	id, err := auth.GenerateID(16)  // 32 hex characters

# IP Hashing

For privacy-preserving presence records:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
