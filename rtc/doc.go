// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package rtc is the client side of the relay WebSocket.

A Transport dials <endpoint>/rtc?access_token=<token> and exchanges JSON
frames:

	{"type":"data","payload":"OA=="}               client → relay
	{"type":"data","from":"bob","payload":"OA=="}  relay → client
	{"type":"error","message":"..."}               relay → client

Payload bytes are base64 in JSON. The relay fills in From, so handlers receive
the sender identity the server verified from the token.

	coord := session.New(cfg, session.Deps{
		Issuer:     issuer,
		Transports: rtc.Factory{},
	})
*/
package rtc
