// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session coordinates a participant's membership in a planning-poker
room and keeps the vote ledger in step with the room.

# Lifecycle

A Coordinator moves through three states:

	disconnected → connecting → connected → disconnected

Join requests a token from a TokenIssuer, creates a Transport from the
TransportFactory, subscribes to inbound data and connects:

	coord := session.New(session.Config{Endpoint: "http://localhost:3318"}, session.Deps{
		Issuer:     issuer,
		Transports: rtc.Factory{},
	})
	err := coord.Join(ctx, "alice", "sprint-42")

A new Join always tears down the previous session first. Join attempts are
numbered; an attempt overtaken by a later Join or by Leave returns
ErrJoinSuperseded and leaves no transport behind.

# Votes

SubmitVote writes the local participant's vote to the ledger, then publishes
it. Inbound broadcasts are recorded under the sender's identity. Broadcasts
without a sender are dropped.

# Wire Format

The payload is the UTF-8 text of the vote with no envelope:

	session.EncodeVote("8") // []byte("8")

# Errors

	ErrNotConnected    SubmitVote without a live session (nothing changes)
	ErrConnectTimeout  Config.ConnectTimeout elapsed during Join
	ErrJoinSuperseded  a later Join or Leave took over
*/
package session
