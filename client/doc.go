// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package client is the terminal front end for a planning-poker session.

	app, err := client.New(cfg, os.Stdout, client.Deps{})
	err = app.Run(ctx, os.Stdin)

Commands are read one per line:

	join <name> [room]   vote <card>   leave   votes
	cards   link   status   help   quit

The ledger is printed every time it changes, with the local participant
marked by an asterisk. Tokens come from the server's POST /tokens via
HTTPIssuer, or are signed locally when an API key pair is configured.
*/
package client
