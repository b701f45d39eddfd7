// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ledger keeps the local view of who voted what.

# Entries

A Ledger holds one entry per participant identity. The most recent Record
for an identity wins, whether it came from the local participant or a peer:

	votes := ledger.New()
	votes.Record("alice", "5")
	votes.Record("bob", "3")
	votes.Record("alice", "8")

	votes.All() // [{alice 8} {bob 3}]

All lists identities in the order they were first seen. Overwrites keep
the original position, so the listing is stable for display and tests.

# Observers

The view layer subscribes to changes instead of polling:

	cancel := votes.Observe(func(entries []ledger.Entry) {
		render(entries)
	})
	defer cancel()

Observers run synchronously on the goroutine that made the change, after
the ledger lock is released.

# Cards

The deck offered to the local participant is fixed:

	1 2 3 5 8 13 21 34 55 89 ?

Received votes are never checked against the deck; any string is accepted.
*/
package ledger
