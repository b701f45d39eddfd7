// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package location keeps the room name in a shareable link.
//
// A room is read from the fragment (#r=sprint-42) or, failing that, the query
// (?r=sprint-42). After a successful join the coordinator writes the room back
// into the fragment, so reopening the link lands in the same room.
package location
