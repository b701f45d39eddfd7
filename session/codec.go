// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import "strings"

// EncodeVote converts a vote to its broadcast payload: the UTF-8 bytes of
// the value with no envelope
func EncodeVote(vote string) []byte {
	return []byte(vote)
}

// DecodeVote converts a broadcast payload back to a vote. Any byte
// sequence is a valid vote; invalid UTF-8 is replaced with U+FFFD.
func DecodeVote(payload []byte) string {
	return strings.ToValidUTF8(string(payload), "\uFFFD")
}
