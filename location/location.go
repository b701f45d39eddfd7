// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package location

import (
	"net/url"
	"strings"
	"sync"
)

// RoomParam is the query or fragment key holding the room name
const RoomParam = "r"

// RoomFromURL returns the room named by a link. The fragment (#r=) is checked
// before the query (?r=). Returns "" when neither names a room or the link
// cannot be parsed.
func RoomFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	if u.Fragment != "" {
		if frag, err := url.ParseQuery(u.Fragment); err == nil {
			if room := frag.Get(RoomParam); room != "" {
				return room
			}
		}
	}
	return u.Query().Get(RoomParam)
}

// ShareLink builds the copy-link URL for room: <origin>/?r=<room>
func ShareLink(origin, room string) string {
	q := url.Values{}
	q.Set(RoomParam, room)
	return strings.TrimRight(origin, "/") + "/?" + q.Encode()
}

// Location holds the current page link and rewrites its fragment when the
// joined room changes. It satisfies session.RoomRecorder.
type Location struct {
	mu  sync.Mutex
	url url.URL
}

// Parse wraps raw as a Location
func Parse(raw string) (*Location, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	return &Location{url: *u}, nil
}

// Room returns the room currently encoded in the link
func (l *Location) Room() string {
	return RoomFromURL(l.String())
}

// SetRoom replaces the fragment with r=<room>. The query is left untouched.
func (l *Location) SetRoom(room string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	frag := url.Values{}
	if l.url.Fragment != "" {
		if parsed, err := url.ParseQuery(l.url.Fragment); err == nil {
			frag = parsed
		}
	}
	if room == "" {
		frag.Del(RoomParam)
	} else {
		frag.Set(RoomParam, room)
	}
	l.url.Fragment = frag.Encode()
	l.url.RawFragment = ""
}

func (l *Location) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.url.String()
}
