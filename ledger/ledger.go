// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import "sync"

// cards is the estimate deck offered for local submission
var cards = []string{"1", "2", "3", "5", "8", "13", "21", "34", "55", "89", "?"}

// Cards returns a copy of the estimate deck in display order
func Cards() []string {
	out := make([]string, len(cards))
	copy(out, cards)
	return out
}

// IsCard reports whether v is one of the deck values
func IsCard(v string) bool {
	for _, c := range cards {
		if c == v {
			return true
		}
	}
	return false
}

// Entry is one participant's latest known vote
type Entry struct {
	Identity string `json:"identity"`
	Vote     string `json:"vote"`
}

// Observer receives a snapshot after every change
type Observer func(entries []Entry)

// Ledger maps participant identity to that participant's latest vote.
// Listing order is the order identities were first seen; overwriting an
// existing identity keeps its position.
type Ledger struct {
	mu        sync.RWMutex
	votes     map[string]string
	order     []string
	observers map[int]Observer
	nextObs   int
}

func New() *Ledger {
	return &Ledger{
		votes:     make(map[string]string),
		observers: make(map[int]Observer),
	}
}

// Record inserts or overwrites the vote for identity.
// Empty identities are ignored.
func (l *Ledger) Record(identity, vote string) {
	if identity == "" {
		return
	}

	l.mu.Lock()
	if _, seen := l.votes[identity]; !seen {
		l.order = append(l.order, identity)
	}
	l.votes[identity] = vote
	snapshot := l.snapshotLocked()
	observers := l.observersLocked()
	l.mu.Unlock()

	notify(observers, snapshot)
}

// All returns every entry in first-seen order
func (l *Ledger) All() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

// Vote returns the latest vote for identity
func (l *Ledger) Vote(identity string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.votes[identity]
	return v, ok
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// Clear drops all entries. Identities recorded afterwards are ordered
// as if seen for the first time.
func (l *Ledger) Clear() {
	l.mu.Lock()
	l.votes = make(map[string]string)
	l.order = nil
	observers := l.observersLocked()
	l.mu.Unlock()

	notify(observers, []Entry{})
}

// Observe registers fn to be called after each change. The returned
// function removes the registration.
func (l *Ledger) Observe(fn Observer) (cancel func()) {
	l.mu.Lock()
	id := l.nextObs
	l.nextObs++
	l.observers[id] = fn
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.observers, id)
			l.mu.Unlock()
		})
	}
}

func (l *Ledger) snapshotLocked() []Entry {
	entries := make([]Entry, 0, len(l.order))
	for _, identity := range l.order {
		entries = append(entries, Entry{Identity: identity, Vote: l.votes[identity]})
	}
	return entries
}

// observersLocked copies the registrations in subscription order so
// callbacks run outside the lock
func (l *Ledger) observersLocked() []Observer {
	if len(l.observers) == 0 {
		return nil
	}
	out := make([]Observer, 0, len(l.observers))
	for id := 0; id < l.nextObs; id++ {
		if fn, ok := l.observers[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func notify(observers []Observer, snapshot []Entry) {
	for _, fn := range observers {
		fn(snapshot)
	}
}
