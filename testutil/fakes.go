// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"context"
	"sync"

	"github.com/danielhkuo/pok-er/session"
)

// TokenRequest is one recorded IssueToken call
type TokenRequest struct {
	Identity string
	Room     string
}

// FakeIssuer issues "token-<identity>-<room>" unless Err is set.
// Wait, when non-nil, runs before the token is returned and can block.
type FakeIssuer struct {
	Err  error
	Wait func(ctx context.Context, identity, room string) error

	mu    sync.Mutex
	calls []TokenRequest
}

func (f *FakeIssuer) IssueToken(ctx context.Context, identity, room string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, TokenRequest{Identity: identity, Room: room})
	wait := f.Wait
	f.mu.Unlock()

	if wait != nil {
		if err := wait(ctx, identity, room); err != nil {
			return "", err
		}
	}
	if f.Err != nil {
		return "", f.Err
	}
	return "token-" + identity + "-" + room, nil
}

func (f *FakeIssuer) Calls() []TokenRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]TokenRequest, len(f.calls))
	copy(out, f.calls)
	return out
}

// EventLog records transport lifecycle events in order across transports
type EventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *EventLog) add(event string) {
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
}

func (l *EventLog) Events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	copy(out, l.events)
	return out
}

// FakeTransport is an in-memory session.Transport
type FakeTransport struct {
	ConnectErr error
	PublishErr error
	// ConnectWait, when non-nil, runs inside Connect and can block
	ConnectWait func(ctx context.Context) error

	log *EventLog

	mu          sync.Mutex
	endpoint    string
	token       string
	connected   bool
	disconnects int
	published   [][]byte
	handlers    map[int]session.DataHandler
	nextHandler int
}

func NewFakeTransport(log *EventLog) *FakeTransport {
	if log == nil {
		log = &EventLog{}
	}
	return &FakeTransport{log: log, handlers: make(map[int]session.DataHandler)}
}

func (t *FakeTransport) Connect(ctx context.Context, endpoint, token string) error {
	t.mu.Lock()
	t.endpoint = endpoint
	t.token = token
	wait := t.ConnectWait
	t.mu.Unlock()

	if wait != nil {
		if err := wait(ctx); err != nil {
			return err
		}
	}
	if t.ConnectErr != nil {
		return t.ConnectErr
	}

	t.mu.Lock()
	t.connected = true
	t.mu.Unlock()
	t.log.add("connect " + token)
	return nil
}

func (t *FakeTransport) Disconnect() {
	t.mu.Lock()
	t.disconnects++
	wasConnected := t.connected
	t.connected = false
	token := t.token
	t.mu.Unlock()

	if wasConnected {
		t.log.add("disconnect " + token)
	}
}

func (t *FakeTransport) Publish(ctx context.Context, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.published = append(t.published, append([]byte(nil), payload...))
	return t.PublishErr
}

func (t *FakeTransport) Subscribe(fn session.DataHandler) func() {
	t.mu.Lock()
	id := t.nextHandler
	t.nextHandler++
	t.handlers[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.handlers, id)
		t.mu.Unlock()
	}
}

// Deliver hands payload to every subscribed handler as if it arrived
// from sender
func (t *FakeTransport) Deliver(payload []byte, sender string) {
	t.mu.Lock()
	handlers := make([]session.DataHandler, 0, len(t.handlers))
	for _, fn := range t.handlers {
		handlers = append(handlers, fn)
	}
	t.mu.Unlock()

	for _, fn := range handlers {
		fn(payload, sender)
	}
}

func (t *FakeTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

func (t *FakeTransport) Token() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token
}

func (t *FakeTransport) Endpoint() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.endpoint
}

func (t *FakeTransport) Disconnects() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.disconnects
}

func (t *FakeTransport) Subscribers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handlers)
}

func (t *FakeTransport) Published() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.published))
	copy(out, t.published)
	return out
}

// FakeFactory hands out FakeTransports and remembers them.
// Configure, when set, runs on each transport before it is returned.
type FakeFactory struct {
	Log       EventLog
	Configure func(t *FakeTransport)

	mu         sync.Mutex
	transports []*FakeTransport
}

func (f *FakeFactory) NewTransport() session.Transport {
	t := NewFakeTransport(&f.Log)
	if f.Configure != nil {
		f.Configure(t)
	}
	f.mu.Lock()
	f.transports = append(f.transports, t)
	f.mu.Unlock()
	return t
}

func (f *FakeFactory) Transports() []*FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*FakeTransport, len(f.transports))
	copy(out, f.transports)
	return out
}

// Last returns the most recently created transport, or nil
func (f *FakeFactory) Last() *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.transports) == 0 {
		return nil
	}
	return f.transports[len(f.transports)-1]
}

// Connected returns the transports that are currently connected
func (f *FakeFactory) Connected() []*FakeTransport {
	var out []*FakeTransport
	for _, t := range f.Transports() {
		if t.Connected() {
			out = append(out, t)
		}
	}
	return out
}

// RoomLog is a session.RoomRecorder that remembers every room it is given
type RoomLog struct {
	mu    sync.Mutex
	rooms []string
}

func (r *RoomLog) SetRoom(room string) {
	r.mu.Lock()
	r.rooms = append(r.rooms, room)
	r.mu.Unlock()
}

func (r *RoomLog) Rooms() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.rooms))
	copy(out, r.rooms)
	return out
}
