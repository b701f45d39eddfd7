// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/danielhkuo/pok-er/ledger"
)

var (
	ErrNotConnected   = errors.New("session is not connected")
	ErrConnectTimeout = errors.New("connect timed out")
	ErrJoinSuperseded = errors.New("join superseded by a newer request")
)

// Status is the lifecycle state of a Coordinator's session
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Config controls session behavior
type Config struct {
	// Endpoint is handed to Transport.Connect
	Endpoint string
	// ConnectTimeout bounds token issuance plus connect. Zero disables it.
	ConnectTimeout time.Duration
	// ClearOnDisconnect empties the ledger whenever a session is torn down
	ClearOnDisconnect bool
}

// Deps are the collaborators a Coordinator drives
type Deps struct {
	Issuer     TokenIssuer
	Transports TransportFactory
	// Ledger receives every vote. A new ledger is created when nil.
	Ledger *ledger.Ledger
	// Rooms is told the room name after each successful join. Optional.
	Rooms RoomRecorder
}

// Session describes the coordinator's current membership
type Session struct {
	Room     string `json:"room"`
	Identity string `json:"identity"`
	Status   Status `json:"status"`
}

// link is one transport plus its inbound subscription
type link struct {
	transport   Transport
	unsubscribe func()
	once        sync.Once
}

func (l *link) close() {
	l.once.Do(func() {
		l.unsubscribe()
		l.transport.Disconnect()
	})
}

// Coordinator owns the lifecycle of one room session and keeps the vote
// ledger in step with local submissions and peer broadcasts.
//
// Each join attempt is numbered. Completions from an attempt that is no
// longer current are discarded and their transport is disconnected, so at
// most one transport is ever live.
//
// Ledger observers run while the coordinator is locked and must not call
// back into it.
type Coordinator struct {
	cfg        Config
	issuer     TokenIssuer
	transports TransportFactory
	votes      *ledger.Ledger
	rooms      RoomRecorder

	mu            sync.Mutex
	attempt       uint64
	status        Status
	identity      string
	room          string
	active        *link
	pending       *link
	cancelPending context.CancelFunc
}

func New(cfg Config, deps Deps) *Coordinator {
	votes := deps.Ledger
	if votes == nil {
		votes = ledger.New()
	}
	return &Coordinator{
		cfg:        cfg,
		issuer:     deps.Issuer,
		transports: deps.Transports,
		votes:      votes,
		rooms:      deps.Rooms,
	}
}

// Ledger returns the vote ledger the coordinator writes to
func (c *Coordinator) Ledger() *ledger.Ledger {
	return c.votes
}

func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Session returns the current (or pending) membership. Room and Identity
// are empty while disconnected.
func (c *Coordinator) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusDisconnected {
		return Session{Status: StatusDisconnected}
	}
	return Session{Room: c.room, Identity: c.identity, Status: c.status}
}

// Join tears down any existing session, requests a token and connects to
// room as identity. It returns nil without doing anything when either
// argument is empty.
//
// A Join that is overtaken by a newer Join or by Leave returns
// ErrJoinSuperseded. Token and connect failures return the coordinator to
// StatusDisconnected.
func (c *Coordinator) Join(ctx context.Context, identity, room string) error {
	if identity == "" || room == "" {
		return nil
	}

	if c.cfg.ConnectTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, c.cfg.ConnectTimeout)
		defer cancelTimeout()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	c.attempt++
	attempt := c.attempt
	c.teardownLocked()
	c.identity = identity
	c.room = room
	c.status = StatusConnecting
	c.cancelPending = cancel
	c.mu.Unlock()

	slog.Info("joining room", "room", room, "identity", identity, "attempt", attempt)

	token, err := c.issuer.IssueToken(ctx, identity, room)
	if err != nil {
		return c.failJoin(ctx, attempt, nil, "issue token", err)
	}

	c.mu.Lock()
	if attempt != c.attempt {
		c.mu.Unlock()
		return ErrJoinSuperseded
	}
	l := &link{transport: c.transports.NewTransport()}
	l.unsubscribe = l.transport.Subscribe(c.receiver(l))
	c.pending = l
	c.mu.Unlock()

	if err := l.transport.Connect(ctx, c.cfg.Endpoint, token); err != nil {
		return c.failJoin(ctx, attempt, l, "connect", err)
	}

	c.mu.Lock()
	if attempt != c.attempt {
		c.mu.Unlock()
		l.close()
		return ErrJoinSuperseded
	}
	c.pending = nil
	c.cancelPending = nil
	c.active = l
	c.status = StatusConnected
	c.mu.Unlock()

	if c.rooms != nil {
		c.rooms.SetRoom(room)
	}

	slog.Info("session connected", "room", room, "identity", identity)
	return nil
}

func (c *Coordinator) failJoin(ctx context.Context, attempt uint64, l *link, stage string, err error) error {
	if l != nil {
		l.close()
	}

	c.mu.Lock()
	current := attempt == c.attempt
	if current {
		c.pending = nil
		c.cancelPending = nil
		c.status = StatusDisconnected
	}
	c.mu.Unlock()

	if !current {
		return ErrJoinSuperseded
	}

	slog.Warn("join failed", "stage", stage, "error", err)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", stage, ErrConnectTimeout, err)
	}
	return fmt.Errorf("%s: %w", stage, err)
}

// SubmitVote records vote for the local participant and broadcasts it.
// The ledger is updated before the broadcast and is not rolled back if
// publishing fails. Returns ErrNotConnected, changing nothing, when no
// session is live.
func (c *Coordinator) SubmitVote(ctx context.Context, vote string) error {
	c.mu.Lock()
	if c.status != StatusConnected || c.active == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	l := c.active
	c.votes.Record(c.identity, vote)
	c.mu.Unlock()

	if err := l.transport.Publish(ctx, EncodeVote(vote)); err != nil {
		slog.Warn("publish failed", "error", err)
		return fmt.Errorf("publish vote: %w", err)
	}
	return nil
}

// Leave disconnects the current session and abandons any pending join.
// Safe to call at any time.
func (c *Coordinator) Leave() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.attempt++
	if c.status == StatusDisconnected {
		return
	}
	c.teardownLocked()
	c.status = StatusDisconnected
	slog.Info("left room", "room", c.room, "identity", c.identity)
}

// receiver builds the inbound handler for l. Broadcasts that arrive after
// l stopped being the coordinator's transport are dropped.
func (c *Coordinator) receiver(l *link) DataHandler {
	return func(payload []byte, sender string) {
		if sender == "" {
			slog.Debug("dropping broadcast without sender")
			return
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if l != c.active && l != c.pending {
			return
		}
		c.votes.Record(sender, DecodeVote(payload))
	}
}

func (c *Coordinator) teardownLocked() {
	if c.cancelPending != nil {
		c.cancelPending()
		c.cancelPending = nil
	}
	if c.pending != nil {
		c.pending.close()
		c.pending = nil
	}
	if c.active != nil {
		c.active.close()
		c.active = nil
		if c.cfg.ClearOnDisconnect {
			c.votes.Clear()
		}
	}
}
