// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rtc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/danielhkuo/pok-er/models"
	"github.com/danielhkuo/pok-er/session"
)

// Path is the relay's WebSocket route
const Path = "/rtc"

var (
	ErrNotConnected     = errors.New("rtc: not connected")
	ErrClosed           = errors.New("rtc: transport closed")
	ErrAlreadyConnected = errors.New("rtc: already connected")
)

// Transport is a session.Transport over one relay WebSocket
type Transport struct {
	mu       sync.Mutex
	conn     *websocket.Conn
	closed   bool
	handlers map[int]session.DataHandler
	nextID   int
	done     chan struct{}

	writeMu sync.Mutex
}

// New returns an unconnected transport
func New() *Transport {
	return &Transport{
		handlers: make(map[int]session.DataHandler),
		done:     make(chan struct{}),
	}
}

// Factory creates a Transport per join
type Factory struct{}

func (Factory) NewTransport() session.Transport {
	return New()
}

// DialURL converts an http(s) or ws(s) endpoint into the relay URL carrying
// token, plus the Origin to send with the handshake.
func DialURL(endpoint, token string) (wsURL, origin string, err error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return "", "", fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}

	o := *u
	switch u.Scheme {
	case "http", "ws":
		u.Scheme, o.Scheme = "ws", "http"
	case "https", "wss":
		u.Scheme, o.Scheme = "wss", "https"
	default:
		return "", "", fmt.Errorf("invalid endpoint %q: unsupported scheme", endpoint)
	}

	u.Path = strings.TrimRight(u.Path, "/") + Path
	u.RawPath = ""
	q := url.Values{}
	q.Set("access_token", token)
	u.RawQuery = q.Encode()
	u.Fragment = ""

	o.Path, o.RawPath, o.RawQuery, o.Fragment = "", "", "", ""
	return u.String(), o.String(), nil
}

// Connect dials the relay and starts delivering inbound frames
func (t *Transport) Connect(ctx context.Context, endpoint, token string) error {
	t.mu.Lock()
	switch {
	case t.closed:
		t.mu.Unlock()
		return ErrClosed
	case t.conn != nil:
		t.mu.Unlock()
		return ErrAlreadyConnected
	}
	t.mu.Unlock()

	wsURL, origin, err := DialURL(endpoint, token)
	if err != nil {
		return err
	}
	cfg, err := websocket.NewConfig(wsURL, origin)
	if err != nil {
		return fmt.Errorf("failed to configure websocket: %w", err)
	}
	conn, err := cfg.DialContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to dial relay: %w", err)
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	t.conn = conn
	t.mu.Unlock()

	go t.readLoop(conn)
	return nil
}

// Disconnect closes the connection. It does not wait for the read loop,
// which may be blocked inside a handler.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true
	if t.conn != nil {
		t.conn.Close()
	} else {
		close(t.done)
	}
}

// Publish sends payload as a data frame
func (t *Transport) Publish(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	conn := t.conn
	closed := t.closed
	t.mu.Unlock()
	if conn == nil || closed {
		return ErrNotConnected
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
		defer conn.SetWriteDeadline(time.Time{})
	}
	if err := websocket.JSON.Send(conn, models.Frame{Type: models.FrameData, Payload: payload}); err != nil {
		return fmt.Errorf("failed to publish: %w", err)
	}
	return nil
}

// Subscribe registers fn for inbound data frames
func (t *Transport) Subscribe(fn session.DataHandler) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	t.handlers[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.handlers, id)
	}
}

// Done is closed once the transport stops reading
func (t *Transport) Done() <-chan struct{} {
	return t.done
}

func (t *Transport) readLoop(conn *websocket.Conn) {
	defer close(t.done)

	for {
		var frame models.Frame
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				slog.Warn("dropping malformed frame", "error", err)
				continue
			}
			t.mu.Lock()
			closed := t.closed
			t.mu.Unlock()
			if !closed {
				slog.Info("relay connection lost", "error", err)
			}
			return
		}

		switch frame.Type {
		case models.FrameData:
			for _, fn := range t.subscribers() {
				fn(frame.Payload, frame.From)
			}
		case models.FrameError:
			slog.Warn("relay error", "message", frame.Message)
		default:
			slog.Debug("ignoring frame", "type", frame.Type)
		}
	}
}

func (t *Transport) subscribers() []session.DataHandler {
	t.mu.Lock()
	defer t.mu.Unlock()

	fns := make([]session.DataHandler, 0, len(t.handlers))
	for id := 0; id < t.nextID; id++ {
		if fn, ok := t.handlers[id]; ok {
			fns = append(fns, fn)
		}
	}
	return fns
}
