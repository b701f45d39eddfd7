// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/pok-er/auth"
	"github.com/danielhkuo/pok-er/cliparse"
	"github.com/danielhkuo/pok-er/ledger"
	"github.com/danielhkuo/pok-er/location"
	"github.com/danielhkuo/pok-er/rtc"
	"github.com/danielhkuo/pok-er/session"
)

const helpText = `commands:
  join <name> [room]  join a room (room defaults to the one in your link)
  vote <card>         pick a card
  leave               leave the room
  votes               show everyone's latest pick
  cards               list the cards
  link                print a link others can use to join
  status              show the session
  help                show this help
  quit                leave and exit
`

// Deps overrides the client's collaborators. Nil fields use the defaults:
// an HTTP (or local, when an API key pair is configured) token issuer and
// the WebSocket transport.
type Deps struct {
	Issuer     session.TokenIssuer
	Transports session.TransportFactory
}

// App is the line-oriented terminal client
type App struct {
	cfg    cliparse.ClientConfig
	coord  *session.Coordinator
	loc    *location.Location
	tokens *expiryTracker

	outMu    sync.Mutex
	out      io.Writer
	identity string
}

func New(cfg cliparse.ClientConfig, out io.Writer, deps Deps) (*App, error) {
	issuer := deps.Issuer
	if issuer == nil {
		if cfg.APIKey != "" {
			local, err := auth.NewIssuer(cfg.APIKey, cfg.APISecret, cfg.TokenTTL)
			if err != nil {
				return nil, err
			}
			issuer = local
		} else {
			issuer = NewHTTPIssuer(cfg.ServerURL, nil)
		}
	}
	transports := deps.Transports
	if transports == nil {
		transports = rtc.Factory{}
	}

	link := cfg.Link
	if link == "" {
		link = strings.TrimRight(cfg.ServerURL, "/") + "/"
	}
	loc, err := location.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("invalid link: %w", err)
	}

	a := &App{
		cfg:    cfg,
		loc:    loc,
		tokens: &expiryTracker{inner: issuer},
		out:    out,
	}
	a.coord = session.New(session.Config{
		Endpoint:          cfg.ServerURL,
		ConnectTimeout:    cfg.ConnectTimeout,
		ClearOnDisconnect: cfg.ClearOnDisconnect,
	}, session.Deps{
		Issuer:     a.tokens,
		Transports: transports,
		Rooms:      loc,
	})
	return a, nil
}

// Coordinator exposes the session for callers embedding the client
func (a *App) Coordinator() *session.Coordinator {
	return a.coord
}

// Run reads commands from in until quit or EOF, then leaves the room
func (a *App) Run(ctx context.Context, in io.Reader) error {
	cancel := a.coord.Ledger().Observe(a.printVotes)
	defer cancel()
	defer a.coord.Leave()

	a.printf("pok-er client, type 'help' for commands\n")

	room := a.cfg.Room
	if room == "" {
		room = a.loc.Room()
	}
	if a.cfg.Identity != "" && room != "" {
		a.join(ctx, a.cfg.Identity, room)
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !a.exec(ctx, scanner.Text()) {
			return nil
		}
	}
	return scanner.Err()
}

// exec runs one command line. It returns false on quit.
func (a *App) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	switch cmd, args := strings.ToLower(fields[0]), fields[1:]; cmd {
	case "join":
		if len(args) == 0 {
			a.printf("usage: join <name> [room]\n")
			return true
		}
		room := a.loc.Room()
		if len(args) > 1 {
			room = strings.Join(args[1:], " ")
		}
		if room == "" {
			a.printf("no room in your link, use: join <name> <room>\n")
			return true
		}
		a.join(ctx, args[0], room)

	case "vote":
		if len(args) != 1 {
			a.printf("usage: vote <card>\n")
			return true
		}
		if !ledger.IsCard(args[0]) {
			a.printf("unknown card %q, try: %s\n", args[0], strings.Join(ledger.Cards(), " "))
			return true
		}
		err := a.coord.SubmitVote(ctx, args[0])
		switch {
		case errors.Is(err, session.ErrNotConnected):
			a.printf("join a room first\n")
		case err != nil:
			a.printf("vote not sent: %v\n", err)
		}

	case "leave":
		a.coord.Leave()
		a.printf("left the room\n")

	case "votes":
		a.printVotes(a.coord.Ledger().All())

	case "cards":
		a.printf("%s\n", strings.Join(ledger.Cards(), " "))

	case "link":
		s := a.coord.Session()
		if s.Status != session.StatusConnected {
			a.printf("join a room first\n")
			return true
		}
		a.printf("%s\n", location.ShareLink(a.cfg.ServerURL, s.Room))

	case "status":
		a.printStatus()

	case "help":
		a.printf("%s", helpText)

	case "quit", "exit":
		return false

	default:
		a.printf("unknown command %q, type 'help'\n", cmd)
	}
	return true
}

func (a *App) join(ctx context.Context, identity, room string) {
	a.outMu.Lock()
	a.identity = identity
	a.outMu.Unlock()

	a.printf("joining %s as %s...\n", room, identity)
	if err := a.coord.Join(ctx, identity, room); err != nil {
		if errors.Is(err, session.ErrJoinSuperseded) {
			return
		}
		slog.Debug("join failed", "room", room, "identity", identity, "error", err)
		a.printf("could not join: %v\n", err)
		return
	}
	a.printf("joined %s\n", room)
}

func (a *App) printStatus() {
	s := a.coord.Session()
	if s.Status == session.StatusDisconnected {
		a.printf("not in a room\n")
		return
	}
	a.printf("%s in %s as %s\n", s.Status, s.Room, s.Identity)
	if exp := a.tokens.Expires(); !exp.IsZero() {
		a.printf("token expires %s\n", humanize.Time(exp))
	}
}

// printVotes renders the ledger. It runs as a ledger observer, so it must
// not call into the coordinator.
func (a *App) printVotes(entries []ledger.Entry) {
	a.outMu.Lock()
	defer a.outMu.Unlock()

	if len(entries) == 0 {
		fmt.Fprintf(a.out, "no votes yet\n")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		marker := " "
		if e.Identity == a.identity {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s %s\t%s\n", marker, e.Identity, e.Vote)
	}
	tw.Flush()
}

func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}
