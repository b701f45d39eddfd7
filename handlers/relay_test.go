// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/danielhkuo/pok-er/db"
	"github.com/danielhkuo/pok-er/models"
	"github.com/danielhkuo/pok-er/relay"
	"github.com/danielhkuo/pok-er/testutil"
)

type relayFixture struct {
	srv   *httptest.Server
	hub   *relay.Hub
	store *db.RoomStore
}

func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	t.Cleanup(func() { conn.Close() })

	store := db.NewRoomStore(conn)
	hub := relay.NewHub(store)
	handler := NewRelayHandler(testutil.NewTestIssuer(t), hub, testutil.GetTestConfig())

	srv := httptest.NewServer(http.HandlerFunc(handler.Connect))
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Close)
	return &relayFixture{srv: srv, hub: hub, store: store}
}

func (f *relayFixture) dial(t *testing.T, identity, room string) *websocket.Conn {
	t.Helper()

	token, err := testutil.NewTestIssuer(t).IssueToken(context.Background(), identity, room)
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/rtc?access_token=" + token
	cfg, err := websocket.NewConfig(wsURL, f.srv.URL)
	require.NoError(t, err)
	conn, err := websocket.DialConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (f *relayFixture) waitForMembers(t *testing.T, room string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(f.hub.Participants(room)) == n
	}, 2*time.Second, 5*time.Millisecond)
}

func sendFrame(t *testing.T, conn *websocket.Conn, frame models.Frame) {
	t.Helper()
	require.NoError(t, websocket.JSON.Send(conn, frame))
}

func readFrame(t *testing.T, conn *websocket.Conn) models.Frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame models.Frame
	require.NoError(t, websocket.JSON.Receive(conn, &frame))
	return frame
}

func TestRelay_RejectsBadTokens(t *testing.T) {
	f := newRelayFixture(t)

	testCases := []struct {
		name  string
		query string
	}{
		{"missing", ""},
		{"garbage", "?access_token=not-a-jwt"},
		{"expired", "?access_token=" + testutil.NewExpiredToken(t, "alice", "room1")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(f.srv.URL + "/rtc" + tc.query)
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestRelay_ForwardsToOtherMembers(t *testing.T) {
	f := newRelayFixture(t)

	alice := f.dial(t, "alice", "room1")
	bob := f.dial(t, "bob", "room1")
	f.waitForMembers(t, "room1", 2)

	// A client-supplied From is replaced with the token identity
	sendFrame(t, alice, models.Frame{Type: models.FrameData, From: "mallory", Payload: []byte("8")})

	got := readFrame(t, bob)
	assert.Equal(t, models.Frame{Type: models.FrameData, From: "alice", Payload: []byte("8")}, got)

	// Alice never sees her own frame, so the next one she reads is Bob's
	sendFrame(t, bob, models.Frame{Type: models.FrameData, Payload: []byte("13")})

	got = readFrame(t, alice)
	assert.Equal(t, "bob", got.From)
	assert.Equal(t, []byte("13"), got.Payload)
}

func TestRelay_RoomsAreIsolated(t *testing.T) {
	f := newRelayFixture(t)

	alice := f.dial(t, "alice", "room1")
	bob := f.dial(t, "bob", "room1")
	carol := f.dial(t, "carol", "room2")
	f.waitForMembers(t, "room1", 2)
	f.waitForMembers(t, "room2", 1)

	sendFrame(t, alice, models.Frame{Type: models.FrameData, Payload: []byte("5")})
	readFrame(t, bob)

	_ = carol.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	var frame models.Frame
	assert.Error(t, websocket.JSON.Receive(carol, &frame), "room2 must not receive room1 frames")
}

func TestRelay_ErrorFrames(t *testing.T) {
	f := newRelayFixture(t)
	alice := f.dial(t, "alice", "room1")
	f.waitForMembers(t, "room1", 1)

	t.Run("unsupported type", func(t *testing.T) {
		sendFrame(t, alice, models.Frame{Type: "shout"})
		got := readFrame(t, alice)
		assert.Equal(t, models.FrameError, got.Type)
		assert.Equal(t, "unsupported frame type", got.Message)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		require.NoError(t, websocket.Message.Send(alice, "{nope"))
		got := readFrame(t, alice)
		assert.Equal(t, "invalid frame payload", got.Message)
	})

	t.Run("payload too large", func(t *testing.T) {
		sendFrame(t, alice, models.Frame{Type: models.FrameData, Payload: make([]byte, maxVoteBytes+1)})
		got := readFrame(t, alice)
		assert.Equal(t, "payload too large", got.Message)
	})
}

func TestRelay_SameIdentityReplacesConnection(t *testing.T) {
	f := newRelayFixture(t)

	first := f.dial(t, "alice", "room1")
	f.waitForMembers(t, "room1", 1)
	before := f.hub.Participants("room1")[0].SessionID

	f.dial(t, "alice", "room1")
	require.Eventually(t, func() bool {
		p := f.hub.Participants("room1")
		return len(p) == 1 && p[0].SessionID != before
	}, 2*time.Second, 5*time.Millisecond)

	got := readFrame(t, first)
	assert.Equal(t, models.FrameError, got.Type)

	_ = first.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame models.Frame
	assert.Error(t, websocket.JSON.Receive(first, &frame), "replaced connection is closed")
}

func TestRelay_RecordsPresence(t *testing.T) {
	f := newRelayFixture(t)

	alice := f.dial(t, "alice", "room1")
	f.waitForMembers(t, "room1", 1)

	// The hub admits the member before the registry write lands
	var recent []models.PresenceRecord
	require.Eventually(t, func() bool {
		var err error
		recent, err = f.store.RecentPresence(context.Background(), "room1", 10)
		return err == nil && len(recent) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "alice", recent[0].Identity)
	require.NotNil(t, recent[0].IPHash)
	assert.Len(t, *recent[0].IPHash, 16)

	alice.Close()
	f.waitForMembers(t, "room1", 0)

	require.Eventually(t, func() bool {
		recent, err := f.store.RecentPresence(context.Background(), "room1", 10)
		return err == nil && len(recent) == 1 && recent[0].DisconnectedAt != nil
	}, 2*time.Second, 5*time.Millisecond)
}
